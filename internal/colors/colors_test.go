package colors

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestInit(t *testing.T) {
	on, off := true, false
	tests := []struct {
		name  string
		start bool // initial value of color.NoColor
		force *bool
		want  bool // Enabled() after Init
	}{
		{name: "force on", start: true, force: &on, want: true},
		{name: "force off", start: false, force: &off, want: false},
		{name: "nil keeps enabled", start: false, force: nil, want: true},
		{name: "nil keeps disabled", start: true, force: nil, want: false},
	}
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			color.NoColor = tt.start
			Init(tt.force)
			if got := Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRolesRespectNoColor(t *testing.T) {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()

	color.NoColor = true
	if got := Name("objc_msgSend"); got != "objc_msgSend" {
		t.Errorf("Name() = %q, want plain text", got)
	}
	if got := Addr("%#x", 0x1000); got != "0x1000" {
		t.Errorf("Addr() = %q, want plain text", got)
	}

	color.NoColor = false
	if got := Heading("Segments"); !strings.Contains(got, "\x1b[") {
		t.Errorf("Heading() = %q, want ANSI codes", got)
	}
}
