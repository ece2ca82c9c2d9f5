package utils

import (
	"testing"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    uint64
		wantErr bool
	}{
		{name: "prefixed", in: "0x1000", want: 0x1000},
		{name: "bare", in: "100003f40", want: 0x100003f40},
		{name: "upper", in: "0XDEADBEEF", want: 0xdeadbeef},
		{name: "not hex", in: "zz", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "overflow", in: "0x1ffffffffffffffff", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAddress(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseAddress(%q) = %#x, want %#x", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    uint64
		wantErr bool
	}{
		{name: "decimal", in: "32", want: 32},
		{name: "zero", in: "0", want: 0},
		{name: "hex is rejected", in: "0x20", wantErr: true},
		{name: "negative", in: "-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsASCII(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"hello world", true},
		{"tab\tsep", true},
		{"café", false},
		{"bell\x07", false},
	}
	for _, tt := range tests {
		if got := IsASCII(tt.in); got != tt.want {
			t.Errorf("IsASCII(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
