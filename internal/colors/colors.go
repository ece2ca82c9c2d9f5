// Package colors provides the terminal palette used by strongarm reports,
// hex dumps and disassembly listings.
//
// Colors follow fatih/color's terminal detection until Init is called. The
// strongarm command always calls Init with the --color setting, so colors are
// off unless asked for.
package colors

import "github.com/fatih/color"

// Init overrides the auto-detected color setting.
//   - forceColor == nil: keep the current value
//   - forceColor == true: force colors on
//   - forceColor == false: force colors off
func Init(forceColor *bool) {
	if forceColor != nil {
		color.NoColor = !*forceColor
	}
}

// Enabled returns true if colors are currently enabled.
func Enabled() bool {
	return !color.NoColor
}

func Bold() *color.Color         { return color.New(color.Bold) }
func Faint() *color.Color        { return color.New(color.Faint) }
func HiYellow() *color.Color     { return color.New(color.FgHiYellow) }
func BoldHiBlue() *color.Color   { return color.New(color.Bold, color.FgHiBlue) }
func BoldHiCyan() *color.Color   { return color.New(color.Bold, color.FgHiCyan) }
func BoldMagenta() *color.Color  { return color.New(color.Bold, color.FgMagenta) }
func FaintCyan() *color.Color    { return color.New(color.Faint, color.FgCyan) }
func FaintMagenta() *color.Color { return color.New(color.Faint, color.FgMagenta) }
func FaintHiBlue() *color.Color  { return color.New(color.Faint, color.FgHiBlue) }
func FaintHiWhite() *color.Color { return color.New(color.Faint, color.FgHiWhite) }

// Report roles

var (
	// Addr renders virtual addresses and offsets.
	Addr = Faint().SprintfFunc()
	// Kind renders symbol types, load command names and flags.
	Kind = FaintCyan().SprintFunc()
	// Lib renders dylib names.
	Lib = FaintMagenta().SprintFunc()
	// Name renders symbol, class and selector names.
	Name = Bold().SprintFunc()
	// Heading renders report titles.
	Heading = BoldHiCyan().SprintFunc()
)
