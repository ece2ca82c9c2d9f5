// Package report renders the read-only views of a binary and its analysis
// that the shell's info command exposes.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/blacktop/strongarm/internal/colors"
	"github.com/blacktop/strongarm/internal/session"
	"github.com/dustin/go-humanize"
)

// Theme is the chroma style used when colors are enabled.
var Theme = "nord"

func header(w io.Writer, title string) {
	fmt.Fprintln(w, colors.Heading(title))
	fmt.Fprintln(w, strings.Repeat("=", len(title)))
}

func none(w io.Writer, what string) {
	fmt.Fprintf(w, "  - no %s\n", what)
}

// Metadata prints the header summary of the binary.
func Metadata(w io.Writer, b session.Binary) error {
	md := b.Metadata()
	header(w, "Metadata")
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	row := func(k, v string) {
		if len(v) > 0 {
			fmt.Fprintf(tw, "%s:\t%s\n", k, v)
		}
	}
	row("Path", md.Path)
	row("Magic", md.Magic)
	if len(md.SubCPU) > 0 {
		row("CPU", fmt.Sprintf("%s, %s", md.CPU, md.SubCPU))
	} else {
		row("CPU", md.CPU)
	}
	row("Type", md.FileType)
	row("Commands", fmt.Sprintf("%d (%d bytes)", md.NCommands, md.SizeCommands))
	row("Flags", md.Flags)
	row("UUID", md.UUID)
	row("Build Version", md.BuildVersion)
	row("Source Version", md.SourceVersion)
	row("Dylib ID", md.DylibID)
	row("Encrypted", fmt.Sprintf("%t", md.Encrypted))
	row("ObjC", fmt.Sprintf("%t", md.HasObjC))
	row("Swift", fmt.Sprintf("%t", md.HasSwift))
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// Segments prints the segment table.
func Segments(w io.Writer, b session.Binary) error {
	header(w, "Segments")
	segs := b.Segments()
	if len(segs) == 0 {
		none(w, "segments")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, seg := range segs {
		fmt.Fprintf(tw, "%s\t%s\t(%s)\toff=%#x\tfilesz=%#x\t%s/%s\tsects=%d\n",
			colors.Name(seg.Name),
			colors.Addr("%#016x-%#016x", seg.Addr, seg.Addr+seg.Memsz),
			humanize.Bytes(seg.Memsz),
			seg.Offset,
			seg.Filesz,
			seg.Prot,
			seg.Maxprot,
			seg.Nsect)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// Sections prints every section with its owning segment.
func Sections(w io.Writer, b session.Binary) error {
	header(w, "Sections")
	sects := b.Sections()
	if len(sects) == 0 {
		none(w, "sections")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, sec := range sects {
		fmt.Fprintf(tw, "%s\t%s\t(%s)\toff=%#x\t%s\n",
			colors.Name(sec.Segment+"."+sec.Name),
			colors.Addr("%#016x-%#016x", sec.Addr, sec.Addr+sec.Size),
			humanize.Bytes(sec.Size),
			sec.Offset,
			colors.Kind(sec.Flags))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// LoadCommands prints the load command table.
func LoadCommands(w io.Writer, b session.Binary) error {
	header(w, "Load Commands")
	loads := b.LoadCommands()
	if len(loads) == 0 {
		none(w, "load commands")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, l := range loads {
		fmt.Fprintf(tw, "%03d:\t%s\t%d\t%s\n", l.Index, colors.Kind(l.Command), l.Size, l.Detail)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// Strings prints the C strings grouped by section, in address order.
func Strings(w io.Writer, b session.Binary) error {
	header(w, "Strings")
	strs, err := b.Strings()
	if err != nil {
		return fmt.Errorf("failed to get strings: %w", err)
	}
	if len(strs) == 0 {
		none(w, "strings")
	}
	var last string
	for _, s := range strs {
		if s.Section != last {
			fmt.Fprintf(w, "\n[%s]\n", s.Section)
			fmt.Fprintln(w, strings.Repeat("-", len(s.Section)+2))
			last = s.Section
		}
		fmt.Fprintf(w, "%s: %s\n", colors.Addr("%#09x", s.Addr), colors.Name(fmt.Sprintf("%#v", s.Value)))
	}
	fmt.Fprintln(w)
	return nil
}

// Classes prints the ObjC classes the analyzer recovered.
func Classes(w io.Writer, a session.Analyzer) error {
	header(w, "Classes")
	classes := a.ObjCClasses()
	if len(classes) == 0 {
		none(w, "objc classes")
		fmt.Fprintln(w)
		return nil
	}
	var sb strings.Builder
	for _, c := range classes {
		if len(c.SuperClass) > 0 {
			fmt.Fprintf(&sb, "%#09x: @interface %s : %s // %d selectors\n", c.Addr, c.Name, c.SuperClass, len(c.Selectors))
		} else {
			fmt.Fprintf(&sb, "%#09x: @interface %s // %d selectors\n", c.Addr, c.Name, len(c.Selectors))
		}
	}
	if err := highlight(w, sb.String()); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// Protocols prints the ObjC protocols the analyzer recovered.
func Protocols(w io.Writer, a session.Analyzer) error {
	header(w, "Protocols")
	protos := a.ObjCProtocols()
	if len(protos) == 0 {
		none(w, "objc protocols")
		fmt.Fprintln(w)
		return nil
	}
	var sb strings.Builder
	for _, p := range protos {
		fmt.Fprintf(&sb, "%#09x: @protocol %s // %d selectors\n", p.Addr, p.Name, len(p.Selectors))
	}
	if err := highlight(w, sb.String()); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// Methods prints every ObjC method implementation.
func Methods(w io.Writer, a session.Analyzer) error {
	header(w, "Methods")
	methods := a.ObjCMethods()
	if len(methods) == 0 {
		none(w, "objc methods")
	}
	for _, m := range methods {
		fmt.Fprintln(w, FormatMethod(m))
	}
	fmt.Fprintln(w)
	return nil
}

// FormatMethod renders one method implementation line.
func FormatMethod(m session.Method) string {
	return fmt.Sprintf("%s: %s", colors.Addr("%#09x", m.Selector.Impl), colors.Name(m.String()))
}

// Imports prints the undefined symbols and the dylib expected to provide
// each one.
func Imports(w io.Writer, a session.Analyzer) error {
	header(w, "Imported Symbols")
	syms := a.ImportedSymbols()
	if len(syms) == 0 {
		none(w, "imports")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, sym := range syms {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", colors.Kind(sym.Kind), colors.Name(sym.Name), colors.Lib(sym.Library))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// Exports prints the exported symbols.
func Exports(w io.Writer, a session.Analyzer) error {
	header(w, "Exported Symbols")
	syms := a.ExportedSymbols()
	if len(syms) == 0 {
		none(w, "exports")
	}
	for _, sym := range syms {
		fmt.Fprintf(w, "%s:  %s\t%s\n", colors.Addr("%#09x", sym.Addr), colors.Kind(sym.Kind), colors.Name(sym.Name))
	}
	fmt.Fprintln(w)
	return nil
}

func highlight(w io.Writer, src string) error {
	if !colors.Enabled() {
		_, err := io.WriteString(w, src)
		return err
	}
	return quick.Highlight(w, src, "objc", "terminal256", Theme)
}
