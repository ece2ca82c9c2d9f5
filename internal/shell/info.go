package shell

import (
	"bytes"
	"errors"
	"io"
	"runtime"
	"strings"

	"github.com/blacktop/strongarm/internal/report"
	"github.com/blacktop/strongarm/internal/session"
	"golang.org/x/sync/errgroup"
)

const infoAll = "all"

// InfoGroup is the "info" sub-command group: a fixed set of read-only
// reports over the session plus "all". It holds no state beyond its table.
type InfoGroup struct {
	table    *Table
	parallel bool
}

// NewInfoGroup binds every report to the session's Binary or Analyzer.
// With parallel set, "all" renders the reports concurrently and still writes
// them in registration order.
func NewInfoGroup(sess session.Session, parallel bool) *InfoGroup {
	g := &InfoGroup{table: NewTable(), parallel: parallel}
	b, a := sess.Binary, sess.Analyzer
	g.table.MustRegister(
		Bound(infoAll, "Run every report", g, func(w io.Writer, g *InfoGroup) error { return g.runAll(w) }),
		Bound("metadata", "Mach-O header summary", b, report.Metadata),
		Bound("segments", "Segment table", b, report.Segments),
		Bound("sections", "Section table", b, report.Sections),
		Bound("loads", "Load commands", b, report.LoadCommands),
		Bound("classes", "ObjC classes", a, report.Classes),
		Bound("protocols", "ObjC protocols", a, report.Protocols),
		Bound("methods", "ObjC method implementations", a, report.Methods),
		Bound("imports", "Imported symbols", a, report.Imports),
		Bound("exports", "Exported symbols", a, report.Exports),
		Bound("strings", "C strings", b, report.Strings),
	)
	return g
}

// Describe returns the one line summary used as the shell's "info"
// description.
func (g *InfoGroup) Describe() string {
	opts := make([]string, 0, g.table.Len())
	for _, name := range g.table.Names() {
		opts = append(opts, "["+name+"]")
	}
	return "Read binary information. info " + strings.Join(opts, " ")
}

// Names returns every option, "all" included, in registration order.
func (g *InfoGroup) Names() []string {
	return g.table.Names()
}

// Reports returns the report names "all" runs, in order.
func (g *InfoGroup) Reports() []string {
	var out []string
	for _, name := range g.table.Names() {
		if name != infoAll {
			out = append(out, name)
		}
	}
	return out
}

// Run renders the named report. Unknown names return a *NotFoundError of
// kind KindInfo.
func (g *InfoGroup) Run(w io.Writer, name string) error {
	cmd, err := g.table.Lookup(name)
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			nf.Kind = KindInfo
		}
		return err
	}
	return cmd.Invoke(w, nil)
}

func (g *InfoGroup) runAll(w io.Writer) error {
	names := g.Reports()
	if !g.parallel {
		for _, name := range names {
			if err := g.Run(w, name); err != nil {
				return err
			}
		}
		return nil
	}

	bufs := make([]bytes.Buffer, len(names))
	errs := make([]error, len(names))
	var eg errgroup.Group
	eg.SetLimit(runtime.NumCPU())
	for i, name := range names {
		eg.Go(func() error {
			errs[i] = g.Run(&bufs[i], name)
			return errs[i]
		})
	}
	eg.Wait()
	// emit in registration order, stopping at the first failed report
	for i := range names {
		if _, err := bufs[i].WriteTo(w); err != nil {
			return err
		}
		if errs[i] != nil {
			return errs[i]
		}
	}
	return nil
}
