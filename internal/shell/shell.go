// Package shell implements the strongarm interactive command shell: a table
// of named commands dispatched from free text input against a loaded
// analysis session.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/blacktop/strongarm/internal/session"
)

// Prompt is printed before every line of input.
const Prompt = "strongarm$ "

// Config is the shell configuration.
type Config struct {
	// Output receives all command output (default os.Stdout).
	Output io.Writer
	// Input supplies lines (default a scanner over os.Stdin).
	Input LineReader
	// ParallelInfo renders the reports of "info all" concurrently.
	ParallelInfo bool
}

// Shell is the command loop over one session.
type Shell struct {
	sess     session.Session
	out      io.Writer
	in       LineReader
	parallel bool
	active   bool

	table     *Table
	infoDesc  string
	infoNames []string
}

// New builds the command table and prints the banner.
func New(sess session.Session, conf Config) *Shell {
	s := &Shell{
		sess:     sess,
		out:      conf.Output,
		in:       conf.Input,
		parallel: conf.ParallelInfo,
		active:   true,
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.in == nil {
		s.in = NewScanReader(os.Stdin, s.out)
	}

	group := NewInfoGroup(sess, s.parallel)
	s.infoDesc = group.Describe()
	s.infoNames = group.Names()

	s.table = NewTable().MustRegister(s.commands()...)

	if c, ok := s.in.(completable); ok {
		c.setCompleter(s.completer())
	}

	fmt.Fprintln(s.out, "strongarm interactive shell")
	fmt.Fprintln(s.out, "Type 'help' for available commands.")
	return s
}

// Active reports whether the shell is still accepting commands.
func (s *Shell) Active() bool {
	return s.active
}

// Describe returns the "name: description" help lines.
func (s *Shell) Describe() []string {
	return s.table.Describe()
}

// RunCommand dispatches one line. Usage, lookup and parse problems are
// printed and are not errors; a failing collaborator ends the command with a
// *CollaboratorError.
func (s *Shell) RunCommand(line string) error {
	tokens := strings.Split(line, " ")
	name, args := tokens[0], tokens[1:]

	log.WithFields(log.Fields{"command": name, "args": args}).Debug("Dispatching")

	cmd, err := s.table.Lookup(name)
	if err != nil {
		fmt.Fprintln(s.out, err.Error())
		return nil
	}
	return s.report(name, cmd.Invoke(s.out, args))
}

func (s *Shell) report(name string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ue *UsageError
		nf *NotFoundError
		pe *ParseError
		ce *CollaboratorError
	)
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.As(err, &ue):
		fmt.Fprintln(s.out, ue.Usage)
	case errors.As(err, &nf):
		fmt.Fprintln(s.out, nf.Error())
	case errors.As(err, &pe):
		fmt.Fprintln(s.out, pe.Error())
		if len(pe.Usage) > 0 {
			fmt.Fprintln(s.out, pe.Usage)
		}
	default:
		return &CollaboratorError{Op: name, Err: err}
	}
	return nil
}

// ProcessCommand reads and runs a single line. End of input runs "exit"; an
// empty line does nothing.
func (s *Shell) ProcessCommand() error {
	line, err := s.in.ReadLine(Prompt)
	if err != nil {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return s.RunCommand("exit")
		}
		return fmt.Errorf("failed to read input: %w", err)
	}
	if len(line) == 0 {
		return nil
	}
	return s.RunCommand(line)
}

// Run prompts until "exit" (or end of input) or until ctx is done. Command
// failures are logged and the loop keeps going.
func (s *Shell) Run(ctx context.Context) error {
	defer s.in.Close()
	for s.active {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.ProcessCommand(); err != nil {
			var ce *CollaboratorError
			if errors.As(err, &ce) {
				log.WithError(ce.Err).Error(ce.Op)
				continue
			}
			return err
		}
	}
	return nil
}
