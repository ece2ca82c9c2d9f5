package shell

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/blacktop/strongarm/internal/report"
	"github.com/blacktop/strongarm/internal/session"
	"github.com/blacktop/strongarm/internal/utils"
)

const (
	usageSels    = "sels [class]"
	usageDisasm  = "disasm [sel]"
	usageDisasmF = "disasm_f [address]"
	usageDump    = "dump [size] [virtual address]"
)

func (s *Shell) commands() []Command {
	return []Command{
		Bound("help", "Display available commands", s, help),
		Bound("exit", "Exit interactive shell", s, exit),
		WithArgs("info", s.infoDesc, s.info),
		WithArgs("sels", "List selectors implemented by a class. "+usageSels, s.sels),
		WithArgs("disasm", "Decompile a given selector. "+usageDisasm, s.disasm),
		WithArgs("disasm_f", "Disassemble a function at a virtual address. "+usageDisasmF, s.disasmFunc),
		WithArgs("dump", "Hex dump memory at a virtual address. "+usageDump, s.dump),
	}
}

func help(w io.Writer, s *Shell) error {
	fmt.Fprintln(w, "Commands")
	fmt.Fprintln(w, strings.Repeat("-", 16))
	for _, line := range s.table.Describe() {
		fmt.Fprintln(w, line)
	}
	return nil
}

func exit(w io.Writer, s *Shell) error {
	fmt.Fprintln(w, "Quitting...")
	s.active = false
	return nil
}

func (s *Shell) info(w io.Writer, args []string) error {
	// a fresh group per invocation
	group := NewInfoGroup(s.sess, s.parallel)
	if len(args) == 0 {
		fmt.Fprintln(w, "No option provided")
		fmt.Fprintln(w, group.Describe())
		return nil
	}
	for _, name := range args {
		if err := group.Run(w, name); err != nil {
			var nf *NotFoundError
			if errors.As(err, &nf) {
				fmt.Fprintln(w, nf.Error())
				continue
			}
			return &CollaboratorError{Op: "info " + name, Err: err}
		}
	}
	return nil
}

func (s *Shell) sels(w io.Writer, args []string) error {
	if len(args) < 1 {
		return usage(usageSels)
	}
	name := args[0]
	for _, class := range s.sess.Analyzer.ObjCClasses() {
		if class.Name != name {
			continue
		}
		for _, sel := range class.Selectors {
			fmt.Fprintln(w, report.FormatMethod(session.Method{Class: class.Name, Selector: sel}))
		}
		return nil
	}
	return &NotFoundError{Kind: KindClass, Name: name}
}

func (s *Shell) disasm(w io.Writer, args []string) error {
	if len(args) < 1 {
		return usage(usageDisasm)
	}
	sel := args[0]
	for _, m := range s.sess.Analyzer.ObjCMethods() {
		if m.Selector.Name != sel {
			continue
		}
		text, err := s.sess.Disassembler.DecodeMethod(s.sess.Binary, m)
		if err != nil {
			return &CollaboratorError{Op: "disassemble " + m.String(), Err: err}
		}
		fmt.Fprintln(w, text)
		return nil
	}
	return &NotFoundError{Kind: KindSelector, Name: sel}
}

func (s *Shell) disasmFunc(w io.Writer, args []string) error {
	if len(args) < 1 {
		return usage(usageDisasmF)
	}
	addr, err := utils.ParseAddress(args[0])
	if err != nil {
		return &ParseError{Input: args[0], Base: 16, Usage: usage(usageDisasmF).Usage, Err: err}
	}
	text, err := s.sess.Disassembler.DecodeFunction(s.sess.Binary, addr)
	if err != nil {
		return &CollaboratorError{Op: fmt.Sprintf("disassemble function %#x", addr), Err: err}
	}
	fmt.Fprintln(w, text)
	return nil
}

func (s *Shell) dump(w io.Writer, args []string) error {
	if len(args) < 2 {
		return usage(usageDump)
	}
	size, err := utils.ParseSize(args[0])
	if err != nil {
		return &ParseError{Input: args[0], Base: 10, Usage: usage(usageDump).Usage, Err: err}
	}
	addr, err := utils.ParseAddress(args[1])
	if err != nil {
		return &ParseError{Input: args[1], Base: 16, Usage: usage(usageDump).Usage, Err: err}
	}
	data, err := s.sess.Binary.GetContentFromVirtualAddress(addr, size)
	if err != nil {
		return &CollaboratorError{Op: fmt.Sprintf("read %d bytes at %#x", size, addr), Err: err}
	}
	d := utils.Dumper(w, addr)
	if _, err := d.Write(data); err != nil {
		return err
	}
	return d.Close()
}
