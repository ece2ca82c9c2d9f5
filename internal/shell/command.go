package shell

import (
	"errors"
	"io"
)

// Kind is the shape of a command handler.
type Kind uint8

const (
	// BoundKind handlers take no arguments and run against the target they
	// were bound to at construction.
	BoundKind Kind = iota
	// ArgsKind handlers receive the raw argument tokens.
	ArgsKind
)

func (k Kind) String() string {
	switch k {
	case BoundKind:
		return "bound"
	case ArgsKind:
		return "args"
	default:
		return "unknown"
	}
}

type handler interface {
	kind() Kind
	invoke(w io.Writer, args []string) error
}

type boundHandler[T any] struct {
	target T
	fn     func(io.Writer, T) error
}

func (h boundHandler[T]) kind() Kind { return BoundKind }

func (h boundHandler[T]) invoke(w io.Writer, _ []string) error {
	return h.fn(w, h.target)
}

type argsHandler func(io.Writer, []string) error

func (h argsHandler) kind() Kind { return ArgsKind }

func (h argsHandler) invoke(w io.Writer, args []string) error {
	return h(w, args)
}

// Command is a named, described handler. Commands are values and are never
// modified once registered.
type Command struct {
	Name        string
	Description string

	handler handler
}

// Bound creates a command that renders fn against target.
func Bound[T any](name, description string, target T, fn func(io.Writer, T) error) Command {
	return Command{
		Name:        name,
		Description: description,
		handler:     boundHandler[T]{target: target, fn: fn},
	}
}

// WithArgs creates a command that receives the argument tokens.
func WithArgs(name, description string, fn func(io.Writer, []string) error) Command {
	return Command{
		Name:        name,
		Description: description,
		handler:     argsHandler(fn),
	}
}

// Kind returns the handler shape of the command.
func (c Command) Kind() Kind {
	if c.handler == nil {
		return Kind(0xff)
	}
	return c.handler.kind()
}

// Invoke runs the command. Bound commands never see args.
func (c Command) Invoke(w io.Writer, args []string) error {
	if c.handler == nil {
		return errors.New("shell: command " + c.Name + " has no handler")
	}
	return c.handler.invoke(w, args)
}
