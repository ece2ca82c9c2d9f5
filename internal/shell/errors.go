package shell

import "fmt"

// UsageError reports a command invoked with the wrong number or shape of
// arguments.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return e.Usage
}

func usage(format string, args ...any) *UsageError {
	return &UsageError{Usage: "Usage: " + fmt.Sprintf(format, args...)}
}

// NotFound kinds
const (
	KindCommand  = "command"
	KindInfo     = "info"
	KindClass    = "class"
	KindSelector = "selector"
)

// NotFoundError reports a command, class or selector name that does not exist.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case KindCommand:
		return fmt.Sprintf("Unknown command: '%s'. Type 'help' for available commands.", e.Name)
	case KindInfo:
		return fmt.Sprintf("Unknown argument supplied to info: %s", e.Name)
	case KindClass:
		return fmt.Sprintf("Unknown class '%s'. Run 'info classes' for a list of implemented classes.", e.Name)
	case KindSelector:
		return fmt.Sprintf("Unknown selector '%s'. Run 'info methods' for a list of selectors.", e.Name)
	default:
		return fmt.Sprintf("Unknown %s '%s'", e.Kind, e.Name)
	}
}

// ParseError reports a numeric argument that failed to parse. Usage is the
// line printed after the diagnostic.
type ParseError struct {
	Input string
	Base  int
	Usage string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Failed to interpret address: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CollaboratorError wraps a failure raised by the Binary, Analyzer or
// Disassembler while a command was running.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// DuplicateCommandError is returned when registering a name twice.
type DuplicateCommandError struct {
	Name string
}

func (e *DuplicateCommandError) Error() string {
	return fmt.Sprintf("command %q is already registered", e.Name)
}
