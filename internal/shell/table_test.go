package shell

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableRegister(t *testing.T) {
	tbl := NewTable()
	require.NoError(t, tbl.Register(WithArgs("b", "second", nil)))
	require.NoError(t, tbl.Register(WithArgs("a", "first", nil)))
	require.NoError(t, tbl.Register(WithArgs("A", "case sensitive", nil)))

	err := tbl.Register(WithArgs("a", "replacement", nil))
	var dup *DuplicateCommandError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "a", dup.Name)

	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, []string{"b", "a", "A"}, tbl.Names())
	assert.Equal(t, []string{"b: second", "a: first", "A: case sensitive"}, tbl.Describe())

	cmd, err := tbl.Lookup("a")
	require.NoError(t, err)
	assert.Equal(t, "first", cmd.Description, "duplicates never overwrite")
}

func TestTableNamesIsACopy(t *testing.T) {
	tbl := NewTable().MustRegister(WithArgs("x", "", nil))
	names := tbl.Names()
	names[0] = "y"
	assert.Equal(t, []string{"x"}, tbl.Names())
}

func TestTableMustRegisterPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewTable().MustRegister(WithArgs("x", "", nil), WithArgs("x", "", nil))
	})
}

func TestTableLookup(t *testing.T) {
	tbl := NewTable().MustRegister(WithArgs("help", "", nil))
	for _, name := range []string{"Help", "hel", "help ", ""} {
		_, err := tbl.Lookup(name)
		var nf *NotFoundError
		require.True(t, errors.As(err, &nf), name)
		assert.Equal(t, KindCommand, nf.Kind)
		assert.Equal(t, name, nf.Name)
	}
}

func TestCommandKinds(t *testing.T) {
	type target struct{ n int }
	tgt := &target{n: 42}

	var seen []string
	bound := Bound("b", "bound", tgt, func(w io.Writer, tg *target) error {
		_, err := fmt.Fprint(w, tg.n)
		return err
	})
	args := WithArgs("a", "args", func(w io.Writer, a []string) error {
		seen = a
		return nil
	})

	assert.Equal(t, BoundKind, bound.Kind())
	assert.Equal(t, ArgsKind, args.Kind())
	assert.Equal(t, "bound", bound.Kind().String())
	assert.Equal(t, "args", args.Kind().String())

	var buf bytesWriter
	require.NoError(t, bound.Invoke(&buf, []string{"ignored"}))
	assert.Equal(t, "42", string(buf))

	require.NoError(t, args.Invoke(io.Discard, []string{"x", "", "y"}))
	assert.Equal(t, []string{"x", "", "y"}, seen)

	var zero Command
	assert.Error(t, zero.Invoke(io.Discard, nil))
	assert.Equal(t, "unknown", zero.Kind().String())
}

type bytesWriter []byte

func (b *bytesWriter) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}

func TestErrors(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"usage", usage("dump [size] [virtual address]"), "Usage: dump [size] [virtual address]"},
		{"command", &NotFoundError{Kind: KindCommand, Name: "x"}, "Unknown command: 'x'. Type 'help' for available commands."},
		{"info", &NotFoundError{Kind: KindInfo, Name: "x"}, "Unknown argument supplied to info: x"},
		{"class", &NotFoundError{Kind: KindClass, Name: "X"}, "Unknown class 'X'. Run 'info classes' for a list of implemented classes."},
		{"selector", &NotFoundError{Kind: KindSelector, Name: "x"}, "Unknown selector 'x'. Run 'info methods' for a list of selectors."},
		{"parse", &ParseError{Input: "zz", Base: 16, Err: cause}, "Failed to interpret address: cause"},
		{"collaborator", &CollaboratorError{Op: "read", Err: cause}, "read: cause"},
		{"duplicate", &DuplicateCommandError{Name: "x"}, `command "x" is already registered`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.want)
		})
	}
	assert.ErrorIs(t, &ParseError{Err: cause}, cause)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", &CollaboratorError{Err: cause}), cause)
}
