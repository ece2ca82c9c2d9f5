package shell

import "fmt"

// Table is an ordered set of commands keyed by exact, case sensitive name.
// Iteration order is registration order.
type Table struct {
	order []string
	cmds  map[string]Command
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{cmds: make(map[string]Command)}
}

// Register adds cmd to the table. Names are unique: registering a name twice
// returns a *DuplicateCommandError and leaves the table unchanged.
func (t *Table) Register(cmd Command) error {
	if _, ok := t.cmds[cmd.Name]; ok {
		return &DuplicateCommandError{Name: cmd.Name}
	}
	t.cmds[cmd.Name] = cmd
	t.order = append(t.order, cmd.Name)
	return nil
}

// MustRegister is like Register but panics on a duplicate. It is meant for
// the fixed tables built when a shell or info group is constructed.
func (t *Table) MustRegister(cmds ...Command) *Table {
	for _, cmd := range cmds {
		if err := t.Register(cmd); err != nil {
			panic(err)
		}
	}
	return t
}

// Lookup returns the command registered under name.
func (t *Table) Lookup(name string) (Command, error) {
	cmd, ok := t.cmds[name]
	if !ok {
		return Command{}, &NotFoundError{Kind: KindCommand, Name: name}
	}
	return cmd, nil
}

// Len returns the number of registered commands.
func (t *Table) Len() int {
	return len(t.order)
}

// Names returns the command names in registration order.
func (t *Table) Names() []string {
	return append([]string(nil), t.order...)
}

// Commands returns the commands in registration order.
func (t *Table) Commands() []Command {
	out := make([]Command, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.cmds[name])
	}
	return out
}

// Describe returns "name: description" lines in registration order.
func (t *Table) Describe() []string {
	out := make([]string, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, fmt.Sprintf("%s: %s", name, t.cmds[name].Description))
	}
	return out
}
