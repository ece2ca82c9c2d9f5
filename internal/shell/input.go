package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// LineReader yields one line of user input per call. Implementations return
// io.EOF once input is exhausted.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

type completable interface {
	setCompleter(readline.AutoCompleter)
}

// NewLineReader returns a readline backed reader when in is a terminal and a
// plain line scanner otherwise, so scripts can be piped in.
func NewLineReader(in *os.File, out io.Writer, historyPath string) (LineReader, error) {
	if term.IsTerminal(int(in.Fd())) {
		return NewTerminalReader(historyPath)
	}
	return NewScanReader(in, out), nil
}

type terminalReader struct {
	rl *readline.Instance
}

// NewTerminalReader returns an interactive reader with line editing and a
// persistent history at historyPath (no history when empty).
func NewTerminalReader(historyPath string) (LineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		HistoryFile:     historyPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}
	return &terminalReader{rl: rl}, nil
}

func (r *terminalReader) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if err == readline.ErrInterrupt {
		// Ctrl-C clears the line
		return "", nil
	}
	return line, err
}

func (r *terminalReader) Close() error {
	return r.rl.Close()
}

func (r *terminalReader) setCompleter(c readline.AutoCompleter) {
	r.rl.Config.AutoComplete = c
}

type scanReader struct {
	r   *bufio.Reader
	out io.Writer
}

// NewScanReader reads lines of any length from r, echoing the prompt to out
// when out is not nil.
func NewScanReader(r io.Reader, out io.Writer) LineReader {
	return &scanReader{r: bufio.NewReader(r), out: out}
}

func (r *scanReader) ReadLine(prompt string) (string, error) {
	if r.out != nil {
		fmt.Fprint(r.out, prompt)
	}
	line, err := r.r.ReadString('\n')
	if err != nil && (err != io.EOF || len(line) == 0) {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

func (r *scanReader) Close() error {
	return nil
}

func (s *Shell) completer() readline.AutoCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range s.table.Names() {
		if name == "info" {
			var opts []readline.PrefixCompleterInterface
			for _, opt := range s.infoNames {
				opts = append(opts, readline.PcItem(opt))
			}
			items = append(items, readline.PcItem(name, opts...))
			continue
		}
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}
