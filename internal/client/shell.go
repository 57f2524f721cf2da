package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Command describes one shell command accepted in a state
type Command struct {
	Name  string
	Usage string
	Help  string
	Args  int
	// Check validates the arguments before the command is accepted
	Check func(args []string) error
}

// Line is an accepted command with its arguments
type Line struct {
	Command string
	Args    []string
}

// Shell reads commands from the player and shows them output
type Shell interface {
	// Prompt blocks until the player enters one of commands. It returns
	// io.EOF when input ends and ctx.Err() when ctx is done.
	Prompt(ctx context.Context, label string, commands []Command) (Line, error)
	Printf(format string, args ...any)
}

// Terminal is a line-oriented Shell over a reader and a writer
type Terminal struct {
	mu    sync.Mutex
	out   io.Writer
	lines chan string
}

var _ Shell = (*Terminal)(nil)

// NewTerminal starts reading lines from in
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{
		out:   out,
		lines: make(chan string),
	}
	go t.scan(in)
	return t
}

func (t *Terminal) scan(in io.Reader) {
	defer close(t.lines)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		t.lines <- sc.Text()
	}
}

// Printf writes formatted output
func (t *Terminal) Printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

// Prompt reads lines until one is a valid command. Invalid input prints the
// reason and asks again; "help" lists the commands.
func (t *Terminal) Prompt(ctx context.Context, label string, commands []Command) (Line, error) {
	for {
		t.Printf("%s> ", label)

		var text string
		select {
		case <-ctx.Done():
			return Line{}, ctx.Err()
		case s, ok := <-t.lines:
			if !ok {
				return Line{}, io.EOF
			}
			text = s
		}

		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "help" {
			t.help(commands)
			continue
		}

		cmd, ok := findCommand(commands, fields[0])
		if !ok {
			t.Printf("unknown command %q, type help for a list\n", fields[0])
			continue
		}
		args := fields[1:]
		if len(args) != cmd.Args {
			t.Printf("usage: %s\n", cmd.Usage)
			continue
		}
		if cmd.Check != nil {
			if err := cmd.Check(args); err != nil {
				t.Printf("%v\nusage: %s\n", err, cmd.Usage)
				continue
			}
		}
		return Line{Command: cmd.Name, Args: args}, nil
	}
}

func (t *Terminal) help(commands []Command) {
	width := 0
	for _, c := range commands {
		width = max(width, len(c.Usage))
	}
	for _, c := range commands {
		t.Printf("  %-*s  %s\n", width, c.Usage, c.Help)
	}
}

func findCommand(commands []Command, name string) (Command, bool) {
	for _, c := range commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}
