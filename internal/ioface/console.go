package ioface

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ConsoleChannel is a minimal line-oriented Channel used when the full
// terminal UI (out of scope for the core interpreter) is not wired in —
// the CLI uses it outside agent mode. It optionally appends every
// non-empty line typed at a UserInput prompt to a history file using the
// ASCII record separator (0x1E) convention.
type ConsoleChannel struct {
	out         io.Writer
	in          *bufio.Reader
	historyFile *os.File
}

func NewConsoleChannel(in io.Reader, out io.Writer, historyPath string) (*ConsoleChannel, error) {
	c := &ConsoleChannel{out: out, in: bufio.NewReader(in)}
	if historyPath != "" {
		f, err := os.OpenFile(historyPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		c.historyFile = f
	}
	return c, nil
}

func (c *ConsoleChannel) Print(text string) { fmt.Fprint(c.out, text) }

func (c *ConsoleChannel) Clear() { fmt.Fprint(c.out, "\033[2J\033[H") }

func (c *ConsoleChannel) UserInput(ctx context.Context, prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprintln(c.out, prompt)
	}
	line, err := c.readLine(ctx)
	if err != nil {
		return "", err
	}
	c.appendHistory(line)
	return line, nil
}

func (c *ConsoleChannel) UserChoice(ctx context.Context, description string, choices []string) (int, error) {
	if description != "" {
		fmt.Fprintln(c.out, description)
	}
	for i, choice := range choices {
		fmt.Fprintf(c.out, "%d. %s\n", i+1, choice)
	}
	if len(choices) == 0 {
		fmt.Fprintln(c.out, "(press enter to continue)")
		if _, err := c.readLine(ctx); err != nil {
			return -1, err
		}
		return -1, nil
	}
	for {
		line, err := c.readLine(ctx)
		if err != nil {
			return -1, err
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr == nil && n >= 1 && n <= len(choices) {
			return n - 1, nil
		}
		fmt.Fprintln(c.out, "invalid choice, try again")
	}
}

func (c *ConsoleChannel) ShowInserts(ctx context.Context, pretty string) error {
	fmt.Fprintln(c.out, pretty)
	fmt.Fprintln(c.out, "(press enter to continue)")
	_, err := c.readLine(ctx)
	return err
}

func (c *ConsoleChannel) PollMenu() MenuAction { return MenuNone }

func (c *ConsoleChannel) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		ch <- result{strings.TrimRight(line, "\r\n"), err}
	}()
	select {
	case <-ctx.Done():
		return "", ErrCancelled
	case r := <-ch:
		if r.err != nil && r.err != io.EOF {
			return "", r.err
		}
		return r.line, nil
	}
}

// historyRecordSeparator is ASCII RS (0x1E), per the interactive input
// history file convention.
const historyRecordSeparator = "\x1e"

func (c *ConsoleChannel) appendHistory(line string) {
	if c.historyFile == nil || line == "" {
		return
	}
	fmt.Fprint(c.historyFile, line+historyRecordSeparator)
}

func (c *ConsoleChannel) Close() error {
	if c.historyFile != nil {
		return c.historyFile.Close()
	}
	return nil
}
