package app

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Prompter asks the user for input. Every method reports false when the user
// cancelled, and the calling workflow then does nothing.
type Prompter interface {
	Input(title, label, initial string) (string, bool)
	Select(title string, options []string, initial string) (string, bool)
	Confirm(title, text string) bool
}

// declineAll cancels every prompt.
type declineAll struct{}

func (declineAll) Input(string, string, string) (string, bool)    { return "", false }
func (declineAll) Select(string, []string, string) (string, bool) { return "", false }
func (declineAll) Confirm(string, string) bool                    { return false }

// LinePrompter prompts on a text terminal, one answer per line. An empty
// answer keeps the initial value; end of input cancels.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in *bufio.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: in, out: out}
}

func (p *LinePrompter) readLine() (string, bool) {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

func (p *LinePrompter) Input(title, label, initial string) (string, bool) {
	if initial != "" {
		fmt.Fprintf(p.out, "%s\n%s [%s]: ", title, label, initial)
	} else {
		fmt.Fprintf(p.out, "%s\n%s: ", title, label)
	}
	line, ok := p.readLine()
	if !ok {
		return "", false
	}
	if strings.TrimSpace(line) == "" {
		return initial, initial != ""
	}
	return line, true
}

// Select accepts either an option or its 1-based number.
func (p *LinePrompter) Select(title string, options []string, initial string) (string, bool) {
	fmt.Fprintln(p.out, title)
	for i, o := range options {
		mark := " "
		if o == initial {
			mark = "*"
		}
		fmt.Fprintf(p.out, "%s%2d) %s\n", mark, i+1, o)
	}
	fmt.Fprint(p.out, "> ")
	line, ok := p.readLine()
	if !ok {
		return "", false
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return initial, initial != ""
	}
	if n, err := strconv.Atoi(line); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], true
	}
	if slices.Contains(options, line) {
		return line, true
	}
	return "", false
}

func (p *LinePrompter) Confirm(title, text string) bool {
	fmt.Fprintf(p.out, "%s\n%s [y/N]: ", title, text)
	line, ok := p.readLine()
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// AutoConfirm accepts every confirmation and cancels every other prompt. The
// CLI uses it for --yes.
type AutoConfirm struct{}

func (AutoConfirm) Input(string, string, string) (string, bool)    { return "", false }
func (AutoConfirm) Select(string, []string, string) (string, bool) { return "", false }
func (AutoConfirm) Confirm(string, string) bool                    { return true }
