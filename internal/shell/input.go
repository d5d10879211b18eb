package shell

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/c-bata/go-prompt"

	"github.com/petasbytes/cybercog/memory"
)

const msgPaste = "system> Use mouse right-click to paste."

type lineReader interface {
	// ReadLine shows prefix and returns the next line, io.EOF at the end of
	// input, or ctx.Err() once ctx is done.
	ReadLine(ctx context.Context, prefix string) (string, error)
}

// scanReader reads lines from a non-terminal input.
type scanReader struct {
	lines chan string
	err   error
	print func(string)
}

func newScanReader(r io.Reader, print func(string)) *scanReader {
	sr := &scanReader{lines: make(chan string), print: print}
	go func() {
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			sr.lines <- sc.Text()
		}
		sr.err = sc.Err()
		close(sr.lines)
	}()
	return sr
}

func (r *scanReader) ReadLine(ctx context.Context, prefix string) (string, error) {
	r.print(prefix)
	select {
	case line, ok := <-r.lines:
		if !ok {
			if r.err != nil {
				return "", r.err
			}
			return "", io.EOF
		}
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

var commands = []prompt.Suggest{
	{Text: "exit", Description: "leave the shell"},
	{Text: "quit", Description: "leave the shell"},
}

func complete(d prompt.Document) []prompt.Suggest {
	before := d.TextBeforeCursor()
	if strings.TrimSpace(before) == "" || strings.ContainsAny(before, " \t") {
		return nil
	}
	return prompt.FilterHasPrefix(commands, d.GetWordBeforeCursor(), true)
}

// promptReader edits lines with go-prompt on a terminal.
type promptReader struct {
	history *memory.History
	notice  func(string)
}

func (r *promptReader) ReadLine(ctx context.Context, prefix string) (string, error) {
	var entries []string
	if r.history != nil {
		entries = r.history.Entries()
	}
	ch := make(chan string, 1)
	go func() {
		ch <- prompt.Input(prefix, complete,
			prompt.OptionTitle("cybercog"),
			prompt.OptionHistory(entries),
			prompt.OptionPrefixTextColor(prompt.Green),
			prompt.OptionAddKeyBind(prompt.KeyBind{
				Key: prompt.ControlV,
				Fn:  func(*prompt.Buffer) { r.notice("\n" + msgPaste) },
			}),
		)
	}()
	select {
	case line := <-ch:
		return line, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
