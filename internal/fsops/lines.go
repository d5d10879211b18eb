package fsops

import (
	"bufio"
	"errors"
	"io"
	"os"
	"unicode/utf8"
)

// Page is a window of lines from a file. Lines are split on "\n" the way
// strings.Split does, so a trailing newline yields a final empty line.
type Page struct {
	Lines []string
	// More is set when the file continues past the window, a line was cut
	// or the rune cap stopped the read.
	More bool
}

// ReadLines returns up to limit lines starting at line offset. Lines are cut
// to maxLineRunes runes and reading stops once the joined window exceeds
// maxRunes, so only the needed part of the file is read.
func (s *Sandbox) ReadLines(relPath string, offset, limit, maxLineRunes, maxRunes int) (Page, error) {
	absPath, err := s.readable(relPath)
	if err != nil {
		return Page{}, err
	}
	f, err := os.Open(absPath)
	if err != nil {
		return Page{}, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	maxLineBytes := maxLineRunes * utf8.UTFMax
	var p Page
	runes := -1 // no separator before the first line
	for idx := 0; ; idx++ {
		line, cut, eof, err := readLine(br, maxLineBytes)
		if err != nil {
			return Page{}, err
		}
		if idx >= offset+limit {
			p.More = true
			break
		}
		if idx >= offset {
			if n := utf8.RuneCountInString(line); n > maxLineRunes {
				line = string([]rune(line)[:maxLineRunes])
				cut = true
			}
			p.Lines = append(p.Lines, line)
			p.More = p.More || cut
			runes += utf8.RuneCountInString(line) + 1
			if runes > maxRunes {
				p.More = true
				break
			}
		}
		if eof {
			break
		}
	}
	return p, nil
}

// readLine returns the next line without its "\n", keeping at most maxBytes
// bytes; the rest of an overlong line is consumed and dropped.
func readLine(br *bufio.Reader, maxBytes int) (line string, cut, eof bool, err error) {
	var b []byte
	total := 0
	for {
		chunk, err := br.ReadSlice('\n')
		ended := err == nil
		if ended {
			chunk = chunk[:len(chunk)-1]
		}
		total += len(chunk)
		if room := maxBytes - len(b); room > 0 {
			b = append(b, chunk[:min(len(chunk), room)]...)
		}
		switch {
		case ended:
			return string(b), total > maxBytes, false, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return string(b), total > maxBytes, true, nil
		default:
			return "", false, false, err
		}
	}
}
