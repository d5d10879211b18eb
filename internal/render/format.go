// Package render turns a model answer into terminal output.
package render

import (
	"regexp"
	"strings"
)

// Span classes produced by Format. A span from a <tag>..</tag> block
// carries the tag name as its class.
const (
	ClassPlain      = ""
	ClassCode       = "code"
	ClassInlineCode = "inline-code"
	ClassBold       = "bold"
	ClassMath       = "math"
	ClassHeader     = "header"
	ClassError      = "error"
)

const noResponse = "No response to format.\n"

type Span struct {
	Class string
	Text  string
}

type delimiter struct {
	start, end, class string
}

// Checked in this order; fenced code must come before inline code.
var delimiters = []delimiter{
	{"```", "```", ClassCode},
	{"`", "`", ClassInlineCode},
	{"**", "**", ClassBold},
	{`\(`, `\)`, ClassMath},
}

var (
	markup  = regexp.MustCompile("(?s)```.*?```|`.*?`|\\*\\*.*?\\*\\*|\\\\\\(.*?\\\\\\)|<[a-zA-Z]+>.*?</[a-zA-Z]+>")
	openTag = regexp.MustCompile(`^<([a-zA-Z]+)>`)
)

// Format splits text into classed spans. Code blocks keep their content
// verbatim; other delimited content is trimmed. Undelimited text is split
// into lines with blank lines dropped and the newlines kept. The result
// always ends with a newline.
func Format(text string) []Span {
	if strings.TrimSpace(text) == "" {
		return []Span{{Class: ClassError, Text: noResponse}}
	}

	var spans []Span
	last := 0
	for _, loc := range markup.FindAllStringIndex(text, -1) {
		spans = appendPlain(spans, text[last:loc[0]])
		spans = appendMarked(spans, text[loc[0]:loc[1]])
		last = loc[1]
	}
	spans = appendPlain(spans, text[last:])

	if n := len(spans); n == 0 || !strings.HasSuffix(spans[n-1].Text, "\n") {
		spans = append(spans, Span{Text: "\n"})
	}
	return spans
}

func appendMarked(spans []Span, part string) []Span {
	for _, d := range delimiters {
		if len(part) < len(d.start)+len(d.end) || !strings.HasPrefix(part, d.start) || !strings.HasSuffix(part, d.end) {
			continue
		}
		body := part[len(d.start) : len(part)-len(d.end)]
		if d.class != ClassCode {
			body = strings.TrimSpace(body)
		}
		return append(spans, Span{Class: d.class, Text: body})
	}

	if m := openTag.FindStringSubmatch(part); m != nil {
		if closing := "</" + m[1] + ">"; strings.HasSuffix(part, closing) {
			body := part[len(m[0]) : len(part)-len(closing)]
			return append(spans, Span{Class: m[1], Text: strings.TrimSpace(body)})
		}
	}
	// Mismatched tags are ordinary text.
	return appendPlain(spans, part)
}

func appendPlain(spans []Span, part string) []Span {
	if part == "" {
		return spans
	}
	lines := strings.Split(part, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			if strings.HasPrefix(line, "#") {
				spans = append(spans, Span{Class: ClassHeader, Text: strings.TrimSpace(strings.TrimLeft(line, "#"))})
			} else {
				spans = append(spans, Span{Text: strings.TrimRight(line, " \t\r")})
			}
		}
		if i < len(lines)-1 {
			spans = append(spans, Span{Text: "\n"})
		}
	}
	return spans
}
