// Package metrics derives size figures from query text and transcripts for
// diagnostics and telemetry.
package metrics

import (
	"strings"
	"unicode/utf8"

	"github.com/petasbytes/cybercog/internal/transcript"
)

// Features are local counts over one string.
type Features struct {
	Bytes int
	Runes int
	Words int
	Lines int
}

// CountFeatures splits words on Unicode whitespace. An empty string has zero
// lines; otherwise lines is one plus the number of '\n'.
func CountFeatures(s string) Features {
	f := Features{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
	}
	if s != "" {
		f.Lines = 1 + strings.Count(s, "\n")
	}
	return f
}

// TranscriptStats summarises a transcript for the query-start log record.
type TranscriptStats struct {
	Turns        int
	Chars        int
	ToolRequests int
	ToolResults  int
}

func Summarize(t transcript.Transcript) TranscriptStats {
	st := TranscriptStats{Turns: len(t), Chars: t.Chars()}
	for _, turn := range t {
		for _, seg := range turn.Segments {
			switch seg.(type) {
			case transcript.ToolRequest:
				st.ToolRequests++
			case transcript.ToolResult:
				st.ToolResults++
			}
		}
	}
	return st
}
