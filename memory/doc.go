// Package memory keeps the shell's input history on disk.
//
// The file format is the one written by prompt_toolkit's FileHistory, so an
// existing history file keeps working:
//
//	# 2024-05-01 10:00:00.000000
//	+first line of the entry
//	+second line of the entry
//
// Only entered lines are stored. Conversation turns live in memory for the
// session and are never written here.
package memory
