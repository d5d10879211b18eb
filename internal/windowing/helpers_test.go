package windowing_test

import (
	"github.com/petasbytes/cybercog/internal/transcript"
	"github.com/petasbytes/cybercog/internal/windowing"
)

func User(text string) transcript.Turn { return transcript.UserTurn(text) }

func Asst(text string) transcript.Turn { return transcript.AssistantText(text) }

// AsstTools is an assistant turn requesting the given tool ids with empty
// names and arguments.
func AsstTools(ids ...string) transcript.Turn {
	u := transcript.Turn{Role: transcript.RoleAssistant}
	for _, id := range ids {
		u.Segments = append(u.Segments, transcript.ToolRequest{ID: id})
	}
	return u
}

func Result(id, payload string) transcript.Turn { return transcript.ToolTurn(id, payload) }

func groupsEqual(got, want []windowing.Group) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
