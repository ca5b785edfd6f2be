package core

import (
	"fmt"
	"strings"

	"emergency-profile-agent/internal/modes"
	"emergency-profile-agent/internal/rag"
)

// Prompt is the system/user instruction pair sent to the completion service.
type Prompt struct {
	System string
	User   string
}

// Compose merges the mode policy, persona and question into a prompt pair.
//
// With retrieval enabled and passages present, the user prompt carries a
// context block of "{cite_id} {text}" lines and an instruction to cite with
// the bracketed ids. Passage text is never truncated here; shortening
// citations to a preview is a display concern. In every other case the user
// prompt states verbatim that no reliable sources were retrieved and asks for
// a brief, cautious answer. Compose never fails and both halves of the pair
// are always non-empty.
func Compose(question string, mode modes.Mode, persona string, passages []rag.Passage, retrievalEnabled bool) Prompt {
	if persona == "" {
		persona = DefaultPersona
	}
	system := mode.Instructions + "\n\n" + persona + "\n\n" + SafetyDirectives

	var user string
	if retrievalEnabled && len(passages) > 0 {
		blocks := make([]string, len(passages))
		for i, p := range passages {
			blocks[i] = p.CiteID + " " + p.Text
		}
		user = fmt.Sprintf(
			"Question: %s\n\n%s\n\n%s\n\nStyle hint: %s",
			question, CiteInstruction, strings.Join(blocks, "\n\n"), mode.StyleHint,
		)
	} else {
		user = fmt.Sprintf(
			"Question: %s\n\n%s Style hint: %s.",
			question, NoSourcesNotice, mode.StyleHint,
		)
	}
	return Prompt{System: system, User: user}
}
