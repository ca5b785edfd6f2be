package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergency-profile-agent/internal/modes"
	"emergency-profile-agent/internal/rag"
)

func somePassages() []rag.Passage {
	return []rag.Passage{
		{CiteID: "[1]", Source: "/docs/handihaler_pil.pdf", SourceName: "handihaler_pil.pdf", ChunkID: 0, Text: "Open the dust cap.", Score: 0.91},
		{CiteID: "[2]", Source: "/docs/handihaler_pil.pdf", SourceName: "handihaler_pil.pdf", ChunkID: 3, Text: "Do not swallow capsules.", Score: 0.84},
	}
}

func TestCompose_GroundedBranch(t *testing.T) {
	mode := modes.Default()
	p := Compose("How do I use the HandiHaler?", mode, "", somePassages(), true)

	require.NotEmpty(t, p.System)
	require.NotEmpty(t, p.User)
	assert.Contains(t, p.System, mode.Instructions)
	assert.Contains(t, p.System, DefaultPersona)
	assert.Contains(t, p.System, SafetyDirectives)
	assert.Contains(t, p.User, "[1] Open the dust cap.")
	assert.Contains(t, p.User, "[2] Do not swallow capsules.")
	assert.Contains(t, p.User, CiteInstruction)
	assert.Contains(t, p.User, mode.StyleHint)
	assert.NotContains(t, p.User, NoSourcesNotice)
}

// Cite ids surfaced to the model must be exactly the ids used when rendering
// the citations panel.
func TestCompose_CiteIDsMatchPassages(t *testing.T) {
	passages := somePassages()
	p := Compose("q", modes.Default(), "", passages, true)
	for _, psg := range passages {
		assert.Contains(t, p.User, psg.CiteID+" "+psg.Text)
	}
}

func TestCompose_PassageTextNotTruncated(t *testing.T) {
	long := strings.Repeat("inhale deeply and hold your breath ", 40)
	p := Compose("q", modes.Default(), "", []rag.Passage{{CiteID: "[1]", Text: long}}, true)
	assert.Contains(t, p.User, long)
}

func TestCompose_FallbackBranches(t *testing.T) {
	cases := map[string]struct {
		passages []rag.Passage
		enabled  bool
	}{
		"retrieval disabled":      {somePassages(), false},
		"no passages":             {nil, true},
		"empty passages":          {[]rag.Passage{}, true},
		"disabled and no results": {nil, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			p := Compose("Where is the inhaler kept?", modes.Default(), "", tc.passages, tc.enabled)
			require.NotEmpty(t, p.System)
			require.NotEmpty(t, p.User)
			assert.Contains(t, p.User, NoSourcesNotice)
			assert.Contains(t, p.User, modes.Default().StyleHint)
		})
	}
}

func TestCompose_CustomPersona(t *testing.T) {
	p := Compose("q", modes.Default(), "You are a ship's doctor.", nil, false)
	assert.Contains(t, p.System, "You are a ship's doctor.")
	assert.NotContains(t, p.System, DefaultPersona)
}
