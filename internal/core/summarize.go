package core

import (
	"context"
	"strings"

	"emergency-profile-agent/internal/modes"
)

// FallbackHandover is returned when the completion service cannot produce a
// handover note.
const FallbackHandover = "Handover summary is unavailable. Review the conversation transcript and the emergency view directly."

// SummarizeSession turns a finished (or in-progress) conversation into a
// clinician handover note using the clinician-summary mode. It reads the
// session log but does not append to it, so the pending-turn invariant is
// untouched. The completion runs under the same timeout as chat turns. On
// completion failure a fixed fallback note is returned; the call never fails.
func (o *Orchestrator) SummarizeSession(ctx context.Context, s *Session, temperature float32, model string) string {
	turns := s.Turns()
	if len(turns) == 0 {
		return FallbackHandover
	}
	mode, err := modes.Get("Clinician summary")
	if err != nil {
		// The registry is validated at init; reaching this means the
		// clinician mode was removed from the build.
		o.Log.Error().Err(err).Msg("clinician summary mode missing")
		return FallbackHandover
	}

	var b strings.Builder
	for _, t := range turns {
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	system := mode.Instructions + "\n\n" + SafetyDirectives
	user := "Summarise this conversation for a clinician handover. Note gaps and uncertainty.\n\n" +
		b.String() + "\nStyle hint: " + mode.StyleHint

	answer, err := o.complete(ctx, Prompt{System: system, User: user}, temperature, model)
	if err != nil {
		o.Log.Error().Err(err).Msg("handover summary failed")
		return FallbackHandover
	}
	return answer
}
