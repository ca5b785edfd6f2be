package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emergency-profile-agent/internal/modes"
	"emergency-profile-agent/internal/profile"
	"emergency-profile-agent/internal/rag"
)

// fakeLLM records the composed prompts and replies with a canned answer, or
// with whatever answerFn derives from them.
type fakeLLM struct {
	system   string
	user     string
	answer   string
	answerFn func(system, user string) string
	err      error
}

func (f *fakeLLM) Complete(_ context.Context, system, user string, _ float32, _ string) (string, error) {
	f.system, f.user = system, user
	if f.err != nil {
		return "", f.err
	}
	if f.answerFn != nil {
		return f.answerFn(system, user), nil
	}
	return f.answer, nil
}

type fakeRetriever struct {
	passages []rag.Passage
	err      error
	calls    int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, _ int, _ bool) ([]rag.Passage, error) {
	f.calls++
	return f.passages, f.err
}

type fixedProfiles struct{ p *profile.Patient }

func (f fixedProfiles) Load() (*profile.Patient, error) {
	if f.p == nil {
		return nil, profile.ErrMalformedProfile
	}
	return f.p, nil
}

func newTestOrchestrator(llmc *fakeLLM, r rag.Retriever) *Orchestrator {
	o := NewOrchestrator(fixedProfiles{p: profile.DefaultPatient()}, r, llmc, zerolog.Nop())
	return o
}

// Retrieval disabled: the answer still surfaces the storage location from the
// profile fixture, and the citations list is empty.
func TestHandleTurn_StorageLocationWithoutRetrieval(t *testing.T) {
	llmc := &fakeLLM{answerFn: func(system, _ string) string {
		// The gateway can only echo facts it was actually given.
		if strings.Contains(system, "Handbag, front pouch") {
			return "The inhaler is kept in the **Handbag, front pouch**."
		}
		return "I don't know."
	}}
	o := newTestOrchestrator(llmc, &fakeRetriever{})
	s := NewSession()

	res, err := o.HandleTurn(context.Background(), s, TurnRequest{
		Question:         "Where is the inhaler kept?",
		ModeName:         "Emergency guidance",
		RetrievalEnabled: false,
	})
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "Handbag, front pouch")
	assert.Empty(t, res.Citations)
	assert.NotNil(t, res.Citations)
	assert.Contains(t, llmc.user, NoSourcesNotice)
	assert.Empty(t, s.Pending())
}

func TestHandleTurn_UnknownModePropagates(t *testing.T) {
	o := newTestOrchestrator(&fakeLLM{answer: "ok"}, &fakeRetriever{})
	s := NewSession()
	_, err := o.HandleTurn(context.Background(), s, TurnRequest{Question: "q", ModeName: "Nope"})
	require.ErrorIs(t, err, modes.ErrUnknownMode)
	// The failed turn must not leave a pending user turn behind.
	assert.Empty(t, s.Pending())
}

func TestHandleTurn_RetrievalFailureIsNotFatal(t *testing.T) {
	llmc := &fakeLLM{answer: "cautious answer"}
	retr := &fakeRetriever{err: errors.New("transport error")}
	o := newTestOrchestrator(llmc, retr)
	s := NewSession()

	res, err := o.HandleTurn(context.Background(), s, TurnRequest{
		Question:         "How do I use the HandiHaler?",
		RetrievalEnabled: true,
		TopK:             5,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, retr.calls)
	assert.NotEmpty(t, res.Answer)
	assert.Empty(t, res.Citations)
	assert.Contains(t, llmc.user, NoSourcesNotice)
}

func TestHandleTurn_GroundedCitationsReturned(t *testing.T) {
	passages := []rag.Passage{
		{CiteID: "[1]", SourceName: "pil.pdf", Text: "Pierce the capsule once.", Score: 0.9},
		{CiteID: "[2]", SourceName: "pil.pdf", Text: "Do not swallow capsules.", Score: 0.8},
	}
	llmc := &fakeLLM{answer: "Pierce the capsule once [1]."}
	o := newTestOrchestrator(llmc, &fakeRetriever{passages: passages})
	s := NewSession()

	res, err := o.HandleTurn(context.Background(), s, TurnRequest{
		Question:         "How do I use it?",
		RetrievalEnabled: true,
	})
	require.NoError(t, err)
	assert.Equal(t, passages, res.Citations)
	assert.Contains(t, llmc.user, "[1] Pierce the capsule once.")
	assert.Contains(t, llmc.user, "[2] Do not swallow capsules.")
}

func TestHandleTurn_CompletionFailureReturnsDegradedAnswer(t *testing.T) {
	for name, llmErr := range map[string]error{
		"missing credential": errors.New("llm: API key not set"),
		"transport":          errors.New("connection refused"),
		"empty response":     errors.New("llm: empty model response"),
	} {
		t.Run(name, func(t *testing.T) {
			o := newTestOrchestrator(&fakeLLM{err: llmErr}, &fakeRetriever{})
			s := NewSession()
			res, err := o.HandleTurn(context.Background(), s, TurnRequest{Question: "q"})
			require.NoError(t, err)
			assert.Equal(t, DegradedAnswer, res.Answer)
			// The degraded answer still closes the turn.
			assert.Empty(t, s.Pending())
		})
	}
}

func TestHandleTurn_MalformedProfileStillAnswers(t *testing.T) {
	llmc := &fakeLLM{answer: "answer without profile facts"}
	o := NewOrchestrator(fixedProfiles{}, &fakeRetriever{}, llmc, zerolog.Nop())
	s := NewSession()
	res, err := o.HandleTurn(context.Background(), s, TurnRequest{Question: "q"})
	require.NoError(t, err)
	assert.Equal(t, "answer without profile facts", res.Answer)
	assert.NotContains(t, llmc.system, "Patient's structured profile")
}

func TestSummarizeSession(t *testing.T) {
	llmc := &fakeLLM{answer: "Asthma patient, one inhaler, no red flags."}
	o := newTestOrchestrator(llmc, &fakeRetriever{})
	s := NewSession()
	require.NoError(t, s.AppendUser("Where is the inhaler kept?"))
	require.NoError(t, s.AppendAssistant("Handbag, front pouch."))

	got := o.SummarizeSession(context.Background(), s, 0.2, "")
	assert.Equal(t, "Asthma patient, one inhaler, no red flags.", got)
	assert.Contains(t, llmc.user, "user: Where is the inhaler kept?")
	assert.Contains(t, llmc.user, "assistant: Handbag, front pouch.")
}

// deadlineLLM records whether the completion call arrived with a deadline.
type deadlineLLM struct {
	hasDeadline bool
}

func (d *deadlineLLM) Complete(ctx context.Context, _, _ string, _ float32, _ string) (string, error) {
	_, d.hasDeadline = ctx.Deadline()
	return "note", nil
}

// The handover summary runs under the same completion deadline as chat turns.
func TestSummarizeSession_UsesCompletionTimeout(t *testing.T) {
	llmc := &deadlineLLM{}
	o := NewOrchestrator(fixedProfiles{p: profile.DefaultPatient()}, &fakeRetriever{}, llmc, zerolog.Nop())
	s := NewSession()
	require.NoError(t, s.AppendUser("q"))
	require.NoError(t, s.AppendAssistant("a"))

	assert.Equal(t, "note", o.SummarizeSession(context.Background(), s, 0, ""))
	assert.True(t, llmc.hasDeadline)
}

func TestSummarizeSession_EmptyOrFailing(t *testing.T) {
	o := newTestOrchestrator(&fakeLLM{answer: "unused"}, &fakeRetriever{})
	assert.Equal(t, FallbackHandover, o.SummarizeSession(context.Background(), NewSession(), 0, ""))

	failing := newTestOrchestrator(&fakeLLM{err: errors.New("down")}, &fakeRetriever{})
	s := NewSession()
	require.NoError(t, s.AppendUser("q"))
	require.NoError(t, s.AppendAssistant("a"))
	assert.Equal(t, FallbackHandover, failing.SummarizeSession(context.Background(), s, 0, ""))
}
