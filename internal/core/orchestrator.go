package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"emergency-profile-agent/internal/llm"
	"emergency-profile-agent/internal/modes"
	"emergency-profile-agent/internal/profile"
	"emergency-profile-agent/internal/rag"
)

// ProfileSource supplies the patient document for grounding. The document is
// borrowed per turn, never cached across turns.
type ProfileSource interface {
	Load() (*profile.Patient, error)
}

// TurnRequest carries one user question plus the knobs that shape the answer.
// Zero values fall back to configured defaults at the HTTP layer; here an
// empty ModeName selects the default mode.
type TurnRequest struct {
	Question         string
	ModeName         string
	RetrievalEnabled bool
	TopK             int
	Rerank           bool
	Temperature      float32
	Model            string
	Persona          string
}

// TurnResult is the completed answer and the passages actually used to ground
// it. Citations is empty (never nil) when the answer was not grounded.
type TurnResult struct {
	Answer    string
	Citations []rag.Passage
}

// Orchestrator resolves one conversation turn end to end: mode lookup,
// optional retrieval, prompt composition, completion, session bookkeeping.
// It is the only component that calls external services; retrieval and
// completion failures degrade the turn instead of failing it.
type Orchestrator struct {
	Profiles  ProfileSource
	Retriever rag.Retriever
	LLM       llm.Client
	Log       zerolog.Logger

	// CompletionTimeout bounds one completion call. Zero means no bound
	// beyond the caller's context.
	CompletionTimeout time.Duration
}

// NewOrchestrator wires the orchestrator with the profile source and its two
// gateways.
func NewOrchestrator(profiles ProfileSource, retriever rag.Retriever, client llm.Client, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{Profiles: profiles, Retriever: retriever, LLM: client, Log: log, CompletionTimeout: 60 * time.Second}
}

// HandleTurn answers the question in req within session s. Unknown mode names
// and session invariant violations propagate to the caller; everything that
// involves the network is caught and degraded. The returned answer is never
// empty.
func (o *Orchestrator) HandleTurn(ctx context.Context, s *Session, req TurnRequest) (TurnResult, error) {
	mode := modes.Default()
	if req.ModeName != "" {
		var err error
		mode, err = modes.Get(req.ModeName)
		if err != nil {
			return TurnResult{}, err
		}
	}
	if err := s.AppendUser(req.Question); err != nil {
		return TurnResult{}, err
	}

	passages := []rag.Passage{}
	if req.RetrievalEnabled && o.Retriever != nil {
		topK := req.TopK
		if topK < 1 {
			topK = 5
		}
		got, err := o.Retriever.Retrieve(ctx, req.Question, topK, req.Rerank)
		if err != nil {
			// Retrieval failure is never fatal to the turn: fall back to
			// the ungrounded prompt for this turn only.
			o.Log.Warn().Err(err).Msg("retrieval failed, answering without sources")
		} else {
			passages = got
		}
	}

	prompt := Compose(req.Question, mode, req.Persona, passages, req.RetrievalEnabled)
	prompt.System += o.profileFacts()

	answer, err := o.complete(ctx, prompt, req.Temperature, req.Model)
	if err != nil {
		o.Log.Error().Err(err).Msg("completion failed")
		answer = DegradedAnswer
	}
	if err := s.AppendAssistant(answer); err != nil {
		return TurnResult{}, err
	}
	o.Log.Info().Str("mode", mode.Name).Int("citations", len(passages)).Msg("turn completed")
	return TurnResult{Answer: answer, Citations: passages}, nil
}

// profileFacts renders the structured patient document as a system prompt
// block. A missing or malformed profile degrades to no block at all; the
// model is already told not to invent facts.
func (o *Orchestrator) profileFacts() string {
	if o.Profiles == nil {
		return ""
	}
	p, err := o.Profiles.Load()
	if err != nil {
		o.Log.Warn().Err(err).Msg("profile unavailable for grounding")
		return ""
	}
	facts, err := json.Marshal(p)
	if err != nil {
		o.Log.Warn().Err(err).Msg("profile encoding failed")
		return ""
	}
	return "\n\nPatient's structured profile:\n" + string(facts)
}

// complete calls the completion gateway under the configured timeout. The
// caller picks the fallback text when an error comes back.
func (o *Orchestrator) complete(ctx context.Context, prompt Prompt, temperature float32, model string) (string, error) {
	if o.CompletionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.CompletionTimeout)
		defer cancel()
	}
	return o.LLM.Complete(ctx, prompt.System, prompt.User, temperature, model)
}
