package postcall

import (
	"context"
	"strings"

	"voiceagent/core"
	"voiceagent/intake"
)

// Extractor is the completion surface the reconciler depends on.
// *Client satisfies it; tests substitute fakes.
type Extractor interface {
	Extract(ctx context.Context, transcript string, callType intake.CallType) (*Extraction, error)
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Reconciler backfills a call state after disconnect: transcript turns from
// the message history, intake data via post-call extraction, and a summary.
// Every step degrades silently; a call always reaches persistence no matter
// what fails in here.
type Reconciler struct {
	extractor Extractor
	logger    *core.Logger
}

// NewReconciler creates a reconciler around the given extraction client.
func NewReconciler(extractor Extractor, logger *core.Logger) *Reconciler {
	return &Reconciler{
		extractor: extractor,
		logger:    logger,
	}
}

// Reconcile runs the ordered backfill sequence over the finished call.
// It never returns an error and never panics past this boundary.
func (r *Reconciler) Reconcile(ctx context.Context, state *intake.CallState, messages []core.LLMMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.With(map[string]any{"panic": rec}).Error("reconciliation aborted")
		}
	}()

	r.backfillTurns(state, messages)
	r.backfillIntake(ctx, state)
	r.backfillSummary(ctx, state)
}

// backfillTurns reconstructs the turn sequence from the LLM message history
// when the live path recorded no turns. System and empty messages are
// skipped; numbering restarts at 1 with no gaps.
func (r *Reconciler) backfillTurns(state *intake.CallState, messages []core.LLMMessage) {
	if len(state.Turns) > 0 {
		return
	}
	for _, msg := range messages {
		if msg.Message == "" {
			continue
		}
		switch msg.Role {
		case core.LLMMessageRoleUser:
			state.AddTurn(intake.TurnRoleCaller, msg.Message, nil)
		case core.LLMMessageRoleAssistant:
			state.AddTurn(intake.TurnRoleAgent, msg.Message, nil)
		}
	}
	r.logger.Infof("extracted %d turns from context", len(state.Turns))
}

// backfillIntake runs post-call extraction when live function calling left
// the intake map empty (or all placeholders). A successful extraction
// replaces the intake map wholesale and fills in still-unset contact fields
// and call type. Failures leave the state untouched.
func (r *Reconciler) backfillIntake(ctx context.Context, state *intake.CallState) {
	if state.HasIntakeData() {
		return
	}

	transcript := state.Transcript()
	if strings.TrimSpace(transcript) == "" {
		return
	}

	r.logger.Info("intake data empty, running post-call extraction")

	callType := state.CallType
	if callType == "" {
		callType = intake.CallTypeUnknown
	}

	extraction, err := r.extractor.Extract(ctx, transcript, callType)
	if err != nil {
		r.logger.With(map[string]any{"error": err}).Error("post-call extraction failed")
		return
	}

	// Extraction is the authoritative fallback: replace, don't merge.
	state.IntakeData = extraction.Fields
	if state.IntakeData == nil {
		state.IntakeData = make(map[string]string)
	}
	if state.Summary == "" && extraction.Summary != "" {
		state.Summary = extraction.Summary
	}
	if state.CallerName == "" && extraction.CallerName != "" {
		state.CallerName = extraction.CallerName
	}
	if state.CallerEmail == "" && extraction.CallerEmail != "" {
		state.CallerEmail = extraction.CallerEmail
	}
	if state.CallerAddress == "" && extraction.CallerAddress != "" {
		state.CallerAddress = extraction.CallerAddress
	}
	if (state.CallType == "" || state.CallType == intake.CallTypeUnknown) && extraction.CallType != "" {
		state.CallType = extraction.CallType
	}

	r.logger.With(map[string]any{"fields": len(state.IntakeData)}).Info("post-call extraction complete")
}

// backfillSummary generates a summary when none was produced live and at
// least one turn exists. Failure leaves the summary unset.
func (r *Reconciler) backfillSummary(ctx context.Context, state *intake.CallState) {
	if state.Summary != "" || len(state.Turns) == 0 {
		return
	}
	summary, err := r.extractor.Summarize(ctx, state.Transcript())
	if err != nil {
		r.logger.With(map[string]any{"error": err}).Error("summary generation failed")
		return
	}
	state.Summary = summary
}
