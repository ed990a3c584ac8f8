package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"voiceagent/core"
	"voiceagent/intake"
	"voiceagent/persist"
	"voiceagent/postcall"
	"voiceagent/transports/twilio"
)

// Pipeline is the boundary to the external real-time audio pipeline
// (speech recognition, live model inference, speech synthesis, voice
// activity detection). Run blocks for the lifetime of the call, feeding
// recognized speech and tool calls into the session, and returns when the
// stream ends. Everything after Run (reconciliation and persistence) is
// owned by this package.
type Pipeline interface {
	Run(ctx context.Context, media *twilio.MediaStreamService, sess *Session) error
}

// PipelineFunc adapts a function to the Pipeline interface.
type PipelineFunc func(ctx context.Context, media *twilio.MediaStreamService, sess *Session) error

func (f PipelineFunc) Run(ctx context.Context, media *twilio.MediaStreamService, sess *Session) error {
	return f(ctx, media, sess)
}

// Session ties one call's state, LLM context and intake handlers together
// for the duration of a media stream connection, and runs the finish
// sequence exactly once when the call ends.
type Session struct {
	state      *intake.CallState
	context    *core.LLMContext
	manager    *intake.Manager
	reconciler *postcall.Reconciler
	dispatcher *persist.Dispatcher
	logger     *core.Logger

	finishOnce sync.Once
}

// New creates a session from the media stream's start parameters. A missing
// call SID gets a generated id so the call record is still keyed.
func New(params twilio.StartParams, reconciler *postcall.Reconciler, dispatcher *persist.Dispatcher, logger *core.Logger) *Session {
	callSid := params.CallSid
	if callSid == "" || callSid == "unknown" {
		callSid = uuid.NewString()
	}

	direction := intake.Direction(params.Direction)
	if direction != intake.DirectionOutbound {
		direction = intake.DirectionInbound
	}

	callerNumber := params.FromNumber
	if callerNumber == "" {
		callerNumber = "unknown"
	}

	state := intake.NewCallState(callSid, callerNumber, direction, intake.CallType(params.CallType), params.CallerName)

	llmContext := &core.LLMContext{Tools: intake.Tools()}
	llmContext.AddSystemMessage(intake.BuildSystemPrompt(direction, state.CallType, state.CallerName))

	return &Session{
		state:      state,
		context:    llmContext,
		manager:    intake.NewManager(state, llmContext, logger),
		reconciler: reconciler,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// State returns the call's accumulator.
func (s *Session) State() *intake.CallState {
	return s.state
}

// Context returns the live LLM context the pipeline should drive
// completions with.
func (s *Session) Context() *core.LLMContext {
	return s.context
}

// HandleToolCall dispatches a structured action from the live model and
// returns the next-turn directive for the model.
func (s *Session) HandleToolCall(call core.LLMToolCall) string {
	return s.manager.HandleToolCall(call)
}

// AddCallerTurn records recognized caller speech in both the transcript and
// the LLM context.
func (s *Session) AddCallerTurn(content string) {
	s.state.AddTurn(intake.TurnRoleCaller, content, nil)
	s.context.AddUserMessage(content)
}

// AddAgentTurn records a spoken agent utterance in both the transcript and
// the LLM context.
func (s *Session) AddAgentTurn(content string) {
	s.state.AddTurn(intake.TurnRoleAgent, content, nil)
	s.context.AddAssistantMessage(content)
}

// QueueGreeting appends the system instruction that makes the agent open
// the conversation. Called once, when the media stream connects.
func (s *Session) QueueGreeting() {
	s.context.AddSystemMessage("Please greet the caller now.")
}

// Finish runs reconciliation then persistence. Safe to call from both the
// disconnect path and the pipeline-ended path; only the first call does the
// work, and nothing in it propagates a failure.
func (s *Session) Finish(ctx context.Context) {
	s.finishOnce.Do(func() {
		if !s.state.IsComplete {
			s.logger.Info("call ended without completion, saving partial data")
		}
		s.reconciler.Reconcile(ctx, s.state, s.context.Messages)
		s.dispatcher.Save(ctx, s.state)
	})
}
