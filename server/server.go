package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"voiceagent/config"
	"voiceagent/core"
	"voiceagent/intake"
	"voiceagent/persist"
	"voiceagent/postcall"
	"voiceagent/session"
	"voiceagent/transports/twilio"
)

// Server exposes the service's HTTP surface: health check, inbound call
// webhook, dial-out endpoint and the media stream websocket.
type Server struct {
	config     config.Config
	callAPI    *twilio.CallAPI
	pipeline   session.Pipeline
	reconciler *postcall.Reconciler
	dispatcher *persist.Dispatcher
	upgrader   websocket.Upgrader
	logger     *core.Logger

	httpServer *http.Server
}

// New creates the server. The pipeline is the external real-time audio
// pipeline; when nil, media streams are drained so calls still reconcile
// and persist.
func New(cfg config.Config, pipeline session.Pipeline, reconciler *postcall.Reconciler, dispatcher *persist.Dispatcher, logger *core.Logger) *Server {
	return &Server{
		config:     cfg,
		callAPI:    twilio.NewCallAPI(cfg.TwilioConfig()),
		pipeline:   pipeline,
		reconciler: reconciler,
		dispatcher: dispatcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // Twilio connects from carrier infrastructure
			},
		},
		logger: logger,
	}
}

// Routes returns the request mux. Exposed for tests.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHealth)
	mux.HandleFunc("/twiml-incoming", s.handleIncoming)
	mux.HandleFunc("/dial-out", s.handleDialOut)
	mux.HandleFunc("/ws", s.handleMediaStream)
	return mux
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}
	s.logger.With(map[string]any{"addr": addr}).Info("voice agent listening")

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "voiceagent",
	})
}

// handleIncoming is the carrier webhook for inbound calls. It answers with
// the voice-control document that attaches the call to the media stream
// endpoint, tagged with direction and both phone numbers.
func (s *Server) handleIncoming(w http.ResponseWriter, r *http.Request) {
	wsURL, err := s.config.WebSocketURL()
	if err != nil {
		s.logger.With(map[string]any{"error": err}).Error("twiml-incoming not configured")
		writeTwiML(w, twilio.ApologyResponse("We're sorry, the voice agent is not available right now. Please try again later."))
		return
	}

	if err := r.ParseForm(); err != nil {
		writeTwiML(w, twilio.ApologyResponse("We're sorry, something went wrong. Please try again later."))
		return
	}
	callerNumber := formValue(r, "From")
	calledNumber := formValue(r, "To")
	callSid := formValue(r, "CallSid")

	s.logger.With(map[string]any{
		"from":     callerNumber,
		"to":       calledNumber,
		"call_sid": callSid,
	}).Info("inbound call")

	writeTwiML(w, twilio.StreamResponse(wsURL, []twilio.Parameter{
		{Name: "direction", Value: "inbound"},
		{Name: "from_number", Value: callerNumber},
		{Name: "to_number", Value: calledNumber},
	}))
}

// dialOutRequest is the JSON body of a dial-out request.
type dialOutRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	CallType    string `json:"callType"`
	CallerName  string `json:"callerName"`
}

// handleDialOut initiates an outbound call via the carrier. The supplied
// call type and caller name ride along as out-of-band stream parameters so
// the session starts pre-classified.
func (s *Server) handleDialOut(w http.ResponseWriter, r *http.Request) {
	var req dialOutRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}
	if req.PhoneNumber == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "phoneNumber is required"})
		return
	}

	twilioCfg := s.config.TwilioConfig()
	if !twilioCfg.HasCredentials() {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Twilio credentials not configured"})
		return
	}

	wsURL, err := s.config.WebSocketURL()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	callType := req.CallType
	if callType == "" {
		callType = string(intake.CallTypeUnknown)
	}

	doc := twilio.StreamResponse(wsURL, []twilio.Parameter{
		{Name: "call_type", Value: callType},
		{Name: "caller_name", Value: req.CallerName},
		{Name: "direction", Value: "outbound"},
		{Name: "from_number", Value: twilioCfg.PhoneNumber},
		{Name: "to_number", Value: req.PhoneNumber},
	})
	twiml, err := doc.Render()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	result, err := s.callAPI.CreateCall(r.Context(), req.PhoneNumber, twiml)
	if err != nil {
		s.logger.With(map[string]any{"error": err}).Error("dial-out failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	s.logger.With(map[string]any{
		"call_sid": result.Sid,
		"to":       req.PhoneNumber,
	}).Info("outbound call initiated")

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"callSid": result.Sid,
		"status":  result.Status,
	})
}

// handleMediaStream hosts one call: it upgrades the connection, waits for
// the stream's start parameters, builds the session and hands both to the
// pipeline. The finish sequence runs exactly once after the stream ends.
func (s *Server) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.With(map[string]any{"error": err}).Error("websocket upgrade failed")
		return
	}

	media := twilio.NewMediaStreamService(conn, s.config.TwilioConfig())
	defer media.Close()

	params, err := media.ReadStart()
	if err != nil {
		s.logger.With(map[string]any{"error": err}).Error("media stream ended before start")
		return
	}

	sessionLogger, logWriter := s.sessionLogger(params)
	if logWriter != nil {
		defer logWriter.Close()
	}
	sessionLogger.With(map[string]any{
		"stream_sid": params.StreamSid,
		"call_type":  params.CallType,
		"caller":     params.FromNumber,
	}).Info("media stream started")

	sess := session.New(params, s.reconciler, s.dispatcher, sessionLogger)
	sess.QueueGreeting()

	ctx := core.ContextWithSessionLogger(r.Context(), sessionLogger)
	if s.pipeline != nil {
		if err := s.pipeline.Run(ctx, media, sess); err != nil {
			sessionLogger.With(map[string]any{"error": err}).Error("pipeline ended with error")
		}
	} else {
		sessionLogger.Warn("no pipeline configured, draining media stream")
		drainMediaStream(media)
	}

	sess.Finish(ctx)
	sessionLogger.Info("media stream finished")
}

// sessionLogger builds the per-call logger, teeing into a call log file
// when a log directory is configured. The caller owns the returned writer.
func (s *Server) sessionLogger(params twilio.StartParams) (*core.Logger, *core.CallLogWriter) {
	logger := s.logger.With(map[string]any{"call_sid": params.CallSid})
	if s.config.CallLogDir == "" {
		return logger, nil
	}
	writer, err := core.NewCallLogWriter(s.config.CallLogDir, params.CallSid, params.Direction)
	if err != nil {
		logger.With(map[string]any{"error": err}).Warn("call log file unavailable")
		return logger, nil
	}
	return core.NewSessionLogger(logger, writer).With(map[string]any{"call_sid": params.CallSid}), writer
}

// drainMediaStream consumes audio until the stream stops so the carrier
// side does not stall.
func drainMediaStream(media *twilio.MediaStreamService) {
	audioChan := make(chan []byte, 64)
	errChan := make(chan error, 1)
	go func() {
		for range audioChan {
		}
	}()
	go func() {
		for range errChan {
		}
	}()
	media.StartReceiving(audioChan, errChan)
	close(audioChan)
	close(errChan)
}

func formValue(r *http.Request, key string) string {
	if v := r.PostFormValue(key); v != "" {
		return v
	}
	return "unknown"
}

func writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeTwiML(w http.ResponseWriter, doc *twilio.VoiceResponse) {
	body, err := doc.Render()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(body))
}
