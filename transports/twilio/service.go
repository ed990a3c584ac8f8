package twilio

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zaf/g711"
)

// MediaMessage represents a message on Twilio's media stream websocket.
type MediaMessage struct {
	Event     string `json:"event"`
	StreamSid string `json:"streamSid,omitempty"`
	Sequence  string `json:"sequenceNumber,omitempty"`
	Media     struct {
		Track     string `json:"track"`
		Payload   string `json:"payload"`
		Timestamp string `json:"timestamp"`
	} `json:"media,omitempty"`
	Start struct {
		AccountSid       string            `json:"accountSid"`
		StreamSid        string            `json:"streamSid"`
		CallSid          string            `json:"callSid"`
		CustomParameters map[string]string `json:"customParameters"`
	} `json:"start,omitempty"`
}

// StartParams is the call metadata delivered out-of-band on the stream's
// start event: the TwiML <Parameter> tags plus the carrier identifiers.
type StartParams struct {
	CallSid    string
	StreamSid  string
	Direction  string
	CallType   string
	CallerName string
	FromNumber string
	ToNumber   string
}

// parseStartParams maps a start event onto StartParams.
func parseStartParams(msg *MediaMessage) StartParams {
	params := msg.Start.CustomParameters
	return StartParams{
		CallSid:    msg.Start.CallSid,
		StreamSid:  msg.Start.StreamSid,
		Direction:  params["direction"],
		CallType:   params["call_type"],
		CallerName: params["caller_name"],
		FromNumber: params["from_number"],
		ToNumber:   params["to_number"],
	}
}

// MediaStreamService wraps one Twilio media stream websocket connection.
// Inbound μ-law audio is decoded to linear PCM before being handed out;
// outbound PCM is μ-law encoded and framed back onto the stream.
type MediaStreamService struct {
	conn      *websocket.Conn
	config    *Config
	streamSid string
	callSid   string
	mu        sync.RWMutex
	connected bool
}

// NewMediaStreamService creates a service around an upgraded connection.
func NewMediaStreamService(conn *websocket.Conn, config *Config) *MediaStreamService {
	conn.SetReadLimit(config.MaxMessageSize)
	return &MediaStreamService{
		conn:      conn,
		config:    config,
		connected: true,
	}
}

// ReadStart consumes messages until the stream's start event arrives and
// returns its parameters. Media arriving before start is discarded.
func (t *MediaStreamService) ReadStart() (StartParams, error) {
	for {
		var msg MediaMessage
		if err := t.conn.ReadJSON(&msg); err != nil {
			return StartParams{}, fmt.Errorf("twilio: read start event: %w", err)
		}
		switch msg.Event {
		case "start":
			t.mu.Lock()
			t.streamSid = msg.Start.StreamSid
			t.callSid = msg.Start.CallSid
			t.mu.Unlock()
			return parseStartParams(&msg), nil
		case "stop":
			return StartParams{}, fmt.Errorf("twilio: stream stopped before start event")
		}
	}
}

// StartReceiving reads the media stream until it stops, decoding each μ-law
// frame to linear PCM on the output channel. Read errors other than a normal
// close are reported on errorChan. The connection is closed on return.
func (t *MediaStreamService) StartReceiving(outputChan chan<- []byte, errorChan chan<- error) {
	defer t.Close()

	for {
		var msg MediaMessage
		err := t.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				errorChan <- fmt.Errorf("twilio: websocket error: %w", err)
			}
			return
		}

		switch msg.Event {
		case "media":
			payload, err := base64.StdEncoding.DecodeString(msg.Media.Payload)
			if err != nil {
				continue
			}
			outputChan <- g711.DecodeUlaw(payload)
		case "stop":
			t.handleStopMessage()
			return
		}
	}
}

// SendAudio encodes linear PCM to μ-law and writes it as a media message.
func (t *MediaStreamService) SendAudio(pcm []byte) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.connected {
		return fmt.Errorf("twilio: media stream not connected")
	}

	message := map[string]interface{}{
		"event":     "media",
		"streamSid": t.streamSid,
		"media": map[string]interface{}{
			"payload":   base64.StdEncoding.EncodeToString(g711.EncodeUlaw(pcm)),
			"timestamp": time.Now().UnixMilli(),
		},
	}

	return t.conn.WriteJSON(message)
}

// Clear asks Twilio to drop any audio buffered for playback. Used when the
// caller barges in over the agent.
func (t *MediaStreamService) Clear() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if !t.connected {
		return fmt.Errorf("twilio: media stream not connected")
	}

	return t.conn.WriteJSON(map[string]interface{}{
		"event":     "clear",
		"streamSid": t.streamSid,
	})
}

// handleStopMessage processes the stop event from Twilio
func (t *MediaStreamService) handleStopMessage() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.connected = false
}

// Close closes the websocket connection.
func (t *MediaStreamService) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		return nil
	}

	t.connected = false
	return t.conn.Close()
}

// GetStreamSid returns the current stream SID
func (t *MediaStreamService) GetStreamSid() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.streamSid
}

// GetCallSid returns the current call SID
func (t *MediaStreamService) GetCallSid() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.callSid
}
