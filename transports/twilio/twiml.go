package twilio

import (
	"encoding/xml"
	"fmt"
)

// TwiML voice-response document types. Only the verbs this service emits are
// modeled: attaching a bidirectional media stream with out-of-band
// parameters, and the spoken-apology fallback.

// Parameter is an out-of-band key/value passed to the media stream's start
// event as a custom parameter.
type Parameter struct {
	XMLName xml.Name `xml:"Parameter"`
	Name    string   `xml:"name,attr"`
	Value   string   `xml:"value,attr"`
}

// Stream attaches a bidirectional audio stream to a websocket URL.
type Stream struct {
	XMLName    xml.Name    `xml:"Stream"`
	URL        string      `xml:"url,attr"`
	Parameters []Parameter `xml:"Parameter"`
}

// Connect wraps a Stream verb.
type Connect struct {
	XMLName xml.Name `xml:"Connect"`
	Stream  *Stream  `xml:"Stream"`
}

// Say speaks text to the caller.
type Say struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

// Pause keeps the call leg open for the given number of seconds.
type Pause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr"`
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// VoiceResponse is the root TwiML document. Verbs render in field order,
// which covers both documents this service produces (Say+Hangup and
// Connect+Pause).
type VoiceResponse struct {
	XMLName xml.Name `xml:"Response"`
	Say     *Say     `xml:"Say,omitempty"`
	Connect *Connect `xml:"Connect,omitempty"`
	Pause   *Pause   `xml:"Pause,omitempty"`
	Hangup  *Hangup  `xml:"Hangup,omitempty"`
}

// Render serializes the document with the XML declaration Twilio expects.
func (r *VoiceResponse) Render() (string, error) {
	data, err := xml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("twilio: render twiml: %w", err)
	}
	return xml.Header + string(data), nil
}

// StreamResponse builds the voice-control document that connects a call to
// the media stream endpoint, tagging the stream with the given out-of-band
// parameters. The trailing pause keeps the leg open while the stream runs.
func StreamResponse(wsURL string, params []Parameter) *VoiceResponse {
	return &VoiceResponse{
		Connect: &Connect{
			Stream: &Stream{
				URL:        wsURL,
				Parameters: params,
			},
		},
		Pause: &Pause{Length: 300},
	}
}

// ApologyResponse builds the spoken fallback used when the service cannot
// attach a media stream (e.g. missing configuration).
func ApologyResponse(text string) *VoiceResponse {
	return &VoiceResponse{
		Say:    &Say{Voice: "Polly.Joanna", Text: text},
		Hangup: &Hangup{},
	}
}
