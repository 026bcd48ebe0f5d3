// Package delivery moves job signals and analysis results between page
// sessions, the coordinator and presentation surfaces.
package delivery

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jimezsa/ghostcli/internal/models"
)

type MessageType string

const (
	TypeAnalyzeJob     MessageType = "ANALYZE_JOB"
	TypeAnalysisResult MessageType = "ANALYSIS_RESULT"
	TypeClosedListing  MessageType = "CLOSED_LISTING"
	TypeCloseSidebar   MessageType = "CLOSE_SIDEBAR"
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrMalformed   = errors.New("malformed message")
)

// Envelope is the wire form of every message.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message is one of the typed messages below.
type Message interface {
	Type() MessageType
}

type AnalyzeJob struct {
	Signal models.JobSignal
}

type AnalysisResult struct {
	Result models.AnalysisResult
}

type ClosedListing struct {
	Result models.AnalysisResult
}

type CloseSidebar struct{}

func (AnalyzeJob) Type() MessageType     { return TypeAnalyzeJob }
func (AnalysisResult) Type() MessageType { return TypeAnalysisResult }
func (ClosedListing) Type() MessageType  { return TypeClosedListing }
func (CloseSidebar) Type() MessageType   { return TypeCloseSidebar }

// Encode wraps msg in an envelope.
func Encode(msg Message) ([]byte, error) {
	var payload any
	switch m := msg.(type) {
	case AnalyzeJob:
		payload = m.Signal
	case AnalysisResult:
		payload = m.Result
	case ClosedListing:
		payload = m.Result
	case CloseSidebar:
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, msg)
	}

	env := Envelope{Type: msg.Type()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// Decode parses an envelope. Unknown types return ErrUnknownType and bad
// payloads ErrMalformed; callers drop both.
func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Type {
	case TypeAnalyzeJob:
		var signal models.JobSignal
		if err := decodePayload(env.Payload, &signal); err != nil {
			return nil, err
		}
		if signal.URL == "" {
			return nil, fmt.Errorf("%w: signal without url", ErrMalformed)
		}
		if signal.Platform == "" {
			signal.Platform = models.PlatformUnknown
		}
		return AnalyzeJob{Signal: signal}, nil
	case TypeAnalysisResult, TypeClosedListing:
		var result models.AnalysisResult
		if err := decodePayload(env.Payload, &result); err != nil {
			return nil, err
		}
		if result.JobURL == "" {
			return nil, fmt.Errorf("%w: result without jobUrl", ErrMalformed)
		}
		if env.Type == TypeClosedListing {
			return ClosedListing{Result: result}, nil
		}
		return AnalysisResult{Result: result}, nil
	case TypeCloseSidebar:
		return CloseSidebar{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", ErrMalformed)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
