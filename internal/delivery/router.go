package delivery

import (
	"context"
	"errors"

	"github.com/jimezsa/ghostcli/internal/models"
	"github.com/rs/zerolog"
)

// Analyzer is the coordinator side of the channel.
type Analyzer interface {
	Analyze(ctx context.Context, signal models.JobSignal, origin string) models.AnalysisResult
	RecordClosed(ctx context.Context, result models.AnalysisResult)
}

// Router dispatches decoded messages from page sessions.
type Router struct {
	analyzer Analyzer
	hub      *Hub
	log      zerolog.Logger
}

func NewRouter(analyzer Analyzer, hub *Hub, logger zerolog.Logger) *Router {
	return &Router{
		analyzer: analyzer,
		hub:      hub,
		log:      logger.With().Str("component", "delivery").Logger(),
	}
}

// Handle decodes data from origin and acts on it. The returned message is
// the reply to send back, or nil when there is none. Malformed and unknown
// messages are logged and dropped.
func (r *Router) Handle(ctx context.Context, origin string, data []byte) Message {
	msg, err := Decode(data)
	if err != nil {
		if errors.Is(err, ErrUnknownType) {
			r.log.Debug().Str("origin", origin).Err(err).Msg("ignoring message")
		} else {
			r.log.Debug().Str("origin", origin).Err(err).Msg("dropping malformed message")
		}
		return nil
	}
	return r.Dispatch(ctx, origin, msg)
}

// Dispatch acts on an already decoded message.
func (r *Router) Dispatch(ctx context.Context, origin string, msg Message) Message {
	switch m := msg.(type) {
	case AnalyzeJob:
		result := r.analyzer.Analyze(ctx, m.Signal, origin)
		return AnalysisResult{Result: result}
	case ClosedListing:
		r.analyzer.RecordClosed(ctx, m.Result)
	case CloseSidebar:
		r.hub.Detach(origin, SurfacePanel)
	case AnalysisResult:
		r.hub.Publish(origin, m.Result)
	}
	return nil
}
