package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jimezsa/ghostcli/internal/delivery"
	"github.com/jimezsa/ghostcli/internal/models"
)

// events streams ANALYSIS_RESULT envelopes for one page session. With
// ?surface=panel the stream acts as the session's detail panel and ends
// on CLOSE_SIDEBAR.
func (s *Server) events(c *gin.Context) {
	origin := c.Param("origin")
	name := surfaceName(c)

	stream := delivery.NewStream()
	s.hub.Attach(origin, name, stream)
	defer s.hub.Release(origin, name, stream)

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	s.log.Debug().Str("origin", origin).Str("surface", name).Msg("stream attached")

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case result, ok := <-stream.Results():
			if !ok {
				return
			}
			if err := writeResult(c.Writer, result); err != nil {
				s.log.Debug().Err(err).Str("origin", origin).Msg("stream write failed")
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprintf(c.Writer, ": heartbeat %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
				return
			}
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}

func writeResult(w gin.ResponseWriter, result models.AnalysisResult) error {
	data, err := delivery.Encode(delivery.AnalysisResult{Result: result})
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", delivery.TypeAnalysisResult, data); err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	w.Flush()
	return nil
}
