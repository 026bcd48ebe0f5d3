package delivery

import (
	"sync"

	"github.com/jimezsa/ghostcli/internal/models"
)

// Surface names used by the built-in presentation surfaces.
const (
	SurfaceBadge  = "badge"
	SurfacePanel  = "panel"
	SurfaceStream = "stream"
)

// Surface presents results for one page session. Show may be called again
// for a job it already displays and must then update in place.
type Surface interface {
	Show(result models.AnalysisResult)
	Clear(jobURL string)
	Close()
}

// Hub tracks the live surfaces of every page session.
type Hub struct {
	mu      sync.Mutex
	origins map[string]map[string]Surface
}

func NewHub() *Hub {
	return &Hub{origins: map[string]map[string]Surface{}}
}

// Attach registers s under name for origin, closing any surface it replaces.
func (h *Hub) Attach(origin, name string, s Surface) {
	h.mu.Lock()
	surfaces, ok := h.origins[origin]
	if !ok {
		surfaces = map[string]Surface{}
		h.origins[origin] = surfaces
	}
	prev := surfaces[name]
	surfaces[name] = s
	h.mu.Unlock()

	if prev != nil && prev != s {
		prev.Close()
	}
}

// Detach closes and removes a surface. Unknown surfaces are ignored.
func (h *Hub) Detach(origin, name string) {
	h.mu.Lock()
	surfaces := h.origins[origin]
	s, ok := surfaces[name]
	if ok {
		delete(surfaces, name)
		if len(surfaces) == 0 {
			delete(h.origins, origin)
		}
	}
	h.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Release detaches name from origin only while it still refers to s.
func (h *Hub) Release(origin, name string, s Surface) {
	h.mu.Lock()
	surfaces := h.origins[origin]
	current, ok := surfaces[name]
	if ok && current == s {
		delete(surfaces, name)
		if len(surfaces) == 0 {
			delete(h.origins, origin)
		}
	}
	h.mu.Unlock()

	s.Close()
}

// Publish shows result on every surface of origin and reports how many
// surfaces received it.
func (h *Hub) Publish(origin string, result models.AnalysisResult) int {
	targets := h.snapshot(origin)
	for _, s := range targets {
		s.Show(result)
	}
	return len(targets)
}

// Clear removes the indicator for jobURL from every surface of origin.
func (h *Hub) Clear(origin, jobURL string) {
	for _, s := range h.snapshot(origin) {
		s.Clear(jobURL)
	}
}

// Surfaces reports how many surfaces origin has attached.
func (h *Hub) Surfaces(origin string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.origins[origin])
}

// Close detaches every surface of every origin.
func (h *Hub) Close() {
	h.mu.Lock()
	origins := h.origins
	h.origins = map[string]map[string]Surface{}
	h.mu.Unlock()

	for _, surfaces := range origins {
		for _, s := range surfaces {
			s.Close()
		}
	}
}

func (h *Hub) snapshot(origin string) []Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	surfaces := h.origins[origin]
	out := make([]Surface, 0, len(surfaces))
	for _, s := range surfaces {
		out = append(out, s)
	}
	return out
}
