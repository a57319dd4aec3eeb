package httpapi

import (
	"context"
	"net/http"
)

// withTimeout derives a request-scoped context bounded by s.Timeout, or
// the bare request context when no timeout is configured.
func (s *Server) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	if s.Timeout <= 0 {
		return r.Context(), func() {}
	}
	return context.WithTimeout(r.Context(), s.Timeout)
}
