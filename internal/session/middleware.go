package session

import (
	"log/slog"
	"net/http"

	"github.com/innkeep/innkeep/internal/platform/httpx"
)

type commitWriter struct {
	http.ResponseWriter
	holder        *Holder
	manager       *Manager
	req           *http.Request
	headerWritten bool
}

func (w *commitWriter) WriteHeader(statusCode int) {
	if !w.headerWritten {
		w.headerWritten = true
		w.manager.Commit(w.ResponseWriter, w.req, w.holder)
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *commitWriter) Write(data []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *commitWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Middleware loads the request's Holder into the context and writes the
// session cookie just before the response header goes out.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		holder, err := m.Load(ctx, r)
		if err != nil {
			m.logger.Error("failed to load session", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Internal Server Error", "Session could not be loaded")
			return
		}
		req := r.WithContext(ContextWithHolder(ctx, holder))
		wrapped := &commitWriter{ResponseWriter: w, holder: holder, manager: m, req: req}
		next.ServeHTTP(wrapped, req)
		if !wrapped.headerWritten {
			wrapped.WriteHeader(http.StatusOK)
		}
	})
}
