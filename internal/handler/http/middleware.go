package http

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/CodTeteu/luma-registry/pkg/httputil"
)

// HeaderSessionID identifies the guest browsing session. The frontend stores
// it client-side; the server only requires that one exists.
const HeaderSessionID = "X-Session-ID"

type contextKey string

const sessionIDKey contextKey = "session_id"

// ContentTypeJSON rejects write requests whose Content-Type is not JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && ct != "application/json" && ct != "application/json; charset=utf-8" {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// SessionID ensures every request carries a session identifier. When the
// header is absent a fresh UUID is generated; either way the value is echoed
// back so the frontend can persist it.
func SessionID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(HeaderSessionID)
		if sessionID == "" {
			sessionID = uuid.New().String()
		}
		w.Header().Set(HeaderSessionID, sessionID)
		ctx := context.WithValue(r.Context(), sessionIDKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionIDFromContext returns the session identifier set by the SessionID
// middleware.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}
