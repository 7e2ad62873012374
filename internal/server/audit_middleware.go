package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/auth"
)

// routes whose request bodies carry credentials
var redactedRoutes = map[string]bool{
	"Login": true,
}

func (s *Server) auditLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := AuditLogEntry{
			Timestamp: start,
			Method:    r.Method,
			Path:      r.URL.Path,
			Handler:   routeName(r),
			UserID:    auth.UserIDFromContext(r.Context()),
			ProductID: mux.Vars(r)["id"],
		}

		skipRequestBody := strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") ||
			redactedRoutes[entry.Handler]
		if !skipRequestBody && r.Body != nil {
			requestBody, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(requestBody))
			entry.Request = capBody(requestBody)
		}

		rec := newAuditRecorder(w)
		next.ServeHTTP(rec, r)

		entry.StatusCode = rec.Status()
		entry.Duration = time.Since(start)
		if !redactedRoutes[entry.Handler] {
			entry.Response = rec.Body()
		}

		s.AuditManager.LogEntry(r.Context(), entry)
	})
}

func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil && route.GetName() != "" {
		return route.GetName()
	}
	return "unknown"
}
