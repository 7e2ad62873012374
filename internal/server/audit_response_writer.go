package server

import (
	"net/http"
)

// maxAuditBody bounds how much of a request or response body is kept in an
// audit entry.
const maxAuditBody = 4 << 10

const truncatedMark = "...(truncated)"

// auditRecorder passes the response through and keeps the status and the
// first maxAuditBody bytes of the body.
type auditRecorder struct {
	http.ResponseWriter
	status    int
	body      []byte
	truncated bool
}

func newAuditRecorder(w http.ResponseWriter) *auditRecorder {
	return &auditRecorder{ResponseWriter: w}
}

func (r *auditRecorder) WriteHeader(status int) {
	if r.status != 0 {
		return
	}
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *auditRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.WriteHeader(http.StatusOK)
	}
	r.body, r.truncated = appendCapped(r.body, b, r.truncated)
	return r.ResponseWriter.Write(b)
}

func (r *auditRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func (r *auditRecorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

func (r *auditRecorder) Body() string {
	if r.truncated {
		return string(r.body) + truncatedMark
	}
	return string(r.body)
}

func appendCapped(dst, b []byte, truncated bool) ([]byte, bool) {
	if truncated {
		return dst, true
	}
	room := maxAuditBody - len(dst)
	if len(b) > room {
		return append(dst, b[:room]...), true
	}
	return append(dst, b...), false
}

func capBody(b []byte) string {
	kept, truncated := appendCapped(nil, b, false)
	if truncated {
		return string(kept) + truncatedMark
	}
	return string(kept)
}
