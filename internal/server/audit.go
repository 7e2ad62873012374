package server

import (
	"time"

	"go.uber.org/zap"
)

// AuditLogEntry records one listing, wishlist or login request.
type AuditLogEntry struct {
	Timestamp  time.Time
	Handler    string
	Method     string
	Path       string
	StatusCode int
	Duration   time.Duration
	UserID     string
	ProductID  string
	Request    string
	Response   string
}

func (e AuditLogEntry) fields() []zap.Field {
	return []zap.Field{
		zap.Time("timestamp", e.Timestamp),
		zap.String("handler", e.Handler),
		zap.String("method", e.Method),
		zap.String("path", e.Path),
		zap.Int("status_code", e.StatusCode),
		zap.Duration("duration", e.Duration),
		zap.String("user_id", e.UserID),
		zap.String("product_id", e.ProductID),
		zap.String("request", e.Request),
		zap.String("response", e.Response),
	}
}
