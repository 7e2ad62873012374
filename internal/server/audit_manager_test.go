package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"gitlab.ozon.dev/pupkingeorgij/rentwear/internal/storage"
)

func auditEntries(logs *observer.ObservedLogs) []observer.LoggedEntry {
	return logs.Filter(func(e observer.LoggedEntry) bool {
		return e.LoggerName == "audit"
	}).FilterMessage("audit").All()
}

func TestAuditManager_FlushesOnShutdown(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewAuditManager(zap.New(core), 2, 5, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	for i := 0; i < 3; i++ {
		m.LogEntry(ctx, AuditLogEntry{Handler: "DeleteProduct", ProductID: "L3"})
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	m.Shutdown(shutdownCtx)

	entries := auditEntries(logs)
	require.Len(t, entries, 3)
	assert.Equal(t, "DeleteProduct", entries[0].ContextMap()["handler"])
	assert.Zero(t, m.Pending())
}

func TestAuditManager_FullBatchIsWritten(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewAuditManager(zap.New(core), 1, 2, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	m.LogEntry(ctx, AuditLogEntry{Handler: "CreateProduct"})
	m.LogEntry(ctx, AuditLogEntry{Handler: "UpdateProduct"})

	assert.Eventually(t, func() bool {
		return len(auditEntries(logs)) == 2
	}, 2*time.Second, 10*time.Millisecond)

	m.Shutdown(context.Background())
}

func TestAuditManager_AfterShutdown(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewAuditManager(zap.New(core), 1, 2, time.Hour)
	m.Start(context.Background())
	m.Shutdown(context.Background())

	m.LogEntry(context.Background(), AuditLogEntry{Handler: "Login"})

	assert.Equal(t, 1, logs.FilterMessage("audit entry written directly").Len())
	assert.Zero(t, m.Pending())
}

func TestAuditManager_NoEntryLostAcrossShutdown(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m := NewAuditManager(zap.New(core), 2, 4, time.Millisecond)
	m.Start(context.Background())

	const senders, perSender = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				m.LogEntry(context.Background(), AuditLogEntry{Handler: "ToggleWishlist"})
			}
		}()
	}

	time.Sleep(time.Millisecond)
	m.Shutdown(context.Background())
	wg.Wait()

	written := len(auditEntries(logs)) + logs.FilterMessage("audit entry written directly").Len()
	assert.Equal(t, senders*perSender, written)
	assert.Zero(t, m.Pending())
}

func TestAuditLogMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ts := newTestServer(t)
	ts.AuditManager = NewAuditManager(zap.New(core), 1, 10, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ts.AuditManager.Start(ctx)

	ts.tokens.EXPECT().Verify("good").Return("user-1", nil)
	ts.storage.EXPECT().UpdateProduct(gomock.Any(), "user-1", "L1", gomock.Any()).
		Return(nil, &storage.DenialError{Reason: storage.ReasonActiveRentals})
	ts.users.EXPECT().ValidateUser(gomock.Any(), "ann@example.com", "secret").Return("", storage.ErrInvalidCredentials)

	update := httptest.NewRequest(http.MethodPut, "/products/L1", strings.NewReader(`{"title":"New"}`))
	update.Header.Set("Content-Type", "application/json")
	update.Header.Set("Authorization", "Bearer good")
	ts.Handler().ServeHTTP(httptest.NewRecorder(), update)

	login := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ann@example.com","password":"secret"}`))
	login.Header.Set("Content-Type", "application/json")
	ts.Handler().ServeHTTP(httptest.NewRecorder(), login)

	ts.AuditManager.Shutdown(context.Background())

	entries := auditEntries(logs)
	require.Len(t, entries, 2)

	updateEntry := entries[0].ContextMap()
	assert.Equal(t, "UpdateProduct", updateEntry["handler"])
	assert.Equal(t, "user-1", updateEntry["user_id"])
	assert.Equal(t, "L1", updateEntry["product_id"])
	assert.Equal(t, int64(http.StatusConflict), updateEntry["status_code"])
	assert.Equal(t, `{"title":"New"}`, updateEntry["request"])

	loginEntry := entries[1].ContextMap()
	assert.Equal(t, "Login", loginEntry["handler"])
	assert.Empty(t, loginEntry["request"])
	assert.Empty(t, loginEntry["response"])
}
