package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AuditManager batches audit entries and writes each batch to the logger
// from a small worker pool.
type AuditManager struct {
	logger      *zap.Logger
	workerCount int
	batchSize   int
	timeout     time.Duration

	inputChan  chan AuditLogEntry
	batchChan  chan []AuditLogEntry
	shutdownCh chan struct{}
	once       sync.Once

	// closed is set once the aggregator stops reading inputChan. Senders hold
	// the read lock so none can slip in after the final drain.
	closeMu sync.RWMutex
	closed  bool

	wg           sync.WaitGroup
	pendingMu    sync.Mutex
	pendingCount int
}

func NewAuditManager(logger *zap.Logger, workerCount, batchSize int, timeout time.Duration) *AuditManager {
	return &AuditManager{
		logger:      logger.Named("audit"),
		workerCount: workerCount,
		batchSize:   batchSize,
		timeout:     timeout,
		inputChan:   make(chan AuditLogEntry, workerCount*batchSize*2),
		batchChan:   make(chan []AuditLogEntry, workerCount*2),
		shutdownCh:  make(chan struct{}),
	}
}

func (m *AuditManager) Shutdown(ctx context.Context) {
	m.once.Do(func() {
		m.logger.Info("Initiating AuditManager shutdown")
		close(m.shutdownCh)

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			m.logger.Info("AuditManager shutdown completed")
		case <-ctx.Done():
			m.logger.Warn("AuditManager shutdown interrupted")
		}
	})
}

func (m *AuditManager) monitorShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
		m.logger.Debug("Context cancellation detected")
		m.Shutdown(context.Background())
	case <-m.shutdownCh:
	}
}

func (m *AuditManager) Start(ctx context.Context) {
	m.logger.Info("Starting AuditManager", zap.Int("workers", m.workerCount))
	m.wg.Add(1)
	go m.runAggregator(ctx)

	for i := 0; i < m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(i)
	}

	go m.monitorShutdown(ctx)
}

func (m *AuditManager) LogEntry(ctx context.Context, entry AuditLogEntry) {
	m.updatePendingCount(1)

	select {
	case <-m.shutdownCh:
		m.emergencyLog(entry)
		return
	case <-ctx.Done():
		m.emergencyLog(entry)
		return
	default:
	}

	m.closeMu.RLock()
	defer m.closeMu.RUnlock()
	if m.closed {
		m.emergencyLog(entry)
		return
	}

	// a full queue never blocks the request
	select {
	case m.inputChan <- entry:
	default:
		m.emergencyLog(entry)
	}
}

// Pending reports entries accepted but not yet handed to a worker.
func (m *AuditManager) Pending() int {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	return m.pendingCount
}

func (m *AuditManager) runAggregator(ctx context.Context) {
	defer m.wg.Done()
	m.logger.Debug("Aggregator started")

	var (
		batch    []AuditLogEntry
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		m.closeMu.Lock()
		m.closed = true
		m.closeMu.Unlock()

		// flush what is already queued
	drain:
		for {
			select {
			case entry := <-m.inputChan:
				batch = append(batch, entry)
			default:
				break drain
			}
		}
		if len(batch) > 0 {
			m.dispatchBatch(batch)
		}
		close(m.batchChan)
	}()

	for {
		select {
		case entry := <-m.inputChan:
			batch = append(batch, entry)
			if len(batch) >= m.batchSize {
				m.dispatchBatch(batch)
				batch = nil
				timeoutC = nil
			} else if len(batch) == 1 {
				timer = time.NewTimer(m.timeout)
				timeoutC = timer.C
			}

		case <-timeoutC:
			m.dispatchBatch(batch)
			batch = nil
			timeoutC = nil

		case <-ctx.Done():
			return

		case <-m.shutdownCh:
			return
		}
	}
}

func (m *AuditManager) dispatchBatch(batch []AuditLogEntry) {
	batchCopy := make([]AuditLogEntry, len(batch))
	copy(batchCopy, batch)

	select {
	case m.batchChan <- batchCopy:
	default:
		m.writeBatch(-1, batchCopy)
	}
	m.updatePendingCount(-len(batch))
}

func (m *AuditManager) runWorker(id int) {
	defer m.wg.Done()
	m.logger.Debug("Worker started", zap.Int("worker", id))

	for batch := range m.batchChan {
		m.writeBatch(id, batch)
	}
	m.logger.Debug("Worker exiting", zap.Int("worker", id))
}

func (m *AuditManager) emergencyLog(entry AuditLogEntry) {
	m.logger.Warn("audit entry written directly", entry.fields()...)
	m.updatePendingCount(-1)
}

func (m *AuditManager) writeBatch(workerID int, batch []AuditLogEntry) {
	source := "direct"
	if workerID >= 0 {
		source = fmt.Sprintf("worker-%d", workerID)
	}

	for _, entry := range batch {
		m.logger.Info("audit", append(entry.fields(), zap.String("source", source))...)
	}
}

func (m *AuditManager) updatePendingCount(delta int) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	m.pendingCount += delta
}
