package history

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"bastion-hq/bastion/pkg/config"
	"bastion-hq/bastion/pkg/schema"
	"bastion-hq/bastion/pkg/validate"
)

// HashPayload returns the hex SHA-256 of payload, or "" for an empty payload.
func HashPayload(payload []byte) string {
	if len(payload) == 0 {
		return ""
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Outcome is the result of one validation, as handed to the recorder.
type Outcome struct {
	Schema   *schema.Schema
	Payload  []byte
	Errors   *validate.ErrorList
	Source   string
	Duration time.Duration
}

// NewRecord builds a history record from an outcome. A nil Errors list means
// the payload was valid.
func NewRecord(o Outcome) (*Record, error) {
	if o.Schema == nil {
		return nil, fmt.Errorf("outcome has no schema")
	}

	errs := o.Errors
	if errs == nil {
		errs = validate.NewErrorList()
	}
	wire, err := errs.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode validation errors: %w", err)
	}

	return &Record{
		ID:                uuid.New().String(),
		SchemaName:        o.Schema.Name,
		SchemaFingerprint: o.Schema.Fingerprint(),
		PayloadHash:       HashPayload(o.Payload),
		PayloadSize:       len(o.Payload),
		Valid:             !errs.HasErrors(),
		ErrorCount:        errs.Count(),
		Errors:            wire,
		Source:            o.Source,
		Duration:          o.Duration,
		RecordedAt:        time.Now().UTC(),
	}, nil
}

// RecorderStats counts what happened to recorded outcomes.
type RecorderStats struct {
	Queued  int64
	Written int64
	Failed  int64
	Dropped int64
}

// Recorder writes validation outcomes to storage in the background so that
// callers never wait on the database.
type Recorder struct {
	storage    Storage
	cfg        config.RecorderConfig
	recordChan chan *Record
	wg         sync.WaitGroup
	done       chan struct{}
	closeOnce  sync.Once
	logger     *slog.Logger

	queued  atomic.Int64
	written atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewRecorder starts a recorder draining into storage.
func NewRecorder(storage Storage, cfg config.RecorderConfig, logger *slog.Logger) *Recorder {
	if cfg.AsyncBuffer <= 0 {
		cfg.AsyncBuffer = config.DefaultHistoryRecorderAsyncBuffer
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultHistoryRecorderWriteTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Recorder{
		storage:    storage,
		cfg:        cfg,
		recordChan: make(chan *Record, cfg.AsyncBuffer),
		done:       make(chan struct{}),
		logger:     logger.With("component", "history.recorder"),
	}

	r.wg.Add(1)
	go r.worker()

	r.logger.Info("history recorder initialized",
		"async_buffer", cfg.AsyncBuffer,
		"write_timeout", cfg.WriteTimeout,
	)
	return r
}

// Record queues an outcome for writing. It returns immediately; if the queue
// stays full for WriteTimeout the record is dropped.
func (r *Recorder) Record(ctx context.Context, o Outcome) error {
	record, err := NewRecord(o)
	if err != nil {
		return NewRecorderError("", err)
	}
	return r.enqueue(ctx, record)
}

func (r *Recorder) enqueue(ctx context.Context, record *Record) error {
	select {
	case <-r.done:
		r.dropped.Add(1)
		return NewRecorderError(record.ID, context.Canceled)
	default:
	}

	timer := time.NewTimer(r.cfg.WriteTimeout)
	defer timer.Stop()

	select {
	case r.recordChan <- record:
		r.queued.Add(1)
		return nil
	case <-timer.C:
		r.dropped.Add(1)
		r.logger.Error("history queue full, dropping record",
			"record_id", record.ID,
			"schema", record.SchemaName,
			"queue_capacity", r.cfg.AsyncBuffer,
		)
		return NewRecorderError(record.ID, context.DeadlineExceeded)
	case <-ctx.Done():
		r.dropped.Add(1)
		return NewRecorderError(record.ID, ctx.Err())
	case <-r.done:
		r.dropped.Add(1)
		return NewRecorderError(record.ID, context.Canceled)
	}
}

// Stats returns a snapshot of the recorder counters.
func (r *Recorder) Stats() RecorderStats {
	return RecorderStats{
		Queued:  r.queued.Load(),
		Written: r.written.Load(),
		Failed:  r.failed.Load(),
		Dropped: r.dropped.Load(),
	}
}

// Close stops accepting records, writes everything still queued and returns.
// It is safe to call more than once. The storage is not closed.
func (r *Recorder) Close() error {
	r.closeOnce.Do(func() {
		r.logger.Info("shutting down history recorder")
		close(r.done)
		r.wg.Wait()
		r.logger.Info("history recorder shut down", "written", r.written.Load())
	})
	return nil
}

func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case record := <-r.recordChan:
			r.write(record)
		case <-r.done:
			for {
				select {
				case record := <-r.recordChan:
					r.write(record)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(record *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
	defer cancel()

	start := time.Now()
	if err := r.storage.Store(ctx, record); err != nil {
		r.failed.Add(1)
		r.logger.Error("failed to store history record",
			"record_id", record.ID,
			"schema", record.SchemaName,
			"error", err,
		)
		return
	}
	r.written.Add(1)

	duration := time.Since(start)
	r.logger.Debug("validation recorded",
		"record_id", record.ID,
		"schema", record.SchemaName,
		"valid", record.Valid,
		"duration_ms", duration.Milliseconds(),
	)
	if duration > r.cfg.WriteTimeout/2 {
		r.logger.Warn("slow history write",
			"record_id", record.ID,
			"duration_ms", duration.Milliseconds(),
		)
	}
}
