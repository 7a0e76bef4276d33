package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"

	"github.com/coalesce-search/coalesce/pkg/types"
)

// LogRecord represents a single log entry for Parquet storage
type LogRecord struct {
	ID         string    `parquet:"id"`
	Timestamp  time.Time `parquet:"timestamp"`
	Level      string    `parquet:"level"`
	Message    string    `parquet:"message"`
	TenantID   string    `parquet:"tenant_id"`
	RequestID  string    `parquet:"request_id"`
	Attributes string    `parquet:"attributes"` // JSON string
}

// parquetSink is the buffer shared by a handler and everything derived
// from it via WithAttrs/WithGroup, so one Close flushes all of them.
type parquetSink struct {
	outputDir string
	mu        sync.Mutex
	buffer    []LogRecord
	batchSize int
}

// ParquetHandler is a slog.Handler that mirrors error-level records into
// Parquet files while passing every record to the next handler.
type ParquetHandler struct {
	next slog.Handler
	sink *parquetSink
}

// NewParquetHandler creates a new ParquetHandler writing under outputDir.
func NewParquetHandler(next slog.Handler, outputDir string) (*ParquetHandler, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	return &ParquetHandler{
		next: next,
		sink: &parquetSink{
			outputDir: outputDir,
			batchSize: 100,
			buffer:    make([]LogRecord, 0, 100),
		},
	}, nil
}

// Enabled implements slog.Handler
func (h *ParquetHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler
func (h *ParquetHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.next.Handle(ctx, r); err != nil {
		return err
	}

	// Only errors and above reach the parquet sink.
	if r.Level < slog.LevelError {
		return nil
	}

	var tenantID, requestID string
	if v, ok := ctx.Value(types.ContextKeyTenantID).(string); ok {
		tenantID = v
	}
	if v, ok := ctx.Value(types.ContextKeyRequestID).(string); ok {
		requestID = v
	}

	attrs := make(map[string]interface{})
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})
	attrsJSON, _ := json.Marshal(attrs)

	record := LogRecord{
		ID:         uuid.New().String(),
		Timestamp:  r.Time.UTC(),
		Level:      r.Level.String(),
		Message:    r.Message,
		TenantID:   tenantID,
		RequestID:  requestID,
		Attributes: string(attrsJSON),
	}

	s := h.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffer = append(s.buffer, record)
	if len(s.buffer) >= s.batchSize {
		return s.flush()
	}
	return nil
}

// Close flushes any buffered records, including records buffered through
// handlers derived with WithAttrs or WithGroup.
func (h *ParquetHandler) Close() error {
	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	return h.sink.flush()
}

// flush writes the current buffer to a new Parquet file.
// Caller must hold the lock.
func (s *parquetSink) flush() error {
	if len(s.buffer) == 0 {
		return nil
	}

	filename := fmt.Sprintf("errors_%s_%d.parquet", time.Now().Format("20060102_150405"), time.Now().UnixNano())
	path := filepath.Join(s.outputDir, filename)

	if err := parquet.WriteFile(path, s.buffer); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write telemetry parquet file: %v\n", err)
		return err
	}

	s.buffer = s.buffer[:0]
	return nil
}

// WithAttrs implements slog.Handler
func (h *ParquetHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ParquetHandler{
		next: h.next.WithAttrs(attrs),
		sink: h.sink,
	}
}

// WithGroup implements slog.Handler
func (h *ParquetHandler) WithGroup(name string) slog.Handler {
	return &ParquetHandler{
		next: h.next.WithGroup(name),
		sink: h.sink,
	}
}
