package llm

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// auditSequence is a global counter to ensure unique audit keys even within the same nanosecond
var auditSequence uint64

// AuditLog represents a log entry for LLM operations
type AuditLog struct {
	ID        string    `json:"id"`
	Sequence  string    `json:"-"`
	Timestamp time.Time `json:"timestamp"`
	Mode      string    `json:"mode"`
	Operation string    `json:"operation"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	Duration  int64     `json:"duration_ms"`
	QueryText string    `json:"query_text,omitempty"`
}

// AuditLogger defines the interface for LLM audit logging
type AuditLogger interface {
	LogEmbed(mode interfaces.LLMMode, success bool, duration time.Duration, err error, queryText string) error
	LogChat(mode interfaces.LLMMode, success bool, duration time.Duration, err error, queryText string) error
	GetLogs(limit int) ([]AuditLog, error)
	ExportToJSON(w io.Writer) error
	Close() error
}

// sortAuditLogsAsc sorts audit logs in ascending order (oldest first)
func sortAuditLogsAsc(logs []AuditLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].Sequence != "" && logs[j].Sequence != "" {
			return logs[i].Sequence < logs[j].Sequence
		}
		return logs[i].Timestamp.Before(logs[j].Timestamp)
	})
}

// sortAuditLogsDesc sorts audit logs in descending order (newest first)
func sortAuditLogsDesc(logs []AuditLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].Sequence != "" && logs[j].Sequence != "" {
			return logs[i].Sequence > logs[j].Sequence
		}
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
}

// BadgerAuditLogger implements AuditLogger using the Badger key/value store
type BadgerAuditLogger struct {
	store      *badgerhold.Store
	logQueries bool
	logger     arbor.ILogger
}

// NewBadgerAuditLogger creates a new Badger-based audit logger
func NewBadgerAuditLogger(store *badgerhold.Store, logQueries bool, logger arbor.ILogger) *BadgerAuditLogger {
	return &BadgerAuditLogger{
		store:      store,
		logQueries: logQueries,
		logger:     logger,
	}
}

// LogEmbed logs an embedding operation
func (l *BadgerAuditLogger) LogEmbed(mode interfaces.LLMMode, success bool, duration time.Duration, err error, queryText string) error {
	return l.logOperation("embed", mode, success, duration, err, queryText)
}

// LogChat logs a chat operation
func (l *BadgerAuditLogger) LogChat(mode interfaces.LLMMode, success bool, duration time.Duration, err error, queryText string) error {
	return l.logOperation("chat", mode, success, duration, err, queryText)
}

// logOperation handles the common logic for logging operations
func (l *BadgerAuditLogger) logOperation(operation string, mode interfaces.LLMMode, success bool, duration time.Duration, opErr error, queryText string) error {
	modeStr := string(mode)
	durationMs := duration.Milliseconds()

	var errorMsg string
	if opErr != nil {
		errorMsg = opErr.Error()
	}

	var query string
	if l.logQueries {
		query = queryText
	}

	l.logger.Debug().
		Str("operation", operation).
		Str("mode", modeStr).
		Str("success", fmt.Sprintf("%v", success)).
		Int64("duration_ms", durationMs).
		Msg("Logging LLM operation")

	// Generate unique key using timestamp + atomic sequence counter
	// This ensures uniqueness even when multiple entries are written within the same nanosecond
	seq := atomic.AddUint64(&auditSequence, 1)
	now := time.Now()
	key := fmt.Sprintf("audit_%d_%d", now.UnixNano(), seq)

	entry := AuditLog{
		ID:        key,
		Timestamp: now,
		Mode:      modeStr,
		Operation: operation,
		Success:   success,
		Error:     errorMsg,
		Duration:  durationMs,
		QueryText: query,
	}

	// Set Sequence field for stable sorting - combines timestamp and sequence
	// Format: 19-digit nanosecond timestamp + underscore + 10-digit zero-padded sequence
	// This ensures lexicographic sorting matches chronological order
	entry.Sequence = fmt.Sprintf("%019d_%010d", now.UnixNano(), seq)

	if err := l.store.Insert(key, &entry); err != nil {
		l.logger.Error().
			Err(err).
			Str("operation", operation).
			Str("mode", modeStr).
			Msg("Failed to insert audit log entry")
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// GetLogs retrieves recent audit logs with the specified limit
func (l *BadgerAuditLogger) GetLogs(limit int) ([]AuditLog, error) {
	var logs []AuditLog
	// Operation is always set, so Ne("") matches every entry
	if err := l.store.Find(&logs, badgerhold.Where("Operation").Ne("")); err != nil {
		l.logger.Error().Err(err).Int("limit", limit).Msg("Failed to query audit logs")
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}

	// Sort in-memory (newest first) and apply limit after sorting
	sortAuditLogsDesc(logs)
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}

	l.logger.Debug().Int("count", len(logs)).Int("limit", limit).Msg("Retrieved audit logs")
	return logs, nil
}

// ExportToJSON exports all audit logs to JSON format
func (l *BadgerAuditLogger) ExportToJSON(w io.Writer) error {
	var logs []AuditLog
	if err := l.store.Find(&logs, badgerhold.Where("Operation").Ne("")); err != nil {
		l.logger.Error().Err(err).Msg("Failed to query audit logs for export")
		return fmt.Errorf("failed to query audit logs for export: %w", err)
	}

	// Export in chronological order (oldest first)
	sortAuditLogsAsc(logs)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(logs); err != nil {
		l.logger.Error().Err(err).Msg("Failed to encode audit logs to JSON")
		return fmt.Errorf("failed to encode audit logs to JSON: %w", err)
	}

	l.logger.Info().Int("count", len(logs)).Msg("Exported audit logs to JSON")
	return nil
}

// Close cleans up resources (no-op, the store is owned by the storage layer)
func (l *BadgerAuditLogger) Close() error {
	return nil
}

// NullAuditLogger is a no-op implementation of AuditLogger used when auditing is disabled
type NullAuditLogger struct{}

// NewNullAuditLogger creates a new null audit logger
func NewNullAuditLogger() *NullAuditLogger {
	return &NullAuditLogger{}
}

// LogEmbed does nothing (no-op)
func (l *NullAuditLogger) LogEmbed(mode interfaces.LLMMode, success bool, duration time.Duration, err error, queryText string) error {
	return nil
}

// LogChat does nothing (no-op)
func (l *NullAuditLogger) LogChat(mode interfaces.LLMMode, success bool, duration time.Duration, err error, queryText string) error {
	return nil
}

// GetLogs returns an empty slice (no-op)
func (l *NullAuditLogger) GetLogs(limit int) ([]AuditLog, error) {
	return []AuditLog{}, nil
}

// ExportToJSON writes empty JSON array (no-op)
func (l *NullAuditLogger) ExportToJSON(w io.Writer) error {
	_, err := w.Write([]byte("[]"))
	return err
}

// Close does nothing (no-op)
func (l *NullAuditLogger) Close() error {
	return nil
}
