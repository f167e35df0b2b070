package logging

import (
	"sync"
	"time"
)

// LogEntry represents a single log record with structured data.
type LogEntry struct {
	Time       time.Time              `json:"time"`
	Level      string                 `json:"level"` // "DEBUG", "INFO", "WARN", "ERROR"
	Message    string                 `json:"message"`
	Attributes map[string]interface{} `json:"attributes"` // Structured fields
}

// LogCollector provides thread-safe storage for per-operation logs.
type LogCollector struct {
	mu    sync.RWMutex
	limit int
	logs  map[string][]LogEntry // operation -> log entries
}

// NewLogCollector creates a new LogCollector keeping at most limit entries per
// operation, oldest dropped first. A limit of 0 keeps everything.
func NewLogCollector(limit int) *LogCollector {
	return &LogCollector{
		limit: limit,
		logs:  make(map[string][]LogEntry),
	}
}

// AddLog adds a log entry for the specified operation (thread-safe).
func (c *LogCollector) AddLog(operation string, entry LogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	logs := append(c.logs[operation], entry)
	if c.limit > 0 && len(logs) > c.limit {
		logs = append([]LogEntry(nil), logs[len(logs)-c.limit:]...)
	}
	c.logs[operation] = logs
}

// GetLogs retrieves all log entries for a specific operation (thread-safe).
func (c *LogCollector) GetLogs(operation string) []LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	logs, exists := c.logs[operation]
	if !exists {
		return nil
	}

	result := make([]LogEntry, len(logs))
	copy(result, logs)
	return result
}

// Take returns and forgets the entries for operation.
func (c *LogCollector) Take(operation string) []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	logs := c.logs[operation]
	delete(c.logs, operation)
	return logs
}

// GetAllLogs returns a copy of all logs grouped by operation (thread-safe).
func (c *LogCollector) GetAllLogs() map[string][]LogEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string][]LogEntry, len(c.logs))
	for operation, logs := range c.logs {
		logsCopy := make([]LogEntry, len(logs))
		copy(logsCopy, logs)
		result[operation] = logsCopy
	}

	return result
}

// Clear resets the log collector, removing all stored logs (thread-safe).
func (c *LogCollector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logs = make(map[string][]LogEntry)
}
