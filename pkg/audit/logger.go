// Package audit writes a JSON-lines trail of red-team activity. Every prompt
// sent to a target is an adversarial probe, so operators need a durable record
// of what was attempted, against which model, and with what outcome.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of audit event.
type EventType string

const (
	// Agent lifecycle
	EventAgentStart EventType = "agent_start"
	EventAgentStop  EventType = "agent_stop"

	// Scan lifecycle
	EventScanStarted     EventType = "scan_started"
	EventScanCompleted   EventType = "scan_completed"
	EventScanInterrupted EventType = "scan_interrupted"
	EventScanFailed      EventType = "scan_failed"

	// Per-case events
	EventAttackApplied   EventType = "attack_applied"
	EventAttackExhausted EventType = "attack_exhausted"
	EventCaseEvaluated   EventType = "case_evaluated"
	EventCaseUntested    EventType = "case_untested"
	EventCaseErrored     EventType = "case_errored"

	// Upload events
	EventUploadSucceeded EventType = "upload_succeeded"
	EventUploadFailed    EventType = "upload_failed"

	// Security events
	EventAuthFailed EventType = "auth_failed"
)

// Severity represents log severity level.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARN"
	SeverityError   Severity = "ERROR"
)

// Event is one line of the audit trail.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	Type      EventType              `json:"type"`
	Severity  Severity               `json:"severity"`
	AgentID   string                 `json:"agent_id,omitempty"`
	ScanID    string                 `json:"scan_id,omitempty"`
	CaseID    string                 `json:"case_id,omitempty"`
	Category  string                 `json:"category,omitempty"`
	Attack    string                 `json:"attack,omitempty"`
	Message   string                 `json:"message"`
	Error     string                 `json:"error,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// LoggerConfig configures the audit logger.
type LoggerConfig struct {
	// AgentID is included in every event.
	AgentID string

	// LogFile is the path to the audit log file.
	// Default: ~/.adversal/audit.log
	LogFile string

	// BufferSize is the number of events buffered before a flush.
	// Default: 100
	BufferSize int

	// FlushInterval is how often buffered events are flushed.
	// Default: 5 seconds
	FlushInterval time.Duration

	// Verbose echoes events to stdout.
	Verbose bool
}

// DefaultLoggerConfig returns sensible defaults.
func DefaultLoggerConfig() *LoggerConfig {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "/tmp"
	}
	return &LoggerConfig{
		LogFile:       filepath.Join(home, ".adversal", "audit.log"),
		BufferSize:    100,
		FlushInterval: 5 * time.Second,
	}
}

// Logger appends events to the audit file. Events are buffered and flushed
// on a timer, when the buffer fills, and on Stop.
type Logger struct {
	config *LoggerConfig
	file   *os.File
	mu     sync.Mutex

	buffer   []Event
	bufferMu sync.Mutex

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewLogger creates an audit logger, creating the log directory if needed.
func NewLogger(config *LoggerConfig) (*Logger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}
	if config.LogFile == "" {
		config.LogFile = DefaultLoggerConfig().LogFile
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 100
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = 5 * time.Second
	}

	dir := filepath.Dir(config.LogFile)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	file, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &Logger{
		config: config,
		file:   file,
		buffer: make([]Event, 0, config.BufferSize),
		stopCh: make(chan struct{}),
	}, nil
}

// Start begins background flushing.
func (l *Logger) Start() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.stopCh = make(chan struct{})
	l.mu.Unlock()

	l.wg.Add(1)
	go l.flushLoop()
}

// Stop stops the logger and flushes remaining events.
func (l *Logger) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	close(l.stopCh)
	l.mu.Unlock()

	l.wg.Wait()
	l.Flush()
	return l.file.Close()
}

// Log records an audit event.
func (l *Logger) Log(event Event) {
	event.Timestamp = time.Now()
	if event.AgentID == "" {
		event.AgentID = l.config.AgentID
	}

	l.bufferMu.Lock()
	l.buffer = append(l.buffer, event)
	shouldFlush := len(l.buffer) >= l.config.BufferSize
	l.bufferMu.Unlock()

	if l.config.Verbose {
		l.printEvent(event)
	}
	if shouldFlush {
		go l.Flush()
	}
}

// Info logs an informational event.
func (l *Logger) Info(eventType EventType, message string, details map[string]interface{}) {
	l.Log(Event{
		Type:     eventType,
		Severity: SeverityInfo,
		Message:  message,
		Details:  details,
	})
}

// Error logs an error event.
func (l *Logger) Error(eventType EventType, message string, err error, details map[string]interface{}) {
	event := Event{
		Type:     eventType,
		Severity: SeverityError,
		Message:  message,
		Details:  details,
	}
	if err != nil {
		event.Error = err.Error()
	}
	l.Log(event)
}

// ScanStarted logs the start of a scan run.
func (l *Logger) ScanStarted(scanID, targetModel string, categories, attacks []string) {
	l.Log(Event{
		Type:     EventScanStarted,
		Severity: SeverityInfo,
		ScanID:   scanID,
		Message:  fmt.Sprintf("Scan started against %s", targetModel),
		Details: map[string]interface{}{
			"target_model": targetModel,
			"categories":   categories,
			"attacks":      attacks,
		},
	})
}

// ScanCompleted logs the end of a scan run.
func (l *Logger) ScanCompleted(scanID string, cases int, overallScore float64, duration time.Duration) {
	l.Log(Event{
		Type:     EventScanCompleted,
		Severity: SeverityInfo,
		ScanID:   scanID,
		Message:  fmt.Sprintf("Scan completed: %d cases, overall score %.2f", cases, overallScore),
		Details: map[string]interface{}{
			"cases":         cases,
			"overall_score": overallScore,
			"duration_ms":   duration.Milliseconds(),
		},
	})
}

// CaseEvaluated logs a judged case. Low scores are warnings since they mean
// the target complied with an adversarial prompt.
func (l *Logger) CaseEvaluated(scanID, caseID, category, attack string, score float64) {
	severity := SeverityInfo
	if score < 0.5 {
		severity = SeverityWarning
	}
	l.Log(Event{
		Type:     EventCaseEvaluated,
		Severity: severity,
		ScanID:   scanID,
		CaseID:   caseID,
		Category: category,
		Attack:   attack,
		Message:  fmt.Sprintf("Case scored %.2f", score),
		Details:  map[string]interface{}{"score": score},
	})
}

// AttackExhausted logs a jailbreak search that ran out of budget.
func (l *Logger) AttackExhausted(scanID, caseID, attack string, iterations int) {
	l.Log(Event{
		Type:     EventAttackExhausted,
		Severity: SeverityWarning,
		ScanID:   scanID,
		CaseID:   caseID,
		Attack:   attack,
		Message:  fmt.Sprintf("Attack budget exhausted after %d iterations", iterations),
		Details:  map[string]interface{}{"iterations": iterations},
	})
}

// UploadResult logs the outcome of a report push.
func (l *Logger) UploadResult(scanID string, err error) {
	if err != nil {
		l.Log(Event{
			Type:     EventUploadFailed,
			Severity: SeverityError,
			ScanID:   scanID,
			Message:  "Report upload failed",
			Error:    err.Error(),
		})
		return
	}
	l.Log(Event{
		Type:     EventUploadSucceeded,
		Severity: SeverityInfo,
		ScanID:   scanID,
		Message:  "Report uploaded",
	})
}

// Flush writes buffered events to disk.
func (l *Logger) Flush() {
	l.bufferMu.Lock()
	if len(l.buffer) == 0 {
		l.bufferMu.Unlock()
		return
	}
	events := l.buffer
	l.buffer = make([]Event, 0, l.config.BufferSize)
	l.bufferMu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		_, _ = l.file.Write(data)
		_, _ = l.file.Write([]byte("\n"))
	}
	_ = l.file.Sync()
}

// flushLoop periodically flushes buffered events.
func (l *Logger) flushLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.Flush()
		}
	}
}

func (l *Logger) printEvent(event Event) {
	timestamp := event.Timestamp.Format("2006-01-02 15:04:05")
	fmt.Printf("[%s] [%s] %s: %s\n", timestamp, event.Severity, event.Type, event.Message)
	if event.Error != "" {
		fmt.Printf("  Error: %s\n", event.Error)
	}
}
