// File: internal/trace/trace.go
package trace

import (
	"io"
	"sync"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/xkilldash9x/uipilot/internal/config"
)

// Event is one agent step as written to the trace file.
type Event struct {
	RunID             string   `json:"run_id,omitempty"`
	TimestampMS       int64    `json:"timestamp_ms"`
	Step              uint64   `json:"step"`
	AgentState        string   `json:"agent_state"`
	Signals           []string `json:"signals"`
	Decision          string   `json:"decision,omitempty"`
	Action            string   `json:"action,omitempty"`
	Confidence        *float64 `json:"confidence,omitempty"`
	SuppressionReason string   `json:"suppression_reason,omitempty"`
}

// NewEvent stamps an event with the current time.
func NewEvent(step uint64, agentState string, signals []string) Event {
	if signals == nil {
		signals = []string{}
	}
	return Event{
		TimestampMS: time.Now().UnixMilli(),
		Step:        step,
		AgentState:  agentState,
		Signals:     signals,
	}
}

func (e Event) WithDecision(decision string) Event {
	e.Decision = decision
	return e
}

func (e Event) WithAction(action string) Event {
	e.Action = action
	return e
}

func (e Event) WithConfidence(confidence float64) Event {
	e.Confidence = &confidence
	return e
}

func (e Event) WithSuppression(reason string) Event {
	e.SuppressionReason = reason
	return e
}

// Logger appends events as JSON lines. It is safe for concurrent use.
// Write failures are logged and never returned.
type Logger struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	runID  string
	logger *zap.Logger
}

// NewLogger writes to cfg.Path, rotating the file with lumberjack. An empty
// path disables tracing.
func NewLogger(cfg config.TraceConfig, logger *zap.Logger) *Logger {
	if cfg.Path == "" {
		logger.Warn("Trace path is empty, step trace disabled")
		return Nop()
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
	}
	return &Logger{w: rotator, closer: rotator, logger: logger.Named("trace")}
}

// NewWriterLogger writes to an arbitrary writer. The caller owns w.
func NewWriterLogger(w io.Writer, logger *zap.Logger) *Logger {
	return &Logger{w: w, logger: logger.Named("trace")}
}

// Nop returns a logger that discards every event.
func Nop() *Logger {
	return &Logger{logger: zap.NewNop()}
}

// SetRunID stamps subsequent events with runID.
func (l *Logger) SetRunID(runID string) {
	l.mu.Lock()
	l.runID = runID
	l.mu.Unlock()
}

// Record appends one event.
func (l *Logger) Record(event Event) {
	if l == nil || l.w == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.RunID == "" {
		event.RunID = l.runID
	}
	line, err := json.Marshal(event)
	if err != nil {
		l.logger.Warn("Failed to encode trace event", zap.Uint64("step", event.Step), zap.Error(err))
		return
	}
	line = append(line, '\n')
	if _, err := l.w.Write(line); err != nil {
		l.logger.Warn("Failed to write trace event", zap.Uint64("step", event.Step), zap.Error(err))
	}
}

// Close releases the underlying file, if the logger owns one.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closer.Close()
}
