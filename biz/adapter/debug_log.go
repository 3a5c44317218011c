package adapter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"doing_now/authdb/biz/util/trace_info"

	"github.com/sirupsen/logrus"
)

// LogEntry is one step of an adapter call. Entries of the same call share TxID.
type LogEntry struct {
	Adapter  string
	Instance string
	Method   string
	TxID     int64
	Step     int
	Total    int
	Message  string
	Model    string
	Data     any
	LogID    string
	Time     time.Time
}

func (e LogEntry) String() string {
	return fmt.Sprintf("#%d [%d/%d] %s %s (%s): %v", e.TxID, e.Step, e.Total, e.Method, e.Message, e.Model, e.Data)
}

type LogSink interface {
	Write(ctx context.Context, e LogEntry)
}

var txCounter atomic.Int64

func nextTxID() int64 {
	return txCounter.Add(1)
}

// ResetTransactionCounter restarts the sequence used to correlate log entries.
func ResetTransactionCounter() {
	txCounter.Store(0)
}

// CaptureSink buffers entries of adapters configured with DebugLogs.Capture.
var CaptureSink = NewMemorySink()

type LogrusSink struct {
	logger logrus.FieldLogger
}

func NewLogrusSink(logger logrus.FieldLogger) *LogrusSink {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusSink{logger: logger}
}

func (s *LogrusSink) Write(_ context.Context, e LogEntry) {
	s.logger.WithFields(logrus.Fields{
		"adapter": e.Adapter,
		"method":  e.Method,
		"tx":      e.TxID,
		"step":    fmt.Sprintf("%d/%d", e.Step, e.Total),
		"model":   e.Model,
		"log_id":  e.LogID,
	}).Infof("%s: %v", e.Message, e.Data)
}

// MemorySink keeps entries per adapter instance until they are drained.
type MemorySink struct {
	mu      sync.Mutex
	entries map[string][]LogEntry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{entries: make(map[string][]LogEntry)}
}

func (s *MemorySink) Write(_ context.Context, e LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Instance] = append(s.entries[e.Instance], e)
}

// Entries returns a copy of the entries buffered for an adapter instance.
func (s *MemorySink) Entries(instance string) []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.entries[instance]))
	copy(out, s.entries[instance])
	return out
}

// Replay drains the entries of an adapter instance into another sink.
func (s *MemorySink) Replay(ctx context.Context, instance string, to LogSink) {
	s.mu.Lock()
	entries := s.entries[instance]
	delete(s.entries, instance)
	s.mu.Unlock()

	for _, e := range entries {
		to.Write(ctx, e)
	}
}

func (s *MemorySink) Reset(instance string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, instance)
}

func (s *MemorySink) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string][]LogEntry)
}

func (a *Adapter) debug(ctx context.Context, method string, txID int64, step, total int, msg, model string, data any) {
	if a.sink == nil || !a.h.config.DebugLogs.enabled(method) {
		return
	}
	a.sink.Write(ctx, LogEntry{
		Adapter:  a.h.config.name(),
		Instance: a.instance,
		Method:   method,
		TxID:     txID,
		Step:     step,
		Total:    total,
		Message:  msg,
		Model:    model,
		Data:     data,
		LogID:    trace_info.GetLogId(ctx),
		Time:     time.Now(),
	})
}

func newSink(d DebugLogs) LogSink {
	switch {
	case d.Sink != nil:
		return d.Sink
	case d.Capture:
		return CaptureSink
	case d.Enabled || d.Methods != nil:
		return NewLogrusSink(nil)
	}
	return nil
}
