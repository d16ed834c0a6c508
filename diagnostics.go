package gorecord

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/natefinch/atomic"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mickamy/gorecord/internal/buffer"
	"github.com/mickamy/gorecord/internal/query"
)

// QueryLogLevel decides which recorded statements are also written to the
// diagnostics logger. Every statement is kept in the query log regardless.
type QueryLogLevel int

const (
	QueryLogNone QueryLogLevel = iota
	QueryLogSlow
	QueryLogAlways
)

func (l QueryLogLevel) String() string {
	switch l {
	case QueryLogSlow:
		return "slow"
	case QueryLogAlways:
		return "always"
	default:
		return "none"
	}
}

// ParseQueryLogLevel parses "none", "slow" or "always".
func ParseQueryLogLevel(s string) (QueryLogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return QueryLogNone, nil
	case "slow":
		return QueryLogSlow, nil
	case "always", "all":
		return QueryLogAlways, nil
	}
	return QueryLogNone, fmt.Errorf("gorecord: unknown query log level %q", s)
}

// DefaultSlowQuery is the threshold above which a statement is slow.
const DefaultSlowQuery = 4 * time.Second

// Diagnostics collects timers, memory checkpoints and a query log for the
// statements of one process. It is passed explicitly to the DB that feeds it
// and is safe for concurrent use.
type Diagnostics struct {
	mu     sync.Mutex
	logger hclog.Logger
	level  QueryLogLevel
	slow   time.Duration
	now    func() time.Time
	heap   func() uint64

	timers  map[string]*timer
	memory  map[string]uint64
	queries *buffer.Buffer[QueryRecord]
	latency *prometheus.HistogramVec
}

type timer struct {
	start   time.Time
	stop    time.Time
	running bool
}

// DiagnosticsOption configures Diagnostics.
type DiagnosticsOption func(*diagnosticsOptions)

type diagnosticsOptions struct {
	logger     hclog.Logger
	level      QueryLogLevel
	slow       time.Duration
	capacity   int
	registerer prometheus.Registerer
	now        func() time.Time
	heap       func() uint64
}

// WithDiagnosticsLogger sets the logger query log entries are written to.
func WithDiagnosticsLogger(l hclog.Logger) DiagnosticsOption {
	return func(o *diagnosticsOptions) { o.logger = l }
}

// WithQueryLog sets the query log level and the slow statement threshold. A
// non-positive threshold keeps DefaultSlowQuery.
func WithQueryLog(level QueryLogLevel, slow time.Duration) DiagnosticsOption {
	return func(o *diagnosticsOptions) {
		o.level = level
		if slow > 0 {
			o.slow = slow
		}
	}
}

// WithQueryLogCapacity bounds the number of records kept; the oldest records
// are dropped first. Zero keeps every record.
func WithQueryLogCapacity(n int) DiagnosticsOption {
	return func(o *diagnosticsOptions) { o.capacity = n }
}

// WithRegisterer exports statement latencies as the histogram
// gorecord_query_duration_seconds{op}.
func WithRegisterer(r prometheus.Registerer) DiagnosticsOption {
	return func(o *diagnosticsOptions) { o.registerer = r }
}

// WithClock replaces the clock. It is meant for tests.
func WithClock(now func() time.Time) DiagnosticsOption {
	return func(o *diagnosticsOptions) { o.now = now }
}

// NewDiagnostics creates an empty diagnostics context.
func NewDiagnostics(opts ...DiagnosticsOption) (*Diagnostics, error) {
	o := diagnosticsOptions{
		level: QueryLogNone,
		slow:  DefaultSlowQuery,
		now:   time.Now,
		heap:  heapInUse,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = hclog.NewNullLogger()
	}

	d := &Diagnostics{
		logger:  o.logger.Named("gorecord.diag"),
		level:   o.level,
		slow:    o.slow,
		now:     o.now,
		heap:    o.heap,
		timers:  make(map[string]*timer),
		memory:  make(map[string]uint64),
		queries: buffer.NewBuffer[QueryRecord](o.capacity),
	}

	if o.registerer != nil {
		h := prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gorecord",
				Name:      "query_duration_seconds",
				Help:      "Histogram of statement latencies issued by gorecord entities.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		)
		if err := o.registerer.Register(h); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return nil, fmt.Errorf("gorecord: failed to register metrics: %w", err)
			}
			existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
			if !ok {
				return nil, fmt.Errorf("gorecord: failed to register metrics: %w", err)
			}
			h = existing
		}
		d.latency = h
	}
	return d, nil
}

func heapInUse() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapInuse
}

// StartTimer starts (or restarts) the timer label.
func (d *Diagnostics) StartTimer(label string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timers[label] = &timer{start: d.now(), running: true}
}

// StopTimer stops the running timer label. It reports false when no such
// timer is running.
func (d *Diagnostics) StopTimer(label string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.timers[label]
	if !ok || !t.running {
		return false
	}
	t.stop = d.now()
	t.running = false
	return true
}

// Elapsed returns the time measured by timer label; a running timer is read
// against the current time.
func (d *Diagnostics) Elapsed(label string) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.elapsed(label)
}

func (d *Diagnostics) elapsed(label string) time.Duration {
	t, ok := d.timers[label]
	if !ok {
		return 0
	}
	if t.running {
		return d.now().Sub(t.start)
	}
	return t.stop.Sub(t.start)
}

// Timers returns the elapsed time of every timer.
func (d *Diagnostics) Timers() map[string]time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]time.Duration, len(d.timers))
	for label := range d.timers {
		out[label] = d.elapsed(label)
	}
	return out
}

// MemoryCheckpoint records the heap in use under label and returns it.
func (d *Diagnostics) MemoryCheckpoint(label string) uint64 {
	n := d.heap()
	d.mu.Lock()
	d.memory[label] = n
	d.mu.Unlock()
	return n
}

// Memory returns the checkpoint recorded under label.
func (d *Diagnostics) Memory(label string) (uint64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, ok := d.memory[label]
	return n, ok
}

// MemoryDiff returns the heap growth from checkpoint from to checkpoint to.
// Missing checkpoints count as zero difference.
func (d *Diagnostics) MemoryDiff(from, to string) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.memoryDiff(from, to)
}

func (d *Diagnostics) memoryDiff(from, to string) int64 {
	a, okA := d.memory[from]
	b, okB := d.memory[to]
	if !okA || !okB {
		return 0
	}
	return int64(b) - int64(a)
}

// RecordQuery appends a query log record for sql. The elapsed time and heap
// delta are read from the timer label and the checkpoints label-start and
// label-end.
func (d *Diagnostics) RecordQuery(label, sql string, params map[string]any, err error) QueryRecord {
	d.mu.Lock()
	rec := QueryRecord{
		ID:      uuid.NewString(),
		Label:   label,
		Op:      query.Verb(sql),
		SQL:     sql,
		Params:  maps.Clone(params),
		Elapsed: d.elapsed(label),
		Memory:  d.memoryDiff(label+"-start", label+"-end"),
		At:      d.now(),
	}
	d.mu.Unlock()
	if err != nil {
		rec.Err = err.Error()
	}

	d.queries.Add(rec)
	if d.latency != nil {
		d.latency.WithLabelValues(rec.Op).Observe(rec.Elapsed.Seconds())
	}

	switch {
	case d.level == QueryLogAlways:
		d.logger.Info("query", "sql", rec.SQL, "params", rec.Params, "elapsed", rec.Elapsed, "memory", humanizeDelta(rec.Memory))
	case d.level == QueryLogSlow && rec.Slow(d.slow):
		d.logger.Warn("slow query", "sql", rec.SQL, "params", rec.Params, "elapsed", rec.Elapsed, "threshold", d.slow)
	}
	return rec
}

// Queries returns the query log, oldest first.
func (d *Diagnostics) Queries() []QueryRecord {
	return d.queries.Snapshot()
}

// Query returns the most recent record for the given SQL text.
func (d *Diagnostics) Query(sql string) (QueryRecord, bool) {
	qs := d.queries.Snapshot()
	for i := len(qs) - 1; i >= 0; i-- {
		if qs[i].SQL == sql {
			return qs[i], true
		}
	}
	return QueryRecord{}, false
}

// Summary aggregates the query log.
type Summary struct {
	Queries int           `json:"queries"`
	Failed  int           `json:"failed"`
	Slow    int           `json:"slow"`
	Elapsed time.Duration `json:"elapsed"`
	Memory  int64         `json:"memory"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d queries (%d failed, %d slow) in %s, heap %s",
		s.Queries, s.Failed, s.Slow, s.Elapsed, humanizeDelta(s.Memory))
}

// Summary returns totals over the query log.
func (d *Diagnostics) Summary() Summary {
	var s Summary
	for _, q := range d.queries.Snapshot() {
		s.Queries++
		if q.Err != "" {
			s.Failed++
		}
		if q.Slow(d.slow) {
			s.Slow++
		}
		s.Elapsed += q.Elapsed
		s.Memory += q.Memory
	}
	return s
}

type report struct {
	Summary Summary           `json:"summary"`
	Timers  map[string]string `json:"timers"`
	Memory  map[string]string `json:"memory"`
	Queries []QueryRecord     `json:"queries"`
}

// WriteReport writes the summary, timers, checkpoints and query log to path
// as JSON. The file is replaced atomically.
func (d *Diagnostics) WriteReport(path string) error {
	r := report{
		Summary: d.Summary(),
		Timers:  map[string]string{},
		Memory:  map[string]string{},
		Queries: d.Queries(),
	}
	for label, e := range d.Timers() {
		r.Timers[label] = e.String()
	}
	d.mu.Lock()
	for label, n := range d.memory {
		r.Memory[label] = humanize.IBytes(n)
	}
	d.mu.Unlock()

	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("gorecord: failed to marshal report: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("gorecord: failed to write report: %w", err)
	}
	return nil
}

// Reset clears timers, checkpoints and the query log.
func (d *Diagnostics) Reset() {
	d.mu.Lock()
	d.timers = make(map[string]*timer)
	d.memory = make(map[string]uint64)
	d.mu.Unlock()
	d.queries.Reset()
}

func humanizeDelta(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}
