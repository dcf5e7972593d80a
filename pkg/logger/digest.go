package logger

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

// DigestConfig controls error aggregation. Entries with the same level,
// message, caller and fields are counted instead of repeated, and the
// batch is published every Interval or once MaxEntries distinct entries
// are pending.
type DigestConfig struct {
	Interval   time.Duration
	MaxEntries int
	Topic      string
	Publisher  Publisher
}

type DigestEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Caller    string                 `json:"caller"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

type errorDigest struct {
	cfg DigestConfig

	mu      sync.Mutex
	pending map[string]*DigestEntry

	stop      chan struct{}
	loopDone  chan struct{}
	inflight  sync.WaitGroup
	closeOnce sync.Once
}

func newErrorDigest(cfg DigestConfig) *errorDigest {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 100
	}
	d := &errorDigest{
		cfg:      cfg,
		pending:  make(map[string]*DigestEntry),
		stop:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *errorDigest) add(level, msg string, fields []Field, caller string) {
	values := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		if f.Value != nil {
			values[f.Key] = f.Value
		}
	}
	key := digestKey(level, msg, caller, values)
	now := time.Now().UTC()

	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.pending[key]; ok {
		e.Count++
		e.LastSeen = now
		return
	}
	d.pending[key] = &DigestEntry{
		Level:     level,
		Message:   msg,
		Caller:    caller,
		Fields:    values,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
	if len(d.pending) >= d.cfg.MaxEntries {
		d.flushLocked()
	}
}

func digestKey(level, msg, caller string, values map[string]interface{}) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\x00%s\x00%s", level, msg, caller)
	for _, k := range keys {
		fmt.Fprintf(&b, "\x00%s=%v", k, values[k])
	}
	return b.String()
}

func (d *errorDigest) loop() {
	defer close(d.loopDone)
	t := time.NewTicker(d.cfg.Interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			d.flush()
		case <-d.stop:
			d.flush()
			return
		}
	}
}

func (d *errorDigest) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushLocked()
}

// caller holds mu
func (d *errorDigest) flushLocked() {
	if len(d.pending) == 0 {
		return
	}
	batch := make([]DigestEntry, 0, len(d.pending))
	for _, e := range d.pending {
		batch = append(batch, *e)
	}
	d.pending = make(map[string]*DigestEntry)
	if d.cfg.Publisher == nil {
		return
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.cfg.Publisher.PublishMessage(ctx, d.cfg.Topic, batch); err != nil {
			// the logger cannot log its own delivery failure
			fmt.Fprintf(os.Stderr, "error digest: publish %d entries: %v\n", len(batch), err)
		}
	}()
}

// close flushes pending entries and waits for in-flight publishes.
func (d *errorDigest) close() {
	d.closeOnce.Do(func() {
		close(d.stop)
		<-d.loopDone
		d.inflight.Wait()
	})
}
