package sqlite

import "time"

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds SQLite configuration.
type ClientConfig struct {
	Path        string // file path or ":memory:"
	BusyTimeout time.Duration
	ForeignKeys bool
	JournalWAL  bool
}

func WithPath(path string) ClientOption {
	return func(c *ClientConfig) { c.Path = path }
}

func WithBusyTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.BusyTimeout = d }
}

func WithForeignKeys(on bool) ClientOption {
	return func(c *ClientConfig) { c.ForeignKeys = on }
}

// WithWAL enables write-ahead logging. Ignored for in-memory databases.
func WithWAL(on bool) ClientOption {
	return func(c *ClientConfig) { c.JournalWAL = on }
}
