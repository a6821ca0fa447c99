package aiodb

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRetries    = 5
	defaultRetryDelay = 10 * time.Millisecond
	defaultSync       = "NORMAL"
)

type config struct {
	retries     int
	delay       time.Duration
	logger      *zap.SugaredLogger
	journal     JournalMode
	synchronous string
	mode        WriteMode
	maxOpen     int
	err         error
}

func defaultConfig() *config {
	return &config{
		retries:     defaultRetries,
		delay:       defaultRetryDelay,
		logger:      zap.NewNop().Sugar(),
		journal:     JournalWAL,
		synchronous: defaultSync,
		mode:        WriteDirect,
	}
}

func newConfig(opts []Option) (*config, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(cfg)
	}
	if cfg.err != nil {
		return nil, cfg.err
	}
	return cfg, nil
}

// Option configures a DB at open time.
type Option func(*config)

// WithRetries sets the number of attempts each write makes before giving up.
// Values below 1 are treated as 1.
func WithRetries(n int) Option {
	return func(c *config) { c.retries = n }
}

// WithRetryDelay sets the pause between write attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithLogger routes diagnostics to l. A nil logger disables logging.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *config) {
		if l == nil {
			l = zap.NewNop().Sugar()
		}
		c.logger = l
	}
}

// WithJournalMode sets the journal mode applied when the table is created.
// An empty mode leaves the engine default.
func WithJournalMode(m JournalMode) Option {
	return func(c *config) {
		if m != "" && !m.valid() {
			c.err = configErrorf(ErrInvalidName, "journal mode %q", m)
			return
		}
		c.journal = m
	}
}

// WithSynchronous sets PRAGMA synchronous (OFF, NORMAL, FULL or EXTRA)
// applied when the table is created. An empty value leaves the engine
// default.
func WithSynchronous(level string) Option {
	return func(c *config) {
		level = strings.ToUpper(level)
		switch level {
		case "", "OFF", "NORMAL", "FULL", "EXTRA":
			c.synchronous = level
		default:
			c.err = configErrorf(ErrInvalidName, "synchronous level %q", level)
		}
	}
}

// WithWriteMode selects how writes are executed. See WriteMode.
func WithWriteMode(m WriteMode) Option {
	return func(c *config) { c.mode = m }
}

// WithMaxOpenConns caps the pool opened by Open. It has no effect on
// in-memory databases, which always use one connection, nor on pools passed
// to New.
func WithMaxOpenConns(n int) Option {
	return func(c *config) { c.maxOpen = n }
}
