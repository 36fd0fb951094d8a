package pipeline

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/syssam/helix"
	"github.com/syssam/helix/resolve"
	"github.com/syssam/helix/scan"
	"github.com/syssam/helix/validate"
)

// Config carries the tunables of a Pipeline. Zero values are filled in
// by DefaultConfig; options validate their inputs and return an error
// instead of silently clamping.
type Config struct {
	// Workers bounds concurrent module generation inside GENERATE_FILES.
	Workers int

	// MaxRetries is the per-stage retry budget for transient failures.
	MaxRetries int

	// Backoff is the base delay between retry attempts. The n-th retry
	// waits n times this value.
	Backoff time.Duration

	// Timeout bounds the wall-clock duration of one Generate call.
	Timeout time.Duration

	// Caching enables fingerprint-addressed reuse of generated file sets.
	// It requires a Cache.
	Caching bool

	// CacheTTL is the lifetime of cached file sets. Zero never expires.
	CacheTTL time.Duration

	// Parallel enables concurrent module generation. When disabled,
	// modules generate sequentially in resolution order.
	Parallel bool

	// Progressive runs quality and security checks per file as outputs
	// become available instead of only after generation completes.
	Progressive bool

	cache     helix.Cache
	sink      Sink
	chooser   resolve.Chooser
	logger    *slog.Logger
	validator *validate.Engine
	scanner   *scan.Scanner
	hook      StageHook
}

// DefaultConfig returns the configuration Generate runs with when no
// options override it.
func DefaultConfig() Config {
	return Config{
		Workers:    runtime.GOMAXPROCS(0),
		MaxRetries: 2,
		Backoff:    50 * time.Millisecond,
		Timeout:    30 * time.Second,
		Parallel:   true,
	}
}

// Option configures a Pipeline.
type Option func(*Config) error

// WithWorkers bounds the number of modules generating concurrently.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("pipeline: workers must be positive, got %d", n)
		}
		c.Workers = n
		return nil
	}
}

// WithMaxRetries sets the per-stage retry budget for transient failures.
func WithMaxRetries(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return fmt.Errorf("pipeline: max retries must not be negative, got %d", n)
		}
		c.MaxRetries = n
		return nil
	}
}

// WithBackoff sets the base delay between retry attempts.
func WithBackoff(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return fmt.Errorf("pipeline: backoff must not be negative, got %s", d)
		}
		c.Backoff = d
		return nil
	}
}

// WithTimeout bounds the wall-clock duration of one Generate call.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return fmt.Errorf("pipeline: timeout must be positive, got %s", d)
		}
		c.Timeout = d
		return nil
	}
}

// WithCache installs the cache used for fingerprint-addressed reuse and
// enables caching.
func WithCache(cache helix.Cache) Option {
	return func(c *Config) error {
		if cache == nil {
			return fmt.Errorf("pipeline: cache must not be nil")
		}
		c.cache = cache
		c.Caching = true
		return nil
	}
}

// WithCacheTTL sets the lifetime of cached file sets.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Config) error {
		if d < 0 {
			return fmt.Errorf("pipeline: cache ttl must not be negative, got %s", d)
		}
		c.CacheTTL = d
		return nil
	}
}

// WithCaching toggles caching without replacing the cache.
func WithCaching(enabled bool) Option {
	return func(c *Config) error {
		c.Caching = enabled
		return nil
	}
}

// WithParallel toggles concurrent module generation.
func WithParallel(enabled bool) Option {
	return func(c *Config) error {
		c.Parallel = enabled
		return nil
	}
}

// WithProgressiveValidation toggles incremental quality and security
// checks during generation.
func WithProgressiveValidation(enabled bool) Option {
	return func(c *Config) error {
		c.Progressive = enabled
		return nil
	}
}

// WithEvents installs the sink receiving pipeline and stage events.
// Sinks must not block; slow consumers should buffer or drop.
func WithEvents(sink Sink) Option {
	return func(c *Config) error {
		c.sink = sink
		return nil
	}
}

// WithChooser installs the interactive conflict chooser. Without one,
// conflict groups with several explicitly requested members fail.
func WithChooser(chooser resolve.Chooser) Option {
	return func(c *Config) error {
		c.chooser = chooser
		return nil
	}
}

// WithLogger sets the structured logger for pipeline and stage logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return fmt.Errorf("pipeline: logger must not be nil")
		}
		c.logger = l
		return nil
	}
}

// WithValidator replaces the validation engine.
func WithValidator(v *validate.Engine) Option {
	return func(c *Config) error {
		if v == nil {
			return fmt.Errorf("pipeline: validator must not be nil")
		}
		c.validator = v
		return nil
	}
}

// WithScanner replaces the security scanner.
func WithScanner(s *scan.Scanner) Option {
	return func(c *Config) error {
		if s == nil {
			return fmt.Errorf("pipeline: scanner must not be nil")
		}
		c.scanner = s
		return nil
	}
}

// StageHook runs before every stage attempt. A non-nil return value is
// treated as that attempt's failure and goes through the usual
// transient/fatal classification. Used to inject faults in tests and to
// gate stages externally.
type StageHook func(stage helix.Stage, attempt int) error

// WithStageHook installs a stage hook.
func WithStageHook(hook StageHook) Option {
	return func(c *Config) error {
		c.hook = hook
		return nil
	}
}
