package locator

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/healthdesk/assistant/internal/observability"
)

// Fallback reasons.
const (
	ReasonNoLocation         = "location unavailable"
	ReasonInvalidCoordinates = "invalid coordinates"
	ReasonTimeout            = "lookup timed out"
	ReasonCanceled           = "lookup canceled"
)

// Config controls the simulated lookup.
type Config struct {
	Delay        time.Duration
	Timeout      time.Duration
	DefaultLimit int
}

// DefaultConfig returns the locator defaults.
func DefaultConfig() Config {
	return Config{
		Delay:        300 * time.Millisecond,
		Timeout:      2 * time.Second,
		DefaultLimit: 5,
	}
}

// Result is the outcome of a lookup. When Fallback is set, Pharmacies holds the demo
// list and Reason says why.
type Result struct {
	Pharmacies []Pharmacy `json:"pharmacies"`
	Fallback   bool       `json:"fallback"`
	Reason     string     `json:"reason,omitempty"`
}

// Locator answers nearby-pharmacy lookups. It is safe for concurrent use.
type Locator struct {
	dir    *Directory
	cfg    Config
	logger *observability.Logger
}

// New creates a locator over dir. Zero config values take the defaults.
func New(dir *Directory, logger *observability.Logger, cfg Config) *Locator {
	def := DefaultConfig()
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = def.DefaultLimit
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Locator{dir: dir, cfg: cfg, logger: logger}
}

// Config returns the effective configuration.
func (l *Locator) Config() Config {
	return l.cfg
}

// Nearby returns up to limit pharmacies closest to coords. It never fails: a missing or
// invalid position, a timeout or a canceled context yield the demo list instead.
func (l *Locator) Nearby(ctx context.Context, coords *Coordinates, limit int) Result {
	if limit <= 0 {
		limit = l.cfg.DefaultLimit
	}

	if coords == nil {
		return l.fallback(ReasonNoLocation, limit)
	}
	if !coords.Valid() {
		return l.fallback(ReasonInvalidCoordinates, limit)
	}

	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	start := time.Now()
	if err := wait(ctx, l.cfg.Delay); err != nil {
		reason := ReasonCanceled
		if errors.Is(err, context.DeadlineExceeded) {
			reason = ReasonTimeout
		}
		l.logger.Warn().
			Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("Pharmacy lookup degraded to demo list")
		return l.fallback(reason, limit)
	}

	result := Result{Pharmacies: l.sorted(*coords, limit)}
	l.logger.Debug().
		Int("results", len(result.Pharmacies)).
		Dur("elapsed", time.Since(start)).
		Msg("Pharmacy lookup completed")
	return result
}

func (l *Locator) sorted(origin Coordinates, limit int) []Pharmacy {
	out := make([]Pharmacy, len(l.dir.Pharmacies))
	copy(out, l.dir.Pharmacies)
	for i := range out {
		out[i].DistanceKm = DistanceKm(origin, Coordinates{Lat: out[i].Lat, Lng: out[i].Lng})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (l *Locator) fallback(reason string, limit int) Result {
	n := len(l.dir.Demo)
	if n > limit {
		n = limit
	}
	demo := make([]Pharmacy, n)
	copy(demo, l.dir.Demo[:n])
	return Result{Pharmacies: demo, Fallback: true, Reason: reason}
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
