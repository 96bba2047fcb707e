// Package timezone resolves IANA timezone names into locations with a
// configured fallback for invalid input.
package timezone

import (
	"fmt"
	"log/slog"
	"time"
)

// Resolver maps timezone names to *time.Location. Unresolvable names are
// logged and silently substituted with the fallback location, so callers
// always get a usable clock.
type Resolver struct {
	fallback *time.Location
	logger   *slog.Logger
}

// NewResolver creates a Resolver with the given fallback timezone name.
// It returns an error only when the fallback itself cannot be loaded,
// since that leaves no safe substitute. If logger is nil, a default
// logger will be used.
func NewResolver(fallbackName string, logger *slog.Logger) (*Resolver, error) {
	fallback, err := time.LoadLocation(fallbackName)
	if err != nil {
		return nil, fmt.Errorf("invalid fallback timezone %q: %w", fallbackName, err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Resolver{
		fallback: fallback,
		logger:   logger.With(slog.String("component", "timezone_resolver")),
	}, nil
}

// Resolve returns the location for the given timezone name, or the
// fallback location when the name is empty or unknown.
func (r *Resolver) Resolve(name string) *time.Location {
	if name == "" {
		return r.fallback
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		r.logger.Warn("unknown timezone, using fallback",
			slog.String("timezone", name),
			slog.String("fallback", r.fallback.String()))
		return r.fallback
	}

	return loc
}

// Fallback returns the configured fallback location.
func (r *Resolver) Fallback() *time.Location {
	return r.fallback
}
