// Package sequence issues short, fixed-width identifiers that are unique
// within a namespace.
//
// Each attempt increments a durable per-namespace counter, maps the new value
// into the representable range (skipping zero) and probes forward past codes
// that are still in use. The probe is bounded by the range size.
package sequence

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-leads-backend/internal/metrics"
	"github.com/tbourn/go-leads-backend/internal/repo"
)

// ErrResourceExhausted is returned when every code of a namespace is in use.
var ErrResourceExhausted = errors.New("identifier range exhausted")

// Alphabet selects the textual representation of a code.
type Alphabet string

const (
	// Decimal renders zero-padded base-10 codes ("000042").
	Decimal Alphabet = "decimal"
	// Base36 renders zero-padded upper-case base-36 codes ("00001A").
	Base36 Alphabet = "base36"
)

// ParseAlphabet accepts "decimal" or "base36" (case-insensitive).
func ParseAlphabet(s string) (Alphabet, error) {
	switch Alphabet(strings.ToLower(strings.TrimSpace(s))) {
	case Decimal, "":
		return Decimal, nil
	case Base36:
		return Base36, nil
	}
	return "", fmt.Errorf("unknown alphabet %q", s)
}

func (a Alphabet) radix() int64 {
	if a == Base36 {
		return 36
	}
	return 10
}

// RangeSize is the number of non-zero codes of the given width.
func RangeSize(width int, a Alphabet) (int64, error) {
	if width < 1 {
		return 0, fmt.Errorf("width must be positive, got %d", width)
	}
	r := a.radix()
	if float64(width)*math.Log2(float64(r)) >= 62 {
		return 0, fmt.Errorf("width %d too large for %s", width, a)
	}
	n := int64(1)
	for i := 0; i < width; i++ {
		n *= r
	}
	return n - 1, nil
}

// Format renders v (1..RangeSize) at width.
func Format(v int64, width int, a Alphabet) string {
	s := strings.ToUpper(strconv.FormatInt(v, int(a.radix())))
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}

// wrap maps a counter value onto 1..size.
func wrap(v, size int64) int64 {
	return ((v-1)%size+size)%size + 1
}

// OccupiedFunc reports whether code is still referenced in a namespace.
type OccupiedFunc func(ctx context.Context, db *gorm.DB, code string) (bool, error)

// Allocator issues identifiers. Safe for concurrent use; each attempt is its
// own store transaction.
type Allocator struct {
	DB  *gorm.DB
	Log zerolog.Logger

	mu       sync.RWMutex
	occupied map[string]OccupiedFunc
}

// Namespaces with built-in occupancy checks.
const (
	NamespaceJobs         = "jobs"
	NamespaceUsersShortID = "users_short_id"
)

// New returns an allocator with occupancy checks for the built-in namespaces.
func New(db *gorm.DB, log zerolog.Logger) *Allocator {
	a := &Allocator{DB: db, Log: log, occupied: map[string]OccupiedFunc{}}
	a.Register(NamespaceJobs, repo.JobIDExists)
	a.Register(NamespaceUsersShortID, repo.ShortIDExists)
	return a
}

// Register installs the occupancy check for namespace. Namespaces without
// one never probe.
func (a *Allocator) Register(namespace string, fn OccupiedFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.occupied[namespace] = fn
}

func (a *Allocator) checker(namespace string) OccupiedFunc {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.occupied[namespace]
}

// Next returns a code for namespace that no live record uses.
//
// Every candidate, including each probe step, consumes one counter value, so
// concurrent callers never examine the same candidate within a lap of the
// range. After RangeSize candidates have all been found occupied it returns
// ErrResourceExhausted.
func (a *Allocator) Next(ctx context.Context, namespace string, width int, alphabet Alphabet) (string, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return "", errors.New("namespace is required")
	}
	size, err := RangeSize(width, alphabet)
	if err != nil {
		return "", err
	}
	occupied := a.checker(namespace)

	for attempt := int64(0); attempt < size; attempt++ {
		var v int64
		err := a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			v, err = repo.IncrementCounter(ctx, tx, namespace)
			return err
		})
		if err != nil {
			metrics.SequenceAllocations.WithLabelValues(namespace, metrics.ResultError).Inc()
			return "", err
		}

		code := Format(wrap(v, size), width, alphabet)
		if occupied == nil {
			metrics.SequenceAllocations.WithLabelValues(namespace, metrics.ResultOK).Inc()
			return code, nil
		}
		taken, err := occupied(ctx, a.DB, code)
		if err != nil {
			metrics.SequenceAllocations.WithLabelValues(namespace, metrics.ResultError).Inc()
			return "", err
		}
		if !taken {
			metrics.SequenceAllocations.WithLabelValues(namespace, metrics.ResultOK).Inc()
			return code, nil
		}
		a.Log.Debug().Str("namespace", namespace).Str("code", code).Msg("code in use, probing forward")
	}

	metrics.SequenceAllocations.WithLabelValues(namespace, metrics.ResultRejected).Inc()
	a.Log.Error().Str("namespace", namespace).Int("width", width).Msg("identifier range exhausted")
	return "", ErrResourceExhausted
}
