package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps the last published fingerprint of each watched record.

// Store remembers record fingerprints so unchanged records are not republished.
type Store interface {
	Close() error
	// Fingerprint returns the remembered fingerprint for key; ok is false when
	// nothing (or only an expired entry) is stored.
	Fingerprint(key string) (fp string, ok bool, err error)
	// Remember stores fp for key and restarts its expiry, also when fp is
	// unchanged.
	Remember(key, fp string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	// Now overrides the clock used for expiry; time.Now when nil.
	Now func() time.Time
}

const (
	defaultTTL             = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                             { return nil }
func (noopStore) Fingerprint(string) (string, bool, error) { return "", false, nil }
func (noopStore) Remember(string, string) error            { return nil }
