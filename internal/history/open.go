package history

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrUnknownBackend = errors.New("unknown history backend")

const (
	KindFile   = "file"
	KindRedis  = "redis"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Kind     string
	Path     string
	RedisURL string
	RedisKey string
}

// Open returns the configured backend and a closer for its resources.
func Open(ctx context.Context, opts Options) (Backend, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Kind)) {
	case "", KindFile:
		backend, err := NewFileBackend(opts.Path)
		if err != nil {
			return nil, nil, err
		}
		return backend, nopCloser{}, nil
	case KindRedis:
		client, err := DialRedis(ctx, opts.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisBackend(client, opts.RedisKey), client, nil
	case KindSQLite:
		backend, err := OpenSQLiteBackend(ctx, opts.Path)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend, nil
	case KindMemory:
		return NewMemoryBackend(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownBackend, opts.Kind)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
