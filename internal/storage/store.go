// Package storage keeps the small amount of state the client must remember
// between runs: the active church, the bearer token and the privacy notice
// flag.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/harisonns09/ecclesia-manager-sub000/pkg/config"
)

var (
	ErrNotFound      = errors.New("storage: key not found")
	ErrUnknownDriver = errors.New("storage: unknown driver")
)

// Well-known keys
const (
	KeyActiveTenant    = "active_tenant"
	KeyToken           = "token"
	KeyPrivacyAccepted = "privacy_accepted"
)

// Store is a durable string key/value store
type Store interface {
	// Get returns ErrNotFound when the key was never set or was deleted
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Open returns the Store selected by cfg.Storage.Driver
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case "", "file":
		return NewFileStore(cfg.Storage.Path)
	case "redis":
		return NewRedisStore(ctx, &cfg.Redis, cfg.Storage.KeyPrefix)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Storage.Driver)
	}
}

// GetJSON decodes the value at key into v
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// SetJSON stores v encoded as JSON
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

// Flag reads a boolean flag; a missing key is false
func Flag(ctx context.Context, s Store, key string) (bool, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return raw == "true", nil
}

// SetFlag writes a boolean flag
func SetFlag(ctx context.Context, s Store, key string, on bool) error {
	if !on {
		return s.Delete(ctx, key)
	}
	return s.Set(ctx, key, "true")
}
