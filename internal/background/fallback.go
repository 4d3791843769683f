package background

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
)

var _ Store = (*FallbackStore)(nil)

// FallbackStore writes to a primary store and keeps backgrounds in memory
// when the primary fails, so uploads keep working for the rest of the
// process lifetime.
type FallbackStore struct {
	primary  Store
	memory   *MemoryStore
	logger   *zap.Logger
	degraded atomic.Bool
}

// NewFallbackStore wraps primary with an in-memory fallback.
func NewFallbackStore(primary Store, logger *zap.Logger) *FallbackStore {
	return &FallbackStore{primary: primary, memory: NewMemoryStore(), logger: logger}
}

// Degraded reports whether any write has gone to memory.
func (f *FallbackStore) Degraded() bool {
	return f.degraded.Load()
}

func (f *FallbackStore) Save(ctx context.Context, u Upload) (Record, error) {
	rec, err := f.primary.Save(ctx, u)
	if err == nil {
		return rec, nil
	}
	if isValidationError(err) {
		return Record{}, err
	}
	if !f.degraded.Swap(true) {
		f.logger.Warn("background store failed, keeping backgrounds in memory", zap.Error(err))
	}
	return f.memory.Save(ctx, u)
}

func (f *FallbackStore) List(ctx context.Context) ([]Record, error) {
	records, err := f.primary.List(ctx)
	if err != nil {
		f.logger.Warn("failed to list stored backgrounds", zap.Error(err))
		records = nil
	}
	mem, _ := f.memory.List(ctx)
	return append(records, mem...), nil
}

func (f *FallbackStore) URL(ctx context.Context, id string) (string, bool) {
	if u, ok := f.memory.URL(ctx, id); ok {
		return u, true
	}
	return f.primary.URL(ctx, id)
}

func (f *FallbackStore) Open(ctx context.Context, id string) (Record, []byte, error) {
	if rec, data, err := f.memory.Open(ctx, id); err == nil {
		return rec, data, nil
	}
	return f.primary.Open(ctx, id)
}

func (f *FallbackStore) Delete(ctx context.Context, id string) error {
	if err := f.memory.Delete(ctx, id); err == nil {
		return nil
	}
	return f.primary.Delete(ctx, id)
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrUnsupportedType) || errors.Is(err, ErrEmpty) || errors.Is(err, ErrTooLarge)
}
