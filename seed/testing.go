package seed

import (
	"context"
	"log/slog"

	"github.com/poiesic/merkor/core"
	"github.com/poiesic/merkor/storage/badger"
)

// NewMemoryStore opens an in-memory badger store holding the sample
// lexicon, for tests. Caller must close the store when done.
func NewMemoryStore(ctx context.Context, logger *slog.Logger) (*badger.Backend, error) {
	lex, err := Sample()
	if err != nil {
		return nil, err
	}
	types, err := core.DefaultRelationTypes()
	if err != nil {
		return nil, err
	}
	store, err := badger.NewMemoryBackend(badger.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if _, err := Write(ctx, store, lex, types, logger); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
