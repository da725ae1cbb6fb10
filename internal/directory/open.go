package directory

import (
	"context"
	"fmt"

	"github.com/NikolasNeofytou/task-flow/internal/config"
	"github.com/NikolasNeofytou/task-flow/internal/core"
)

// Open builds the directory backend named by cfg and seeds the demo user
// into it. The returned func releases the backend.
func Open(ctx context.Context, cfg config.DirectoryConfig) (core.UserDirectory, func() error, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemory(DemoUser()), func() error { return nil }, nil
	case "badger":
		b, err := OpenBadger(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		if _, err := b.Lookup(ctx, DemoUser().ID); err != nil {
			if err := b.Put(ctx, DemoUser()); err != nil {
				_ = b.Close()
				return nil, nil, err
			}
		}
		return b, b.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown directory backend %q", cfg.Backend)
	}
}
