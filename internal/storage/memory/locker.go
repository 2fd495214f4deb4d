package memory

import (
	"context"
	"sync"

	"github.com/imadgeboyega/kiekky-weekly/internal/matching"
)

// Locker serialises generation runs inside one process.
type Locker struct {
	mu     sync.Mutex
	active map[string]struct{}
}

var _ matching.Locker = (*Locker)(nil)

func NewLocker() *Locker {
	return &Locker{active: make(map[string]struct{})}
}

func (l *Locker) Acquire(ctx context.Context, promptKey string) (func(context.Context) error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.active[promptKey]; held {
		return nil, matching.ErrRunInProgress
	}
	l.active[promptKey] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, promptKey)
			l.mu.Unlock()
		})
		return nil
	}, nil
}
