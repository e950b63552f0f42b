// Package gallery holds the cat gallery view: its state, the fetch that
// fills it and the HTML projection of it.
package gallery

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"catsgallery/structs"
)

type Fetcher interface {
	FetchCats(ctx context.Context) ([]structs.Cat, error)
}

// FetchRecord describes one finished fetch. Committed is false when the
// fetch failed or when a later issued fetch had already been committed.
type FetchRecord struct {
	Generation uint64
	Cats       []structs.Cat
	Committed  bool
	Err        error
	Duration   time.Duration
}

type ViewOption func(*View)

func WithObserver(observer func(FetchRecord)) ViewOption {
	return func(v *View) {
		v.observer = observer
	}
}

type View struct {
	fetcher  Fetcher
	observer func(FetchRecord)
	mounted  atomic.Bool

	mu        sync.Mutex
	cats      []structs.Cat
	issued    uint64
	committed uint64
}

func NewView(fetcher Fetcher, opts ...ViewOption) *View {
	v := &View{
		fetcher: fetcher,
		cats:    []structs.Cat{},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Mount runs the initial fetch. Only the first call does anything.
func (v *View) Mount(ctx context.Context) error {
	if !v.mounted.CompareAndSwap(false, true) {
		return nil
	}
	return v.Fetch(ctx)
}

// Fetch asks for a fresh batch and replaces the state with it. Overlapping
// calls are allowed; a result is dropped when a fetch issued after it has
// already been committed. On error the state is left as it was.
func (v *View) Fetch(ctx context.Context) error {
	v.mu.Lock()
	v.issued++
	generation := v.issued
	v.mu.Unlock()

	start := time.Now()
	cats, err := v.fetcher.FetchCats(ctx)
	record := FetchRecord{
		Generation: generation,
		Cats:       cats,
		Err:        err,
		Duration:   time.Since(start),
	}

	if err == nil {
		v.mu.Lock()
		if generation > v.committed {
			v.cats = cats
			v.committed = generation
			record.Committed = true
		}
		v.mu.Unlock()
	}

	if v.observer != nil {
		v.observer(record)
	}
	return err
}

// Refresh always fetches. It also counts as the mount of a view that was not
// mounted yet, so a later Mount does not fetch again.
func (v *View) Refresh(ctx context.Context) error {
	v.mounted.Store(true)
	return v.Fetch(ctx)
}

// Cats returns a copy of the displayed descriptors.
func (v *View) Cats() []structs.Cat {
	v.mu.Lock()
	defer v.mu.Unlock()
	cats := make([]structs.Cat, len(v.cats))
	copy(cats, v.cats)
	return cats
}

// Generation is the generation of the fetch currently displayed, zero while
// nothing was committed yet.
func (v *View) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.committed
}
