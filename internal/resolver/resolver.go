// Package resolver maps human-readable names to entity identifiers created
// earlier in the same import run.
package resolver

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/wordup-dev/wordup/internal/store"
)

// ErrNotFound is returned for a lookup-only kind whose name was never recorded.
var ErrNotFound = errors.New("reference not found")

// Kind selects a name space.
type Kind int

const (
	KindCategory Kind = iota + 1
	KindMenu
	KindAuthor
	KindFeaturedImage
)

// Kinds lists every name space in a stable order.
var Kinds = []Kind{KindCategory, KindMenu, KindAuthor, KindFeaturedImage}

func (k Kind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindMenu:
		return "menu"
	case KindAuthor:
		return "author"
	case KindFeaturedImage:
		return "featured_image"
	default:
		return "unknown"
	}
}

// Lazy reports whether the kind is created on first reference.
func (k Kind) Lazy() bool {
	return k == KindCategory || k == KindMenu
}

type mapping struct {
	byName map[string]store.ID
	byID   map[store.ID]string
	// failed holds lazy names whose creation already failed this run.
	failed map[string]error
}

func newMapping() *mapping {
	return &mapping{
		byName: make(map[string]store.ID),
		byID:   make(map[store.ID]string),
		failed: make(map[string]error),
	}
}

// Resolver owns the per-run name mappings. It is not safe for concurrent use;
// the import pipeline is sequential.
type Resolver struct {
	store    store.ContentStore
	mappings map[Kind]*mapping
}

// New creates an empty resolver backed by s for lazy creation.
func New(s store.ContentStore) *Resolver {
	r := &Resolver{
		store:    s,
		mappings: make(map[Kind]*mapping, len(Kinds)),
	}
	for _, kind := range Kinds {
		r.mappings[kind] = newMapping()
	}
	return r
}

// ResolveOrCreate returns the id recorded for name. Categories and menus that
// are not yet recorded are created through the store first. A failed creation
// is remembered, so later references return the same error without another
// store call. Authors and featured images are looked up only and yield
// ErrNotFound when absent.
func (r *Resolver) ResolveOrCreate(ctx context.Context, kind Kind, name string) (store.ID, error) {
	if id, ok := r.Lookup(kind, name); ok {
		return id, nil
	}
	if !kind.Lazy() {
		return store.NoID, errors.Wrapf(ErrNotFound, "%s %q", kind, name)
	}
	m := r.mappings[kind]
	if err, ok := m.failed[name]; ok {
		return store.NoID, err
	}

	var (
		id  store.ID
		err error
	)
	switch kind {
	case KindCategory:
		id, err = r.store.CreateTerm(ctx, store.TaxonomyCategory, name)
	case KindMenu:
		id, err = r.store.CreateMenu(ctx, name)
	}
	if err != nil {
		err = errors.Wrapf(err, "create %s %q", kind, name)
		if ctx.Err() == nil {
			m.failed[name] = err
		}
		return store.NoID, err
	}
	r.Record(kind, id, name)
	return id, nil
}

// Lookup returns the id recorded for name without touching the store.
func (r *Resolver) Lookup(kind Kind, name string) (store.ID, bool) {
	m, ok := r.mappings[kind]
	if !ok {
		return store.NoID, false
	}
	id, ok := m.byName[name]
	return id, ok
}

// Record stores id -> name. When two ids share a name the first one wins the
// name lookup; both stay in the id mapping.
func (r *Resolver) Record(kind Kind, id store.ID, name string) {
	m, ok := r.mappings[kind]
	if !ok {
		return
	}
	m.byID[id] = name
	if _, exists := m.byName[name]; !exists {
		m.byName[name] = id
	}
}

// ByID returns a copy of the id -> name mapping for kind.
func (r *Resolver) ByID(kind Kind) map[store.ID]string {
	out := make(map[store.ID]string)
	m, ok := r.mappings[kind]
	if !ok {
		return out
	}
	for id, name := range m.byID {
		out[id] = name
	}
	return out
}
