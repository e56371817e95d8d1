package embedcache

import "slices"

// Embeddings is an immutable mapping from scheme name to vector. Names are
// kept in canonical order so iteration is deterministic.
type Embeddings struct {
	names   []string
	vectors map[string][]float32
	digest  string
	hit     bool
}

// Names returns the canonical scheme list.
func (e *Embeddings) Names() []string {
	return slices.Clone(e.names)
}

// Vector returns the embedding for name.
func (e *Embeddings) Vector(name string) ([]float32, bool) {
	v, ok := e.vectors[name]
	return v, ok
}

// Len returns the number of schemes.
func (e *Embeddings) Len() int {
	return len(e.names)
}

// Dimension returns the vector size, or 0 when empty.
func (e *Embeddings) Dimension() int {
	if len(e.names) == 0 {
		return 0
	}
	return len(e.vectors[e.names[0]])
}

// Digest identifies the scheme list the vectors were built from.
func (e *Embeddings) Digest() string {
	return e.digest
}

// CacheHit reports whether the vectors came from the persisted snapshot.
func (e *Embeddings) CacheHit() bool {
	return e.hit
}

// Each calls fn for every scheme in canonical order.
func (e *Embeddings) Each(fn func(name string, vector []float32)) {
	for _, name := range e.names {
		fn(name, e.vectors[name])
	}
}
