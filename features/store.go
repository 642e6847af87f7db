package features

import (
	"shapefinder/types"
)

// Store maps image identifiers to their extracted features. Identifiers
// keep their insertion order, which fixes encoding order and retrieval
// tie-breaks. A Store is not safe for concurrent use.
type Store struct {
	order []string
	items map[string]types.FeatureData
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{items: make(map[string]types.FeatureData)}
}

// Reset discards every entry
func (s *Store) Reset() {
	s.order = nil
	s.items = make(map[string]types.FeatureData)
}

// Put inserts or replaces the features of id. A replaced id keeps its
// original position.
func (s *Store) Put(id string, data types.FeatureData) {
	if s.items == nil {
		s.items = make(map[string]types.FeatureData)
	}
	if _, exists := s.items[id]; !exists {
		s.order = append(s.order, id)
	}
	data.NumShapes = len(data.Shapes)
	s.items[id] = data
}

// Get returns the features of id
func (s *Store) Get(id string) (types.FeatureData, bool) {
	data, ok := s.items[id]
	return data, ok
}

// Len returns the number of stored images
func (s *Store) Len() int {
	return len(s.order)
}

// IDs returns the identifiers in insertion order
func (s *Store) IDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Each calls fn for every entry in insertion order
func (s *Store) Each(fn func(id string, data types.FeatureData)) {
	for _, id := range s.order {
		fn(id, s.items[id])
	}
}
