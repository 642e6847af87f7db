package features

import (
	"strings"
	"testing"

	"shapefinder/types"
)

func TestStoreKeepsInsertionOrder(t *testing.T) {
	store := NewStore()
	for _, id := range []string{"zeta", "alpha", "mid"} {
		store.Put(id, types.FeatureData{})
	}

	if got := strings.Join(store.IDs(), ","); got != "zeta,alpha,mid" {
		t.Errorf("IDs() = %s", got)
	}

	// Replacing keeps the original slot
	store.Put("zeta", types.FeatureData{Shapes: []types.ShapeVector{{1}}})
	if got := strings.Join(store.IDs(), ","); got != "zeta,alpha,mid" {
		t.Errorf("IDs() after replace = %s", got)
	}
	if store.Len() != 3 {
		t.Errorf("Len() = %d, want 3", store.Len())
	}

	var visited []string
	store.Each(func(id string, _ types.FeatureData) { visited = append(visited, id) })
	if strings.Join(visited, ",") != "zeta,alpha,mid" {
		t.Errorf("Each visited %v", visited)
	}
}

func TestStorePutFixesShapeCount(t *testing.T) {
	store := NewStore()
	store.Put("A", types.FeatureData{NumShapes: 5, Shapes: []types.ShapeVector{{1}, {2}}})

	data, ok := store.Get("A")
	if !ok {
		t.Fatal("A missing")
	}
	if data.NumShapes != 2 {
		t.Errorf("NumShapes = %d, want 2", data.NumShapes)
	}
}

func TestStoreReset(t *testing.T) {
	store := NewStore()
	store.Put("A", types.FeatureData{})
	store.Reset()

	if store.Len() != 0 {
		t.Errorf("Len() = %d after Reset", store.Len())
	}
	if _, ok := store.Get("A"); ok {
		t.Error("A still present after Reset")
	}
}

func TestStoreIDsIsACopy(t *testing.T) {
	store := NewStore()
	store.Put("A", types.FeatureData{})

	ids := store.IDs()
	ids[0] = "changed"
	if store.IDs()[0] != "A" {
		t.Error("IDs() exposed internal order")
	}
}

func TestZeroStoreIsUsable(t *testing.T) {
	var store Store
	store.Put("A", types.FeatureData{})
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}
