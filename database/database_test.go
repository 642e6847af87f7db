package database

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"shapefinder/features"
	"shapefinder/types"
)

func testStore() *features.Store {
	store := features.NewStore()
	store.Put("zeta", types.FeatureData{Shapes: []types.ShapeVector{{0.7781512504, 30, 30, 30, 30, 30, 30}}})
	store.Put("alpha", types.FeatureData{})
	store.Put("mid", types.FeatureData{Shapes: []types.ShapeVector{
		{1.5, -2.25, 3, 4, 5, 6, 7},
		{-1, -2, -3, -4, -5, -6, -7},
	}})
	return store
}

func TestStoreAndLoadFeatures(t *testing.T) {
	db, err := InitDatabase(filepath.Join(t.TempDir(), "features.db"))
	if err != nil {
		t.Fatalf("InitDatabase() error = %v", err)
	}
	defer db.Close()

	store := testStore()
	if err := StoreFeatures(db, "/data/shapes", store); err != nil {
		t.Fatalf("StoreFeatures() error = %v", err)
	}

	loaded, err := LoadFeatures(db, "/data/shapes")
	if err != nil {
		t.Fatalf("LoadFeatures() error = %v", err)
	}

	if got := strings.Join(loaded.IDs(), ","); got != "zeta,alpha,mid" {
		t.Errorf("IDs() = %s, want extraction order", got)
	}
	for _, id := range store.IDs() {
		want, _ := store.Get(id)
		got, _ := loaded.Get(id)
		wantLine, _ := features.EncodeLine(id, want)
		gotLine, _ := features.EncodeLine(id, got)
		if gotLine != wantLine {
			t.Errorf("%s: got %q, want %q", id, gotLine, wantLine)
		}
	}

	other, err := LoadFeatures(db, "/data/other")
	if err != nil {
		t.Fatalf("LoadFeatures(other) error = %v", err)
	}
	if other.Len() != 0 {
		t.Errorf("unknown source returned %d images", other.Len())
	}
}

func TestStoreFeaturesReplacesSnapshot(t *testing.T) {
	db, err := InitDatabase(filepath.Join(t.TempDir(), "features.db"))
	if err != nil {
		t.Fatalf("InitDatabase() error = %v", err)
	}
	defer db.Close()

	if err := StoreFeatures(db, "dir", testStore()); err != nil {
		t.Fatalf("StoreFeatures() error = %v", err)
	}

	smaller := features.NewStore()
	smaller.Put("only", types.FeatureData{Shapes: []types.ShapeVector{{1, 2, 3, 4, 5, 6, 7}}})
	if err := StoreFeatures(db, "dir", smaller); err != nil {
		t.Fatalf("second StoreFeatures() error = %v", err)
	}
	if err := StoreFeatures(db, "elsewhere", testStore()); err != nil {
		t.Fatalf("StoreFeatures(elsewhere) error = %v", err)
	}

	stats, err := GetStoreStats(db, "dir")
	if err != nil {
		t.Fatalf("GetStoreStats() error = %v", err)
	}
	if stats.TotalImages != 1 || stats.TotalShapes != 1 || stats.EmptyImages != 0 {
		t.Errorf("stats = %+v, want one image with one shape", *stats)
	}

	stats, err = GetStoreStats(db, "elsewhere")
	if err != nil {
		t.Fatalf("GetStoreStats(elsewhere) error = %v", err)
	}
	if stats.TotalImages != 3 || stats.TotalShapes != 3 || stats.EmptyImages != 1 {
		t.Errorf("stats = %+v, want 3 images, 3 shapes, 1 empty", *stats)
	}

	sources, err := ListSources(db)
	if err != nil {
		t.Fatalf("ListSources() error = %v", err)
	}
	if strings.Join(sources, ",") != "dir,elsewhere" {
		t.Errorf("ListSources() = %v", sources)
	}
}

func TestInitDatabaseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.db")

	for i := 0; i < 2; i++ {
		db, err := InitDatabase(path)
		if err != nil {
			t.Fatalf("InitDatabase() run %d error = %v", i+1, err)
		}
		db.Close()
	}

	db, err := OpenDatabase(path)
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	defer db.Close()

	stats, err := GetStoreStats(db, "any")
	if err != nil {
		t.Fatalf("GetStoreStats() error = %v", err)
	}
	if stats.TotalImages != 0 || stats.TotalShapes != 0 {
		t.Errorf("fresh database stats = %+v", *stats)
	}
}

func TestResolveSource(t *testing.T) {
	db, err := InitDatabase(filepath.Join(t.TempDir(), "features.db"))
	if err != nil {
		t.Fatalf("InitDatabase() error = %v", err)
	}
	defer db.Close()

	if _, err := ResolveSource(db, ""); !errors.Is(err, ErrNoFeatures) {
		t.Errorf("empty database: error = %v, want ErrNoFeatures", err)
	}

	if err := StoreFeatures(db, "/data/one", testStore()); err != nil {
		t.Fatal(err)
	}
	got, err := ResolveSource(db, "")
	if err != nil || got != "/data/one" {
		t.Errorf("single source: got %q, %v", got, err)
	}

	if err := StoreFeatures(db, "/data/two", testStore()); err != nil {
		t.Fatal(err)
	}
	_, err = ResolveSource(db, "")
	if !errors.Is(err, ErrSourceRequired) {
		t.Fatalf("two sources: error = %v, want ErrSourceRequired", err)
	}
	if !strings.Contains(err.Error(), "/data/one, /data/two") {
		t.Errorf("error %q does not list the folders", err)
	}

	if got, err := ResolveSource(db, "/data/two"); err != nil || got != "/data/two" {
		t.Errorf("explicit source: got %q, %v", got, err)
	}
}
