package imageprocessor

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"gocv.io/x/gocv"
)

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders map[string]ImageLoader
	mutex   sync.RWMutex
}

var (
	defaultRegistry     *ImageLoaderRegistry
	defaultRegistryOnce sync.Once
)

// NewImageLoaderRegistry creates a new image loader registry
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	standardLoader := NewStandardImageLoader()
	registry.RegisterLoader(".jpg", standardLoader)
	registry.RegisterLoader(".jpeg", standardLoader)
	registry.RegisterLoader(".png", standardLoader)
	registry.RegisterLoader(".bmp", standardLoader)

	legacyLoader := NewLegacyImageLoader()
	registry.RegisterLoader(".gif", legacyLoader)
	registry.RegisterLoader(".tif", legacyLoader)
	registry.RegisterLoader(".tiff", legacyLoader)

	return registry
}

// DefaultRegistry returns the process-wide registry with the built-in loaders
func DefaultRegistry() *ImageLoaderRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewImageLoaderRegistry()
	})
	return defaultRegistry
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.loaders[strings.ToLower(ext)] = loader
}

// GetLoader returns the loader registered for the path's extension, or nil
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.loaders[strings.ToLower(filepath.Ext(path))]
}

// CanLoadFile checks if any registered loader can handle the given file
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	loader := r.GetLoader(path)
	return loader != nil && loader.CanLoad(path)
}

// LoadImage loads an image using the appropriate registered loader
func (r *ImageLoaderRegistry) LoadImage(path string) (gocv.Mat, error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return gocv.NewMat(), fmt.Errorf("no suitable loader found for: %s", path)
	}
	if !r.CanLoadFile(path) {
		return gocv.NewMat(), newImageLoadError("cannot read image", path)
	}

	return loader.LoadImage(path)
}

// LoadImage loads an image through the default registry
func LoadImage(path string) (gocv.Mat, error) {
	return DefaultRegistry().LoadImage(path)
}
