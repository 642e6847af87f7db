package types

// ShapeDims is the number of Hu invariants describing one contour
const ShapeDims = 7

// ShapeVector holds the log-normalized Hu invariants of one contour
type ShapeVector [ShapeDims]float64

// FeatureData holds every shape descriptor extracted from one image.
// Shapes are kept in contour discovery order.
type FeatureData struct {
	NumShapes int           `json:"num_shapes"`
	Shapes    []ShapeVector `json:"shapes"`
}

// Append records one more shape and keeps NumShapes in step
func (f *FeatureData) Append(v ShapeVector) {
	f.Shapes = append(f.Shapes, v)
	f.NumShapes = len(f.Shapes)
}

// Flatten returns all shape vectors laid end-to-end
func (f FeatureData) Flatten() []float64 {
	out := make([]float64, 0, len(f.Shapes)*ShapeDims)
	for _, s := range f.Shapes {
		out = append(out, s[:]...)
	}
	return out
}

// Match is one ranked retrieval result
type Match struct {
	ID       string  `json:"id"`
	Distance float64 `json:"distance"`
}

// ImageDetails describes an image file on disk
type ImageDetails struct {
	Path     string            `json:"path"`
	Type     string            `json:"type"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
