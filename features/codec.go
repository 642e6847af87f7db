package features

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"shapefinder/types"
)

// FeatureDirName and FeatureFileName locate the persisted store below a
// working directory
const (
	FeatureDirName  = "feature-extraction"
	FeatureFileName = "output_features.dat"
)

// SignificantDigits is the precision every moment is written with
const SignificantDigits = 10

var (
	// ErrInvalidIdentifier is returned for identifiers the line format cannot hold
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrMalformedLine is returned when a persisted line cannot be regrouped
	ErrMalformedLine = errors.New("malformed feature line")
)

// ValidIdentifier reports whether id survives the space-separated encoding
func ValidIdentifier(id string) bool {
	if id == "" {
		return false
	}
	return strings.IndexFunc(id, unicode.IsSpace) < 0
}

// FormatMoment renders one value the way the feature file stores it
func FormatMoment(v float64) string {
	return strconv.FormatFloat(v, 'g', SignificantDigits, 64)
}

// EncodeLine renders one image as "<id> <numShapes> <m1> ... <m7n>"
func EncodeLine(id string, data types.FeatureData) (string, error) {
	if !ValidIdentifier(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}

	fields := make([]string, 0, 2+len(data.Shapes)*types.ShapeDims)
	fields = append(fields, id, strconv.Itoa(len(data.Shapes)))
	for _, v := range data.Flatten() {
		fields = append(fields, FormatMoment(v))
	}
	return strings.Join(fields, " "), nil
}

// Encode writes the whole store, one line per image, in insertion order
func Encode(w io.Writer, store *Store) error {
	bw := bufio.NewWriter(w)

	var err error
	store.Each(func(id string, data types.FeatureData) {
		if err != nil {
			return
		}
		var line string
		if line, err = EncodeLine(id, data); err != nil {
			return
		}
		_, err = bw.WriteString(line + "\n")
	})
	if err != nil {
		return err
	}

	return bw.Flush()
}

// DecodeLine parses one persisted line. Values are regrouped by the fixed
// width of 7 and must match numShapes exactly.
func DecodeLine(line string) (string, types.FeatureData, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", types.FeatureData{}, fmt.Errorf("%w: expected identifier and shape count", ErrMalformedLine)
	}

	id := fields[0]
	numShapes, err := strconv.Atoi(fields[1])
	if err != nil || numShapes < 0 {
		return "", types.FeatureData{}, fmt.Errorf("%w: bad shape count %q for %s", ErrMalformedLine, fields[1], id)
	}

	values := fields[2:]
	if len(values) != numShapes*types.ShapeDims {
		return "", types.FeatureData{}, fmt.Errorf("%w: %s declares %d shapes but has %d values",
			ErrMalformedLine, id, numShapes, len(values))
	}

	data := types.FeatureData{Shapes: make([]types.ShapeVector, 0, numShapes)}
	for s := 0; s < numShapes; s++ {
		var v types.ShapeVector
		for i := range v {
			raw := values[s*types.ShapeDims+i]
			v[i], err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return "", types.FeatureData{}, fmt.Errorf("%w: bad value %q for %s", ErrMalformedLine, raw, id)
			}
		}
		data.Append(v)
	}
	return id, data, nil
}

// Decode reads a persisted store. Blank lines are ignored and every
// identifier must appear once.
func Decode(r io.Reader) (*Store, error) {
	store := NewStore()

	sc := bufio.NewScanner(r)
	// A single image may hold many shapes, so allow long lines
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	seen := make(map[string]int)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		id, data, err := DecodeLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if first, dup := seen[id]; dup {
			return nil, fmt.Errorf("line %d: %w: identifier %s already defined on line %d",
				lineNo, ErrMalformedLine, id, first)
		}
		seen[id] = lineNo
		store.Put(id, data)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read features: %w", err)
	}
	return store, nil
}

// SaveFile writes the store to path, replacing any previous snapshot
func SaveFile(path string, store *Store) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to open output file %s: %w", path, err)
	}

	if err := Encode(f, store); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// LoadFile reads a store previously written by SaveFile
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open features %s: %w", path, err)
	}
	defer f.Close()

	return Decode(f)
}
