// Package retrieval ranks stored images by shape distance to a query image.
package retrieval

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"shapefinder/features"
	"shapefinder/logging"
	"shapefinder/types"

	"gonum.org/v1/gonum/floats"
)

// DefaultTopK is the number of results returned when the caller has no preference
const DefaultTopK = 5

var (
	// ErrNotFound is returned when the query identifier is not in the store
	ErrNotFound = errors.New("query image not found in feature store")
	// ErrInvalidTopK is returned for a negative result count
	ErrInvalidTopK = errors.New("result count must not be negative")
)

// Pairing selects how query and candidate shape vectors are matched up
type Pairing int

const (
	// PairingLiteral scores each candidate vector v as the sum over all
	// query vectors q of |q - v|, and keeps the best v. This is the
	// behavior existing feature files were ranked with.
	PairingLiteral Pairing = iota
	// PairingPositional sums |query[i] - candidate[i]| over the shorter
	// of the two lists.
	PairingPositional
)

// String returns the flag spelling of the pairing
func (p Pairing) String() string {
	switch p {
	case PairingLiteral:
		return "literal"
	case PairingPositional:
		return "positional"
	default:
		return fmt.Sprintf("Pairing(%d)", int(p))
	}
}

// ParsePairing converts a flag value to a Pairing
func ParsePairing(s string) (Pairing, error) {
	switch s {
	case "", "literal":
		return PairingLiteral, nil
	case "positional":
		return PairingPositional, nil
	default:
		return PairingLiteral, fmt.Errorf("unknown pairing %q (use literal or positional)", s)
	}
}

// Options tunes a retrieval
type Options struct {
	Pairing   Pairing
	DebugMode bool
}

// Retrieve scores every image in store against queryID and returns the k
// closest, ascending by distance. Equal distances keep the query first and
// then store order. Images without shapes score +Inf.
func Retrieve(store *features.Store, queryID string, k int, options Options) ([]types.Match, error) {
	if k < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTopK, k)
	}

	query, ok := store.Get(queryID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, queryID)
	}

	if options.DebugMode {
		logging.DebugLog("Retrieving top %d for %s (%d shapes, pairing %s) over %d images",
			k, queryID, query.NumShapes, options.Pairing, store.Len())
	}

	matches := make([]types.Match, 0, store.Len())
	store.Each(func(id string, candidate types.FeatureData) {
		var score float64
		switch options.Pairing {
		case PairingPositional:
			score = positionalDistance(query.Shapes, candidate.Shapes)
		default:
			score = literalDistance(query.Shapes, candidate.Shapes)
		}
		matches = append(matches, types.Match{ID: id, Distance: score})
	})

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].ID == queryID && matches[j].ID != queryID
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// literalDistance reuses each candidate vector against every query index
func literalDistance(query, candidate []types.ShapeVector) float64 {
	best := math.Inf(1)
	for _, stored := range candidate {
		distance := 0.0
		for i := range query {
			distance += euclidean(query[i], stored)
		}
		if distance < best {
			best = distance
		}
	}
	return best
}

func positionalDistance(query, candidate []types.ShapeVector) float64 {
	n := len(query)
	if len(candidate) < n {
		n = len(candidate)
	}
	if n == 0 {
		return math.Inf(1)
	}

	distance := 0.0
	for i := 0; i < n; i++ {
		distance += euclidean(query[i], candidate[i])
	}
	return distance
}

func euclidean(a, b types.ShapeVector) float64 {
	return floats.Distance(a[:], b[:], 2)
}
