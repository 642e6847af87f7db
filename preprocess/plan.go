package preprocess

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Mode says how a selection will be applied
type Mode int

const (
	// ModeAll runs the full chain and overwrites each image in place
	ModeAll Mode = iota
	// ModeSingle writes one operation's outputs into its own subdirectory
	ModeSingle
	// ModeComposite chains a partial selection into a combined subdirectory.
	// Only produced when composition is allowed.
	ModeComposite
)

func (m Mode) String() string {
	switch m {
	case ModeAll:
		return "all"
	case ModeSingle:
		return "single"
	case ModeComposite:
		return "composite"
	default:
		return "unknown"
	}
}

var (
	// ErrNothingSelected is reported when a run selects no operation
	ErrNothingSelected = errors.New("no preprocessing operation selected, nothing to do")
	// ErrAmbiguousSelection is reported for two or three selected operations
	ErrAmbiguousSelection = errors.New("only a single operation or all four operations can be applied")
)

// Selection is the set of operations a caller asked for
type Selection []Operation

// Canonical returns the selection without duplicates, in chain order
func (s Selection) Canonical() Selection {
	seen := make(map[Operation]bool, len(s))
	out := make(Selection, 0, len(s))
	for _, op := range s {
		if seen[op] {
			continue
		}
		seen[op] = true
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DirName joins the operation directory names with '+'
func (s Selection) DirName() string {
	names := make([]string, len(s))
	for i, op := range s {
		names[i] = op.DirName()
	}
	return strings.Join(names, "+")
}

// Resolved is a selection that passed Plan
type Resolved struct {
	Mode       Mode
	Operations Selection
}

// Plan decides how sel will run. Partial selections are refused unless
// allowComposition is set.
func Plan(sel Selection, allowComposition bool) (Resolved, error) {
	for _, op := range sel {
		if !op.Valid() {
			return Resolved{}, fmt.Errorf("%w: %d", ErrUnknownOperation, int(op))
		}
	}
	ops := sel.Canonical()

	switch {
	case len(ops) == 0:
		return Resolved{}, ErrNothingSelected
	case len(ops) == len(AllOperations):
		return Resolved{Mode: ModeAll, Operations: ops}, nil
	case len(ops) == 1:
		return Resolved{Mode: ModeSingle, Operations: ops}, nil
	case allowComposition:
		return Resolved{Mode: ModeComposite, Operations: ops}, nil
	default:
		return Resolved{}, ErrAmbiguousSelection
	}
}
