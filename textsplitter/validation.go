package textsplitter

import (
	"fmt"

	"github.com/sevigo/repochunk/schema"
)

// MaxChunkUnits caps the configurable budget.
const MaxChunkUnits = 16000

// ValidateChunkingOptions validates the provided chunking options for correctness.
func ValidateChunkingOptions(opts *schema.ChunkingOptions) error {
	if opts == nil {
		return nil
	}

	if opts.MaxUnits < 0 {
		return fmt.Errorf("%w: chunk size cannot be negative: %d", ErrInvalidChunkSize, opts.MaxUnits)
	}

	if opts.MaxUnits > MaxChunkUnits {
		return fmt.Errorf("%w: chunk size too large: %d (max: %d)", ErrInvalidChunkSize, opts.MaxUnits, MaxChunkUnits)
	}

	return nil
}

// MaxUnits returns the effective budget carried by opts.
func MaxUnits(opts *schema.ChunkingOptions) int {
	if opts == nil {
		return DefaultMaxUnits
	}
	return EffectiveMaxUnits(opts.MaxUnits)
}
