package nim

import (
	"context"
	"fmt"
	"strings"
)

// Store lists the identifiers already persisted under a "YEAR-CODE-" prefix.
type Store interface {
	IdentifiersWithPrefix(ctx context.Context, prefix string) ([]string, error)
}

// Generate returns the next identifier for programName and year as a string.
//
// It reads the store once and returns max(existing sequence)+1. Nothing is
// persisted, so two concurrent callers may receive the same value; the caller
// must insert under a uniqueness constraint and regenerate on a duplicate key.
func Generate(ctx context.Context, store Store, programName string, year int) (string, error) {
	program, err := ParseProgram(programName)
	if err != nil {
		return "", err
	}

	id, err := Next(ctx, store, program, year)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Next is Generate for an already resolved program.
func Next(ctx context.Context, store Store, program Program, year int) (Identifier, error) {
	if !program.Valid() {
		return Identifier{}, fmt.Errorf("%w: %s", ErrInvalidProgram, program)
	}
	if err := ValidateYear(year); err != nil {
		return Identifier{}, err
	}

	prefix := Prefix(year, program)
	existing, err := store.IdentifiersWithPrefix(ctx, prefix)
	if err != nil {
		return Identifier{}, fmt.Errorf("list identifiers for %s: %w", strings.TrimSuffix(prefix, "-"), err)
	}

	next := MaxSequenceOf(existing, year, program.Code()) + 1
	if next > MaxSequence {
		return Identifier{}, fmt.Errorf("%w: %s reached %d", ErrSequenceExhausted, strings.TrimSuffix(prefix, "-"), MaxSequence)
	}

	return Identifier{Year: year, ProgramCode: program.Code(), Sequence: next}, nil
}

// MaxSequenceOf returns the highest sequence among identifiers belonging to
// (year, code). Identifiers of other pairs and malformed values are ignored.
func MaxSequenceOf(identifiers []string, year int, code string) int {
	highest := 0
	for _, raw := range identifiers {
		id, err := Parse(raw)
		if err != nil {
			continue
		}
		if id.Year != year || id.ProgramCode != code {
			continue
		}
		if id.Sequence > highest {
			highest = id.Sequence
		}
	}
	return highest
}
