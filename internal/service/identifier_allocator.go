package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/akademik-api/internal/nim"
	"github.com/noah-isme/akademik-api/internal/observability"
	"github.com/noah-isme/akademik-api/internal/repository"
)

// Identifier allocation strategies.
const (
	StrategyCounter = "counter"
	StrategyScan    = "scan"
)

// IdentifierAllocator hands out the next NIM for a program and entry year.
type IdentifierAllocator interface {
	Allocate(ctx context.Context, program nim.Program, year int) (nim.Identifier, error)
	Strategy() string
}

// NewIdentifierAllocator selects the allocator for strategy. An empty strategy
// selects the counter. Both strategies read the nim_sequences mark, so both need
// a sequence repository.
func NewIdentifierAllocator(strategy string, students repository.StudentRepository, sequences repository.NIMSequenceRepository, logger zerolog.Logger) (IdentifierAllocator, error) {
	logger = logger.With().Str("component", "identifier_allocator").Logger()

	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyCounter:
		if sequences == nil {
			return nil, fmt.Errorf("counter strategy requires a sequence repository")
		}
		return &counterAllocator{sequences: sequences, logger: logger}, nil
	case StrategyScan:
		if students == nil {
			return nil, fmt.Errorf("scan strategy requires a student repository")
		}
		if sequences == nil {
			return nil, fmt.Errorf("scan strategy requires a sequence repository")
		}
		return &scanAllocator{store: students, sequences: sequences, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown nim strategy %q", strategy)
	}
}

// scanAllocator reads the highest stored identifier and adds one, skipping past
// identifiers retired by deletes. Concurrent callers can receive the same value;
// the insert's primary key settles it.
type scanAllocator struct {
	store     nim.Store
	sequences repository.NIMSequenceRepository
	logger    zerolog.Logger
}

func (a *scanAllocator) Strategy() string { return StrategyScan }

func (a *scanAllocator) Allocate(ctx context.Context, program nim.Program, year int) (nim.Identifier, error) {
	id, err := nim.Next(ctx, a.store, program, year)
	if err != nil {
		return nim.Identifier{}, err
	}

	retired, err := a.sequences.Current(ctx, program, year)
	if err != nil {
		return nim.Identifier{}, fmt.Errorf("read retired nim mark: %w", err)
	}
	if retired >= id.Sequence {
		id.Sequence = retired + 1
	}
	if id.Sequence > nim.MaxSequence {
		return nim.Identifier{}, fmt.Errorf("%w: %04d-%s reached %d", nim.ErrSequenceExhausted, year, program.Code(), nim.MaxSequence)
	}

	observability.NIMAllocations().WithLabelValues(StrategyScan, program.String()).Inc()
	a.logger.Debug().Str("nim", id.String()).Msg("identifier allocated")
	return id, nil
}

// counterAllocator advances the persisted per-pair counter atomically.
type counterAllocator struct {
	sequences repository.NIMSequenceRepository
	logger    zerolog.Logger
}

func (a *counterAllocator) Strategy() string { return StrategyCounter }

func (a *counterAllocator) Allocate(ctx context.Context, program nim.Program, year int) (nim.Identifier, error) {
	id, err := a.sequences.Next(ctx, program, year)
	if err != nil {
		return nim.Identifier{}, err
	}

	observability.NIMAllocations().WithLabelValues(StrategyCounter, program.String()).Inc()
	a.logger.Debug().Str("nim", id.String()).Msg("identifier allocated")
	return id, nil
}
