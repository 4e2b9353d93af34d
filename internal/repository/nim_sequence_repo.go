package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/akademik-api/internal/models"
	"github.com/noah-isme/akademik-api/internal/nim"
)

// NIMSequenceRepository hands out identifiers from the per-(year, program) counter table.
type NIMSequenceRepository interface {
	Next(ctx context.Context, program nim.Program, year int) (nim.Identifier, error)
	Current(ctx context.Context, program nim.Program, year int) (int, error)
}

type nimSequenceRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewNIMSequenceRepository constructs the counter repository.
func NewNIMSequenceRepository(db *gorm.DB) NIMSequenceRepository {
	return &nimSequenceRepository{db: db, now: time.Now}
}

type txPrefixStore struct {
	tx *gorm.DB
}

func (s txPrefixStore) IdentifiersWithPrefix(_ context.Context, prefix string) ([]string, error) {
	return identifiersWithPrefix(s.tx, prefix)
}

// Next increments the counter row with a single upsert and returns the new value.
//
// When the row does not exist yet it is seeded from the highest identifier
// already stored in students. An existing row advances to
// max(last_sequence+1, stored max+1), so it also catches up with rows written
// outside the counter. The counter never moves backwards.
func (r *nimSequenceRepository) Next(ctx context.Context, program nim.Program, year int) (nim.Identifier, error) {
	var allocated nim.Identifier

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed, err := nim.Next(ctx, txPrefixStore{tx: tx}, program, year)
		if err != nil {
			return err
		}

		row := models.NIMSequence{
			EntryYear:    year,
			ProgramCode:  program.Code(),
			LastSequence: seed.Sequence,
			UpdatedAt:    r.now(),
		}

		upsert := clause.OnConflict{
			Columns: []clause.Column{{Name: "entry_year"}, {Name: "program_code"}},
			DoUpdates: clause.Set{
				{
					Column: clause.Column{Name: "last_sequence"},
					Value: gorm.Expr("CASE WHEN nim_sequences.last_sequence + 1 > excluded.last_sequence " +
						"THEN nim_sequences.last_sequence + 1 ELSE excluded.last_sequence END"),
				},
				{Column: clause.Column{Name: "updated_at"}, Value: row.UpdatedAt},
			},
		}
		if err := tx.Clauses(upsert).Create(&row).Error; err != nil {
			return fmt.Errorf("advance nim sequence: %w", err)
		}

		var current models.NIMSequence
		if err := tx.Where("entry_year = ? AND program_code = ?", year, program.Code()).First(&current).Error; err != nil {
			return fmt.Errorf("read nim sequence: %w", err)
		}

		if current.LastSequence > nim.MaxSequence {
			return fmt.Errorf("%w: %04d-%s reached %d", nim.ErrSequenceExhausted, year, program.Code(), nim.MaxSequence)
		}

		allocated = nim.Identifier{Year: year, ProgramCode: program.Code(), Sequence: current.LastSequence}
		return nil
	})
	if err != nil {
		return nim.Identifier{}, err
	}

	return allocated, nil
}

// Current returns the last sequence handed out for the pair, or 0.
func (r *nimSequenceRepository) Current(ctx context.Context, program nim.Program, year int) (int, error) {
	var current models.NIMSequence
	err := r.db.WithContext(ctx).
		Where("entry_year = ? AND program_code = ?", year, program.Code()).
		Limit(1).
		Find(&current).Error
	if err != nil {
		return 0, err
	}
	return current.LastSequence, nil
}

// raiseSequence lifts the pair's counter to at least id.Sequence inside tx so the
// identifier is never handed out again. It never lowers the counter.
func raiseSequence(tx *gorm.DB, id nim.Identifier, at time.Time) error {
	row := models.NIMSequence{
		EntryYear:    id.Year,
		ProgramCode:  id.ProgramCode,
		LastSequence: id.Sequence,
		UpdatedAt:    at,
	}

	upsert := clause.OnConflict{
		Columns: []clause.Column{{Name: "entry_year"}, {Name: "program_code"}},
		DoUpdates: clause.Set{
			{
				Column: clause.Column{Name: "last_sequence"},
				Value: gorm.Expr("CASE WHEN nim_sequences.last_sequence > excluded.last_sequence " +
					"THEN nim_sequences.last_sequence ELSE excluded.last_sequence END"),
			},
			{Column: clause.Column{Name: "updated_at"}, Value: at},
		},
	}
	if err := tx.Clauses(upsert).Create(&row).Error; err != nil {
		return fmt.Errorf("retire nim %s: %w", id, err)
	}
	return nil
}
