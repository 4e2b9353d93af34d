// Package nim issues and parses student identifiers of the form
// YEAR-PROGRAMCODE-SEQUENCE, e.g. 2024-10-0001.
package nim

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

const (
	// MinYear is the earliest accepted enrollment year.
	MinYear = 2000
	// MaxYear is the latest accepted enrollment year.
	MaxYear = 2100
	// MaxSequence is the largest sequence that fits the four digit field.
	MaxSequence = 9999
)

var (
	// ErrInvalidProgram indicates the program name is not part of the program table.
	ErrInvalidProgram = errors.New("invalid program")
	// ErrInvalidYear indicates the enrollment year is outside [MinYear, MaxYear].
	ErrInvalidYear = errors.New("invalid enrollment year")
	// ErrMalformedIdentifier indicates a string that is not a YEAR-CODE-SEQUENCE identifier.
	ErrMalformedIdentifier = errors.New("malformed identifier")
	// ErrSequenceExhausted indicates every sequence for a (year, program) pair is taken.
	ErrSequenceExhausted = errors.New("identifier sequence exhausted")
)

var identifierPattern = regexp.MustCompile(`^([0-9]{4})-([0-9]{2})-([0-9]{4})$`)

// Identifier is the structured form of a student identifier.
type Identifier struct {
	Year        int    `json:"year"`
	ProgramCode string `json:"program_code"`
	Sequence    int    `json:"sequence"`
}

// String formats the identifier as YEAR-CODE-SEQUENCE with zero padding.
func (id Identifier) String() string {
	return fmt.Sprintf("%04d-%s-%04d", id.Year, id.ProgramCode, id.Sequence)
}

// Program resolves the program owning the identifier's code.
func (id Identifier) Program() (Program, bool) {
	return ProgramByCode(id.ProgramCode)
}

// Valid reports whether s has the exact 4-2-4 digit layout.
func Valid(s string) bool {
	return identifierPattern.MatchString(s)
}

// Parse splits a formatted identifier into its fields.
func Parse(s string) (Identifier, error) {
	match := identifierPattern.FindStringSubmatch(s)
	if match == nil {
		return Identifier{}, fmt.Errorf("%w: %q must match YYYY-KK-NNNN", ErrMalformedIdentifier, s)
	}

	year, err := strconv.Atoi(match[1])
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: %q", ErrMalformedIdentifier, s)
	}
	sequence, err := strconv.Atoi(match[3])
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: %q", ErrMalformedIdentifier, s)
	}

	return Identifier{Year: year, ProgramCode: match[2], Sequence: sequence}, nil
}

// Prefix returns the "YEAR-CODE-" prefix shared by every identifier of the pair.
func Prefix(year int, program Program) string {
	return fmt.Sprintf("%04d-%s-", year, program.Code())
}

// ValidateYear checks the enrollment year bounds.
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: %d must be between %d and %d", ErrInvalidYear, year, MinYear, MaxYear)
	}
	return nil
}
