package nim

import (
	"fmt"
	"strings"
)

// Program enumerates the degree programs that can issue student identifiers.
type Program int

// Known programs. The zero value is not a valid program.
const (
	_ Program = iota
	TeknikInformatika
	SistemInformasi
	IlmuKomputer
	RekayasaPerangkatLunak
	Cybersecurity
	SainsData
)

var allPrograms = []Program{
	TeknikInformatika,
	SistemInformasi,
	IlmuKomputer,
	RekayasaPerangkatLunak,
	Cybersecurity,
	SainsData,
}

// Programs returns the known programs ordered by code.
func Programs() []Program {
	out := make([]Program, len(allPrograms))
	copy(out, allPrograms)
	return out
}

// String returns the canonical program name.
func (p Program) String() string {
	switch p {
	case TeknikInformatika:
		return "teknik_informatika"
	case SistemInformasi:
		return "sistem_informasi"
	case IlmuKomputer:
		return "ilmu_komputer"
	case RekayasaPerangkatLunak:
		return "rekayasa_perangkat_lunak"
	case Cybersecurity:
		return "cybersecurity"
	case SainsData:
		return "sains_data"
	default:
		return fmt.Sprintf("program(%d)", int(p))
	}
}

// Code returns the two digit code embedded in identifiers, or "" for unknown programs.
func (p Program) Code() string {
	switch p {
	case TeknikInformatika:
		return "10"
	case SistemInformasi:
		return "20"
	case IlmuKomputer:
		return "30"
	case RekayasaPerangkatLunak:
		return "40"
	case Cybersecurity:
		return "50"
	case SainsData:
		return "60"
	default:
		return ""
	}
}

// Valid reports whether p is one of the known programs.
func (p Program) Valid() bool {
	return p.Code() != ""
}

// ParseProgram resolves a program name. Matching ignores case and treats spaces
// and dashes as underscores, so "Teknik Informatika" resolves to TeknikInformatika.
func ParseProgram(name string) (Program, error) {
	normalized := normalizeProgramName(name)
	for _, p := range allPrograms {
		if p.String() == normalized {
			return p, nil
		}
	}

	names := make([]string, 0, len(allPrograms))
	for _, p := range allPrograms {
		names = append(names, p.String())
	}
	return 0, fmt.Errorf("%w: %q (available: %s)", ErrInvalidProgram, name, strings.Join(names, ", "))
}

// ProgramByCode resolves the program owning a two digit code.
func ProgramByCode(code string) (Program, bool) {
	for _, p := range allPrograms {
		if p.Code() == code {
			return p, true
		}
	}
	return 0, false
}

func normalizeProgramName(name string) string {
	replacer := strings.NewReplacer(" ", "_", "-", "_")
	return replacer.Replace(strings.ToLower(strings.TrimSpace(name)))
}
