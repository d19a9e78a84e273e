package compat

import "gamelens/internal/game"

// Checker holds the tunables for compatibility decisions. The zero value uses
// DefaultFamilies and DefaultToleranceDays.
type Checker struct {
	Families      FamilyTable
	ToleranceDays int
}

// NewChecker returns a checker with the default family table and the given
// tolerance. A negative tolerance selects the default.
func NewChecker(toleranceDays int) Checker {
	if toleranceDays < 0 {
		toleranceDays = DefaultToleranceDays
	}
	return Checker{Families: DefaultFamilies(), ToleranceDays: toleranceDays}
}

func (c Checker) families() FamilyTable {
	if c.Families == nil {
		return DefaultFamilies()
	}
	return c.Families
}

func (c Checker) tolerance() int {
	if c.Families == nil && c.ToleranceDays == 0 {
		return DefaultToleranceDays
	}
	return c.ToleranceDays
}

// DatesCompatible reports whether two release dates fall within the tolerance
// window. An empty or unparseable date is unknown and never rules a pair out.
func (c Checker) DatesCompatible(a, b string) bool {
	da, okA := ParseDate(a)
	db, okB := ParseDate(b)
	if !okA || !okB {
		return true
	}
	return withinDays(da, db, c.tolerance())
}

// ExactDatesCompatible reports whether both dates are known to the day and
// name the same calendar day. Unparseable values and year or month
// precision never match, even when the raw strings are equal.
func (c Checker) ExactDatesCompatible(a, b string) bool {
	da, okA := ParseDay(a)
	db, okB := ParseDay(b)
	return okA && okB && da.Equal(db)
}

// PlatformsCompatible reports whether two records can share a release. When
// both list platforms their family sets must intersect; otherwise the
// tolerant date check decides.
func (c Checker) PlatformsCompatible(a, b game.SourceRecord) bool {
	famA := c.families().Families(a.Platforms)
	famB := c.families().Families(b.Platforms)
	if len(famA) == 0 || len(famB) == 0 {
		return c.DatesCompatible(a.ReleaseDate, b.ReleaseDate)
	}
	for family := range famA {
		if _, ok := famB[family]; ok {
			return true
		}
	}
	return false
}

var defaultChecker = NewChecker(DefaultToleranceDays)

// DatesCompatible applies the default checker.
func DatesCompatible(a, b string) bool { return defaultChecker.DatesCompatible(a, b) }

// ExactDatesCompatible applies the default checker.
func ExactDatesCompatible(a, b string) bool { return defaultChecker.ExactDatesCompatible(a, b) }

// PlatformsCompatible applies the default checker.
func PlatformsCompatible(a, b game.SourceRecord) bool {
	return defaultChecker.PlatformsCompatible(a, b)
}
