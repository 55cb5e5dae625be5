package domain

import (
	"strings"
	"time"
)

// Department represents a top-level organizational unit.
// Names are stored trimmed and uppercased and are globally unique.
type Department struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NormalizeDepartmentName applies the canonical storage form for department names.
func NormalizeDepartmentName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
