package catalog

import "time"

// Package is a purchasable class pass product. This service only reads
// packages; they are managed by the admin side of the platform.
type Package struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Price        float64   `db:"price" json:"price"`
	ClassCount   int       `db:"class_count" json:"class_count"`
	ValidityDays int       `db:"validity_days" json:"validity_days"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`

	// Linked class template ids. Empty means the package is universal and
	// usable for any class.
	ClassTemplateIDs []int `json:"class_template_ids"`
}

// IsUniversal reports whether the package is not scoped to any class
// template. Universal passes are never auto-enrolled: there is no
// well-defined "next class" for them.
func (p *Package) IsUniversal() bool {
	return len(p.ClassTemplateIDs) == 0
}
