package specification

import "gorm.io/gorm"

type ByCategory struct {
	Category string
}

func (s ByCategory) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("category = ?", s.Category)
}

// NameOrDescriptionContains matches case-insensitively on either column.
type NameOrDescriptionContains struct {
	Query string
}

func (s NameOrDescriptionContains) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + s.Query + "%"
	return db.Where("name ILIKE ? OR description ILIKE ?", pattern, pattern)
}

type HasEmbedding struct {
	Present bool
}

func (s HasEmbedding) Apply(db *gorm.DB) *gorm.DB {
	if s.Present {
		return db.Where("embedding IS NOT NULL")
	}
	return db.Where("embedding IS NULL")
}
