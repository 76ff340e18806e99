package scope

import "gorm.io/gorm"

func OrderByRatingDesc(db *gorm.DB) *gorm.DB {
	return db.Order("rating DESC").Order("id ASC")
}

func OrderByLastActivityAsc(db *gorm.DB) *gorm.DB {
	return db.Order("last_activity_at ASC")
}
