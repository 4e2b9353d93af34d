package repository

import "gorm.io/gorm"

// Page describes an offset window over a list query.
type Page struct {
	Page     int
	PageSize int
}

func paginate(query *gorm.DB, page Page) *gorm.DB {
	if page.PageSize <= 0 {
		return query
	}
	current := page.Page
	if current <= 0 {
		current = 1
	}
	offset := (current - 1) * page.PageSize
	return query.Offset(offset).Limit(page.PageSize)
}
