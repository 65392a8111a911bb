package entities

import "time"

// Category represents a browsing facet for articles.
type Category struct {
	ID          string    `gorm:"type:varchar(40);primaryKey"`
	Name        string    `gorm:"type:varchar(128);not null"`
	Slug        string    `gorm:"type:varchar(128);uniqueIndex;not null"`
	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Category) TableName() string {
	return "categories"
}
