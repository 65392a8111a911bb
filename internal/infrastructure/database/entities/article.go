package entities

import "time"

// Article represents the persisted audio article.
type Article struct {
	ID                  string    `gorm:"type:varchar(40);primaryKey"`
	Title               string    `gorm:"type:varchar(255);not null"`
	Description         string    `gorm:"type:text"`
	Category            string    `gorm:"type:varchar(64);index"`
	Content             string    `gorm:"type:text"`
	DurationSeconds     int       `gorm:"not null;default:0;index"`
	DurationMethod      string    `gorm:"type:varchar(32);not null;default:''"`
	AudioURL            string    `gorm:"type:varchar(512);not null"`
	AudioProviderID     string    `gorm:"type:varchar(255)"`
	ThumbnailURL        string    `gorm:"type:varchar(512)"`
	ThumbnailProviderID string    `gorm:"type:varchar(255)"`
	PlayCount           int64     `gorm:"not null;default:0"`
	Published           bool      `gorm:"not null;default:false;index"`
	Featured            bool      `gorm:"not null;default:false"`
	CreatedAt           time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

func (Article) TableName() string {
	return "articles"
}
