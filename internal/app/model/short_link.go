package model

import "time"

// ShortLink maps a short code to the original URL and its click counter.
type ShortLink struct {
	ID          uint64    `json:"id" gorm:"primaryKey"`
	OriginalURL string    `json:"original_url" gorm:"size:2048;not null;index"`
	ShortCode   string    `json:"short_code" gorm:"size:10;not null;uniqueIndex"`
	Clicks      int64     `json:"clicks" gorm:"not null;default:0;index:idx_short_links_clicks_created,priority:1"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime;index;index:idx_short_links_clicks_created,priority:2"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName pins the table name independent of GORM pluralisation.
func (ShortLink) TableName() string {
	return "short_links"
}

// ShortURL returns the public short URL under baseURL.
func (l ShortLink) ShortURL(baseURL string) string {
	return baseURL + "/s/" + l.ShortCode
}
