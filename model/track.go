package model

import "time"

// Track is an audio track belonging to a release. Lyrics are optional
// and live in their own tables; they are loaded on demand and attached
// here for API responses.
type Track struct {
	ID         string        `json:"id" gorm:"primaryKey;size:36"`
	ReleaseID  string        `json:"releaseId" gorm:"size:36;index;not null"`
	Title      string        `json:"title" gorm:"size:255;not null"`
	Artist     string        `json:"artist" gorm:"size:255"`
	AudioURL   string        `json:"audioUrl" gorm:"size:767"`
	CoverURL   string        `json:"coverUrl" gorm:"size:767"`
	Duration   float64       `json:"duration"` // seconds
	TrackOrder int           `json:"trackOrder" gorm:"index"`
	Lyrics     LyricDocument `json:"lyrics,omitempty" gorm:"-"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// TableName specifies the table name.
func (Track) TableName() string {
	return "tracks"
}
