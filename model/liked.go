package model

import "time"

// LikedSong records that a listener session liked a track. Identity is
// an explicit session id supplied by the caller (minted server-side for
// anonymous listeners); UserID is set in addition when the listener is
// logged in.
type LikedSong struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	TrackID     string    `json:"trackId" gorm:"size:36;index;not null"`
	UserSession string    `json:"userSession" gorm:"size:36;index;not null"`
	UserID      *int64    `json:"userId,omitempty" gorm:"index"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName specifies the table name.
func (LikedSong) TableName() string {
	return "liked_songs"
}
