package model

import "time"

// Release types as stored in the releases table.
const (
	ReleaseTypeSingle = "single"
	ReleaseTypeEP     = "ep"
	ReleaseTypeAlbum  = "album"
)

// Release is a single, EP or album shown on the catalog pages.
type Release struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Type        string    `json:"type" gorm:"size:20;not null;default:'single'"`
	CoverURL    string    `json:"coverUrl" gorm:"size:767"`
	ReleaseDate string    `json:"releaseDate" gorm:"size:10"`
	IsFeatured  bool      `json:"isFeatured" gorm:"default:false;index"`
	Tracks      []Track   `json:"tracks" gorm:"foreignKey:ReleaseID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName specifies the table name.
func (Release) TableName() string {
	return "releases"
}
