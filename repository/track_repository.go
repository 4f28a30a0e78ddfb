package repository

import (
	"context"
	"strings"

	"github.com/toriisent/yeezyplayer-store/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TrackRepository handles track data within releases.
type TrackRepository interface {
	Create(ctx context.Context, track *model.Track) error
	GetByID(ctx context.Context, id string) (*model.Track, error)
	GetByRelease(ctx context.Context, releaseID string) ([]*model.Track, error)
	Update(ctx context.Context, track *model.Track) error
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, releaseID string, trackIDs []string) error
	Search(ctx context.Context, query string) ([]*model.Track, error)
}

// gormTrackRepository is the GORM implementation.
type gormTrackRepository struct {
	db *gorm.DB
}

// NewGormTrackRepository creates a GORM track repository.
func NewGormTrackRepository(db *gorm.DB) TrackRepository {
	return &gormTrackRepository{db: db}
}

// Create inserts a track, appending it to the end of its release's
// running order when no explicit order is set.
func (r *gormTrackRepository) Create(ctx context.Context, track *model.Track) error {
	if track.ID == "" {
		track.ID = uuid.New().String()
	}
	if track.TrackOrder == 0 {
		var max int
		err := r.db.WithContext(ctx).Model(&model.Track{}).
			Where("release_id = ?", track.ReleaseID).
			Select("COALESCE(MAX(track_order), 0)").
			Scan(&max).Error
		if err != nil {
			return err
		}
		track.TrackOrder = max + 1
	}
	return r.db.WithContext(ctx).Create(track).Error
}

// GetByID returns one track, or nil when not found.
func (r *gormTrackRepository) GetByID(ctx context.Context, id string) (*model.Track, error) {
	var track model.Track
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&track).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &track, nil
}

// GetByRelease returns a release's tracks in running order.
func (r *gormTrackRepository) GetByRelease(ctx context.Context, releaseID string) ([]*model.Track, error) {
	var tracks []*model.Track
	err := r.db.WithContext(ctx).
		Where("release_id = ?", releaseID).
		Order("track_order").
		Find(&tracks).Error
	return tracks, err
}

// Update saves track metadata.
func (r *gormTrackRepository) Update(ctx context.Context, track *model.Track) error {
	return r.db.WithContext(ctx).Save(track).Error
}

// Delete removes a track. Its lyric rows are removed by the lyric
// repository's cascade when the caller deletes them explicitly.
func (r *gormTrackRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&model.Track{ID: id}).Error
}

// Reorder rewrites the running order of a release to match trackIDs.
func (r *gormTrackRepository) Reorder(ctx context.Context, releaseID string, trackIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range trackIDs {
			err := tx.Model(&model.Track{}).
				Where("id = ? AND release_id = ?", id, releaseID).
				Update("track_order", i+1).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Search does a case-insensitive substring match over track titles and
// artists. No ranking.
func (r *gormTrackRepository) Search(ctx context.Context, query string) ([]*model.Track, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	var tracks []*model.Track
	err := r.db.WithContext(ctx).
		Where("LOWER(title) LIKE ? OR LOWER(artist) LIKE ?", pattern, pattern).
		Order("title").
		Find(&tracks).Error
	return tracks, err
}
