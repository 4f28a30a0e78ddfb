package repository

import (
	"context"

	"github.com/toriisent/yeezyplayer-store/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LikedRepository tracks per-session liked songs. The session id is
// explicit caller context, not ambient state; anonymous listeners get a
// server-minted uuid the client carries from then on.
type LikedRepository interface {
	Toggle(ctx context.Context, trackID, session string, userID *int64) (liked bool, err error)
	GetTrackIDs(ctx context.Context, session string) ([]string, error)
}

// gormLikedRepository is the GORM implementation.
type gormLikedRepository struct {
	db *gorm.DB
}

// NewGormLikedRepository creates a GORM liked-songs repository.
func NewGormLikedRepository(db *gorm.DB) LikedRepository {
	return &gormLikedRepository{db: db}
}

// Toggle likes the track for the session, or unlikes it when already
// liked. Returns the resulting liked state.
func (r *gormLikedRepository) Toggle(ctx context.Context, trackID, session string, userID *int64) (bool, error) {
	var existing model.LikedSong
	err := r.db.WithContext(ctx).
		Where("track_id = ? AND user_session = ?", trackID, session).
		First(&existing).Error

	switch err {
	case nil:
		// Already liked: remove.
		if err := r.db.WithContext(ctx).Delete(&existing).Error; err != nil {
			return true, err
		}
		return false, nil
	case gorm.ErrRecordNotFound:
		like := model.LikedSong{
			ID:          uuid.New().String(),
			TrackID:     trackID,
			UserSession: session,
			UserID:      userID,
		}
		if err := r.db.WithContext(ctx).Create(&like).Error; err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, err
	}
}

// GetTrackIDs returns the ids of all tracks this session has liked.
func (r *gormLikedRepository) GetTrackIDs(ctx context.Context, session string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.LikedSong{}).
		Where("user_session = ?", session).
		Order("created_at DESC").
		Pluck("track_id", &ids).Error
	return ids, err
}
