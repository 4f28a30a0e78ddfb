package repository

import (
	"context"
	"strings"

	"github.com/toriisent/yeezyplayer-store/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReleaseRepository handles release catalog data.
type ReleaseRepository interface {
	Create(ctx context.Context, release *model.Release) error
	GetByID(ctx context.Context, id string) (*model.Release, error)
	GetAll(ctx context.Context) ([]*model.Release, error)
	Update(ctx context.Context, release *model.Release) error
	Delete(ctx context.Context, id string) error
	SetFeatured(ctx context.Context, id string, featured bool) error
	Search(ctx context.Context, query string) ([]*model.Release, error)
}

// gormReleaseRepository is the GORM implementation.
type gormReleaseRepository struct {
	db *gorm.DB
}

// NewGormReleaseRepository creates a GORM release repository.
func NewGormReleaseRepository(db *gorm.DB) ReleaseRepository {
	return &gormReleaseRepository{db: db}
}

// Create inserts a release together with its tracks. Ids are minted
// here; track order mirrors slice position.
func (r *gormReleaseRepository) Create(ctx context.Context, release *model.Release) error {
	if release.ID == "" {
		release.ID = uuid.New().String()
	}
	for i := range release.Tracks {
		if release.Tracks[i].ID == "" {
			release.Tracks[i].ID = uuid.New().String()
		}
		release.Tracks[i].ReleaseID = release.ID
		release.Tracks[i].TrackOrder = i + 1
	}
	return r.db.WithContext(ctx).Create(release).Error
}

// GetByID returns one release with its tracks in order, or nil when
// not found.
func (r *gormReleaseRepository) GetByID(ctx context.Context, id string) (*model.Release, error) {
	var release model.Release
	err := r.db.WithContext(ctx).
		Preload("Tracks", func(db *gorm.DB) *gorm.DB {
			return db.Order("track_order")
		}).
		Where("id = ?", id).
		First(&release).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &release, nil
}

// GetAll returns every release, newest first, tracks in order.
func (r *gormReleaseRepository) GetAll(ctx context.Context) ([]*model.Release, error) {
	var releases []*model.Release
	err := r.db.WithContext(ctx).
		Preload("Tracks", func(db *gorm.DB) *gorm.DB {
			return db.Order("track_order")
		}).
		Order("release_date DESC").
		Find(&releases).Error
	return releases, err
}

// Update saves release metadata. Track membership is managed through
// the track repository, so associations are not touched here.
func (r *gormReleaseRepository) Update(ctx context.Context, release *model.Release) error {
	return r.db.WithContext(ctx).Omit("Tracks").Save(release).Error
}

// Delete removes a release and cascades to its tracks.
func (r *gormReleaseRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Select("Tracks").Delete(&model.Release{ID: id}).Error
}

// SetFeatured toggles the featured flag.
func (r *gormReleaseRepository) SetFeatured(ctx context.Context, id string, featured bool) error {
	return r.db.WithContext(ctx).Model(&model.Release{}).
		Where("id = ?", id).
		Update("is_featured", featured).Error
}

// Search does a case-insensitive substring match over release titles.
// No ranking; results come back newest first.
func (r *gormReleaseRepository) Search(ctx context.Context, query string) ([]*model.Release, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	var releases []*model.Release
	err := r.db.WithContext(ctx).
		Preload("Tracks", func(db *gorm.DB) *gorm.DB {
			return db.Order("track_order")
		}).
		Where("LOWER(title) LIKE ?", pattern).
		Order("release_date DESC").
		Find(&releases).Error
	return releases, err
}
