package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/totegamma/tentd/internal/domain"
	"github.com/totegamma/tentd/internal/infra/database/models"
	"github.com/totegamma/tentd/internal/usecase"
)

type FollowerRepository struct {
	db *gorm.DB
}

func NewFollowerRepository(db *gorm.DB) *FollowerRepository {
	return &FollowerRepository{db: db}
}

func (r *FollowerRepository) Create(ctx context.Context, follower domain.Follower) (domain.Follower, error) {
	model := followerToModel(follower)
	err := r.db.WithContext(ctx).Create(&model).Error
	if err != nil {
		return domain.Follower{}, translate(err, "follower", "FollowerRepository.Create")
	}
	return followerToDomain(model), nil
}

func (r *FollowerRepository) Get(ctx context.Context, entityID, id string) (domain.Follower, error) {
	var model models.Follower
	err := r.db.WithContext(ctx).
		Where("id = ? AND entity_id = ?", id, entityID).
		Take(&model).Error
	if err != nil {
		return domain.Follower{}, translate(err, "follower", "FollowerRepository.Get")
	}
	return followerToDomain(model), nil
}

// Update overwrites the mutable fields. Concurrent updates are last writer wins.
func (r *FollowerRepository) Update(ctx context.Context, follower domain.Follower) (domain.Follower, error) {
	model := followerToModel(follower)
	result := r.db.WithContext(ctx).
		Model(&model).
		Where("entity_id = ?", follower.EntityID).
		Select("identifier", "permissions", "licenses", "types", "notification_path").
		Updates(&model)
	if result.Error != nil {
		return domain.Follower{}, translate(result.Error, "follower", "FollowerRepository.Update")
	}
	if result.RowsAffected == 0 {
		return domain.Follower{}, domain.NotFoundError{Resource: "follower"}
	}
	return r.Get(ctx, follower.EntityID, follower.ID)
}

func (r *FollowerRepository) Delete(ctx context.Context, entityID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND entity_id = ?", id, entityID).
		Delete(&models.Follower{})
	if result.Error != nil {
		return translate(result.Error, "follower", "FollowerRepository.Delete")
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "follower"}
	}
	return nil
}

func (r *FollowerRepository) ListByEntity(ctx context.Context, entityID string) ([]domain.Follower, error) {
	var rows []models.Follower
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("c_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "follower", "FollowerRepository.ListByEntity")
	}

	followers := make([]domain.Follower, 0, len(rows))
	for _, row := range rows {
		followers = append(followers, followerToDomain(row))
	}
	return followers, nil
}

func followerToModel(f domain.Follower) models.Follower {
	return models.Follower{
		ID:               f.ID,
		EntityID:         f.EntityID,
		Identifier:       f.Identifier,
		Permissions:      f.Permissions,
		Licenses:         f.Licenses,
		Types:            f.Types,
		NotificationPath: f.NotificationPath,
	}
}

func followerToDomain(m models.Follower) domain.Follower {
	f := domain.Follower{
		ID:               m.ID,
		EntityID:         m.EntityID,
		Identifier:       m.Identifier,
		Permissions:      m.Permissions,
		Licenses:         m.Licenses,
		Types:            m.Types,
		NotificationPath: m.NotificationPath,
	}
	if f.Permissions == nil {
		f.Permissions = domain.DefaultPermissions()
	}
	if f.Licenses == nil {
		f.Licenses = []string{}
	}
	if f.Types == nil {
		f.Types = []string{}
	}
	return f
}

var _ usecase.FollowerRepository = (*FollowerRepository)(nil)
