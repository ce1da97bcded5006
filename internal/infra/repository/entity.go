package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/totegamma/tentd/internal/domain"
	"github.com/totegamma/tentd/internal/infra/database/models"
	"github.com/totegamma/tentd/internal/usecase"
)

// EntityRepository resolves entities by name. Lookups happen on every
// request, so they are cached in process for a short time.
type EntityRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewEntityRepository(db *gorm.DB) *EntityRepository {
	return &EntityRepository{
		db:    db,
		cache: cache.New(1*time.Minute, 5*time.Minute),
	}
}

func (r *EntityRepository) Create(ctx context.Context, entity domain.Entity) (domain.Entity, error) {
	model := models.Entity{
		ID:          entity.ID,
		Name:        entity.Name,
		IdentityURL: entity.IdentityURL,
	}
	err := r.db.WithContext(ctx).Create(&model).Error
	if err != nil {
		return domain.Entity{}, translate(err, "entity", "EntityRepository.Create")
	}
	return entityToDomain(model), nil
}

func (r *EntityRepository) GetByName(ctx context.Context, name string) (domain.Entity, error) {
	if cached, found := r.cache.Get(name); found {
		return cached.(domain.Entity), nil
	}

	var model models.Entity
	err := r.db.WithContext(ctx).Where("name = ?", name).Take(&model).Error
	if err != nil {
		return domain.Entity{}, translate(err, "entity", "EntityRepository.GetByName")
	}

	entity := entityToDomain(model)
	r.cache.Set(name, entity, cache.DefaultExpiration)
	return entity, nil
}

// Delete removes the entity and cascades to its profiles, followers and posts.
func (r *EntityRepository) Delete(ctx context.Context, name string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.Entity
		if err := tx.Where("name = ?", name).Take(&model).Error; err != nil {
			return err
		}
		if err := tx.Where("entity_id = ?", model.ID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("entity_id = ?", model.ID).Delete(&models.Follower{}).Error; err != nil {
			return err
		}
		if err := tx.Where("entity_id = ?", model.ID).Delete(&models.Profile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model).Error
	})
	r.cache.Delete(name)
	return translate(err, "entity", "EntityRepository.Delete")
}

func entityToDomain(m models.Entity) domain.Entity {
	return domain.Entity{
		ID:          m.ID,
		Name:        m.Name,
		IdentityURL: m.IdentityURL,
	}
}

var _ usecase.EntityRepository = (*EntityRepository)(nil)
