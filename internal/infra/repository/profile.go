package repository

import (
	"context"
	"encoding/json"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/tentd/internal/domain"
	"github.com/totegamma/tentd/internal/infra/database/models"
	"github.com/totegamma/tentd/internal/usecase"
)

const profileCacheTTL = 300 // seconds

// ProfileRepository stores profiles in postgres and keeps the rendered list
// per entity in memcached, which discovery traffic hits repeatedly.
type ProfileRepository struct {
	db *gorm.DB
	mc *memcache.Client
}

// NewProfileRepository accepts a nil memcache client, in which case every
// read goes to the database.
func NewProfileRepository(db *gorm.DB, mc *memcache.Client) *ProfileRepository {
	return &ProfileRepository{db: db, mc: mc}
}

type cachedProfile struct {
	Schema  string          `json:"schema"`
	Content json.RawMessage `json:"content"`
}

func profileCacheKey(entityID string) string {
	return "tentd:profile:" + entityID
}

func (r *ProfileRepository) List(ctx context.Context, entity domain.Entity) ([]domain.Profile, error) {
	if r.mc != nil {
		item, err := r.mc.Get(profileCacheKey(entity.ID))
		if err == nil {
			profiles, err := decodeCachedProfiles(entity.ID, item.Value)
			if err == nil {
				return profiles, nil
			}
		}
	}

	var rows []models.Profile
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", entity.ID).
		Order("c_date ASC").
		Order("schema ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "profile", "ProfileRepository.List")
	}

	cached := make([]cachedProfile, 0, len(rows))
	profiles := make([]domain.Profile, 0, len(rows))
	for _, row := range rows {
		content, err := decodeContent(row.Content)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, domain.Profile{
			EntityID: row.EntityID,
			Schema:   row.Schema,
			Content:  content,
		})
		cached = append(cached, cachedProfile{Schema: row.Schema, Content: json.RawMessage(row.Content)})
	}

	if r.mc != nil {
		if value, err := json.Marshal(cached); err == nil {
			_ = r.mc.Set(&memcache.Item{
				Key:        profileCacheKey(entity.ID),
				Value:      value,
				Expiration: profileCacheTTL,
			})
		}
	}

	return profiles, nil
}

// Save inserts or replaces the profile for (entity, schema).
func (r *ProfileRepository) Save(ctx context.Context, entity domain.Entity, profile domain.Profile) error {
	content, err := encodeContent(profile.Content)
	if err != nil {
		return err
	}

	row := models.Profile{
		EntityID: entity.ID,
		Schema:   profile.Schema,
		Content:  content,
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entity_id"}, {Name: "schema"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "m_date"}),
	}).Create(&row).Error
	if err != nil {
		return translate(err, "profile", "ProfileRepository.Save")
	}

	if r.mc != nil {
		err := r.mc.Delete(profileCacheKey(entity.ID))
		if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
			return errors.Wrap(err, "ProfileRepository.Save: invalidate cache")
		}
	}
	return nil
}

func decodeCachedProfiles(entityID string, value []byte) ([]domain.Profile, error) {
	var cached []cachedProfile
	if err := json.Unmarshal(value, &cached); err != nil {
		return nil, err
	}
	profiles := make([]domain.Profile, 0, len(cached))
	for _, c := range cached {
		content, err := decodeContent(string(c.Content))
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, domain.Profile{
			EntityID: entityID,
			Schema:   c.Schema,
			Content:  content,
		})
	}
	return profiles, nil
}

var _ usecase.ProfileRepository = (*ProfileRepository)(nil)
