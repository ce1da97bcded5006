package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/totegamma/tentd/internal/domain"
	"github.com/totegamma/tentd/internal/infra/database/models"
	"github.com/totegamma/tentd/internal/usecase"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post domain.Post) (domain.Post, error) {
	model, err := postToModel(post)
	if err != nil {
		return domain.Post{}, err
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return domain.Post{}, translate(err, "post", "PostRepository.Create")
	}
	return post, nil
}

func (r *PostRepository) Get(ctx context.Context, entityID, id string) (domain.Post, error) {
	var model models.Post
	err := r.db.WithContext(ctx).
		Where("id = ? AND entity_id = ?", id, entityID).
		Take(&model).Error
	if err != nil {
		return domain.Post{}, translate(err, "post", "PostRepository.Get")
	}
	return postToDomain(model)
}

func (r *PostRepository) Update(ctx context.Context, post domain.Post) (domain.Post, error) {
	model, err := postToModel(post)
	if err != nil {
		return domain.Post{}, err
	}
	result := r.db.WithContext(ctx).
		Model(&model).
		Where("entity_id = ?", post.EntityID).
		Select("schema", "content").
		Updates(&model)
	if result.Error != nil {
		return domain.Post{}, translate(result.Error, "post", "PostRepository.Update")
	}
	if result.RowsAffected == 0 {
		return domain.Post{}, domain.NotFoundError{Resource: "post"}
	}
	return post, nil
}

func (r *PostRepository) Delete(ctx context.Context, entityID, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND entity_id = ?", id, entityID).
		Delete(&models.Post{})
	if result.Error != nil {
		return translate(result.Error, "post", "PostRepository.Delete")
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "post"}
	}
	return nil
}

func (r *PostRepository) ListByEntity(ctx context.Context, entityID string) ([]domain.Post, error) {
	var rows []models.Post
	err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("c_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, translate(err, "post", "PostRepository.ListByEntity")
	}

	posts := make([]domain.Post, 0, len(rows))
	for _, row := range rows {
		post, err := postToDomain(row)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func postToModel(p domain.Post) (models.Post, error) {
	content, err := encodeContent(p.Content)
	if err != nil {
		return models.Post{}, err
	}
	return models.Post{
		ID:       p.ID,
		EntityID: p.EntityID,
		Schema:   p.Schema,
		Content:  content,
	}, nil
}

func postToDomain(m models.Post) (domain.Post, error) {
	content, err := decodeContent(m.Content)
	if err != nil {
		return domain.Post{}, err
	}
	return domain.Post{
		ID:       m.ID,
		EntityID: m.EntityID,
		Schema:   m.Schema,
		Content:  content,
	}, nil
}

var _ usecase.PostRepository = (*PostRepository)(nil)
