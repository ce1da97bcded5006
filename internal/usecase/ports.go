package usecase

import (
	"context"

	"github.com/totegamma/tentd"
	"github.com/totegamma/tentd/client"
	"github.com/totegamma/tentd/internal/domain"
)

// RemoteClient is the outbound HTTP capability used for federation.
type RemoteClient interface {
	Head(ctx context.Context, url string) (*client.Response, error)
	Get(ctx context.Context, url string) (*client.Response, error)
	Post(ctx context.Context, url string, contentType string, body []byte) (*client.Response, error)
}

// EntityRepository defines persistence/lookup for local entities.
type EntityRepository interface {
	Create(ctx context.Context, entity domain.Entity) (domain.Entity, error)
	GetByName(ctx context.Context, name string) (domain.Entity, error)
	Delete(ctx context.Context, name string) error
}

// ProfileRepository stores schema tagged profiles, one per schema and entity.
type ProfileRepository interface {
	List(ctx context.Context, entity domain.Entity) ([]domain.Profile, error)
	Save(ctx context.Context, entity domain.Entity, profile domain.Profile) error
}

// FollowerRepository defines persistence for follow relationships.
type FollowerRepository interface {
	Create(ctx context.Context, follower domain.Follower) (domain.Follower, error)
	Get(ctx context.Context, entityID, id string) (domain.Follower, error)
	Update(ctx context.Context, follower domain.Follower) (domain.Follower, error)
	Delete(ctx context.Context, entityID, id string) error
	ListByEntity(ctx context.Context, entityID string) ([]domain.Follower, error)
}

// PostRepository defines persistence for posts.
type PostRepository interface {
	Create(ctx context.Context, post domain.Post) (domain.Post, error)
	Get(ctx context.Context, entityID, id string) (domain.Post, error)
	Update(ctx context.Context, post domain.Post) (domain.Post, error)
	Delete(ctx context.Context, entityID, id string) error
	ListByEntity(ctx context.Context, entityID string) ([]domain.Post, error)
}

// EventPublisher broadcasts entity events to realtime subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, entity string, event tent.Event) error
}

// Discoverer resolves an identity URL into its profile document.
type Discoverer interface {
	Discover(ctx context.Context, identity string) (tent.ProfileDocument, error)
}
