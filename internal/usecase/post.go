package usecase

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/totegamma/tentd"
	"github.com/totegamma/tentd/internal/domain"
)

type PostUsecase struct {
	repo       PostRepository
	followers  FollowerRepository
	dispatcher *FanoutDispatcher
	events     EventPublisher
	logger     *zap.Logger

	inflight sync.WaitGroup
	reports  chan<- domain.DeliveryReport
}

func NewPostUsecase(
	repo PostRepository,
	followers FollowerRepository,
	dispatcher *FanoutDispatcher,
	events EventPublisher,
	logger *zap.Logger,
) *PostUsecase {
	return &PostUsecase{
		repo:       repo,
		followers:  followers,
		dispatcher: dispatcher,
		events:     events,
		logger:     logger.With(zap.String("module", "post")),
	}
}

// OnDelivery registers a channel that receives every fan-out report. Sends
// are non-blocking; reports are dropped when the channel is full.
func (uc *PostUsecase) OnDelivery(ch chan<- domain.DeliveryReport) {
	uc.reports = ch
}

// Publish stores the post and hands it to the fan-out dispatcher. The post
// is returned as soon as it is committed; delivery happens in the
// background and its failures are logged, never returned.
func (uc *PostUsecase) Publish(ctx context.Context, entity domain.Entity, input domain.PostInput) (domain.Post, error) {
	ctx, span := tracer.Start(ctx, "Post.Publish")
	defer span.End()

	if input.Schema == nil || *input.Schema == "" {
		return domain.Post{}, domain.ValidationError{Reason: "schema is required"}
	}
	if input.Content == nil {
		return domain.Post{}, domain.ValidationError{Reason: "content is required"}
	}

	post := domain.Post{
		ID:       uuid.NewString(),
		EntityID: entity.ID,
		Entity:   entity.IdentityURL,
		Schema:   *input.Schema,
		Content:  input.Content,
	}

	created, err := uc.repo.Create(ctx, post)
	if err != nil {
		span.RecordError(err)
		return domain.Post{}, err
	}
	created = withOwner(created, entity)

	// from here on the request may go away without affecting delivery
	detached := context.WithoutCancel(ctx)

	followers, err := uc.followers.ListByEntity(detached, entity.ID)
	if err != nil {
		uc.logger.Error(
			"failed to list followers for fan-out",
			zap.String("entity", entity.Name),
			zap.String("post", created.ID),
			zap.Error(err),
		)
		followers = nil
	}

	uc.inflight.Add(1)
	go func() {
		defer uc.inflight.Done()
		uc.fanout(detached, entity, created, followers)
	}()

	return created, nil
}

func (uc *PostUsecase) fanout(ctx context.Context, entity domain.Entity, post domain.Post, followers []domain.Follower) {
	report := uc.dispatcher.Dispatch(ctx, post, followers)

	uc.logger.Info(
		"fan-out finished",
		zap.String("entity", entity.Name),
		zap.String("post", post.ID),
		zap.Int("delivered", len(report.Delivered)),
		zap.Int("failed", len(report.Failed)),
	)

	if uc.events != nil {
		err := uc.events.Publish(ctx, entity.Name, tent.Event{
			Type:   tent.EventPostCreated,
			Entity: entity.IdentityURL,
			Body:   post,
		})
		if err != nil {
			uc.logger.Warn("failed to publish post event", zap.String("post", post.ID), zap.Error(err))
		}
	}

	if uc.reports != nil {
		select {
		case uc.reports <- report:
		default:
		}
	}
}

// Drain waits for all background fan-outs started so far.
func (uc *PostUsecase) Drain() {
	uc.inflight.Wait()
}

func (uc *PostUsecase) Get(ctx context.Context, entity domain.Entity, id string) (domain.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Post{}, domain.NotFoundError{Resource: "post"}
	}
	post, err := uc.repo.Get(ctx, entity.ID, id)
	if err != nil {
		return domain.Post{}, err
	}
	return withOwner(post, entity), nil
}

func (uc *PostUsecase) List(ctx context.Context, entity domain.Entity) ([]domain.Post, error) {
	posts, err := uc.repo.ListByEntity(ctx, entity.ID)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i] = withOwner(posts[i], entity)
	}
	return posts, nil
}

// Update replaces schema and/or content in place. No history is kept.
func (uc *PostUsecase) Update(ctx context.Context, entity domain.Entity, id string, input domain.PostInput) (domain.Post, error) {
	post, err := uc.Get(ctx, entity, id)
	if err != nil {
		return domain.Post{}, err
	}
	if input.Content != nil {
		post.Content = input.Content
	}
	if input.Schema != nil {
		post.Schema = *input.Schema
	}
	updated, err := uc.repo.Update(ctx, post)
	if err != nil {
		return domain.Post{}, err
	}
	return withOwner(updated, entity), nil
}

func (uc *PostUsecase) Delete(ctx context.Context, entity domain.Entity, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.NotFoundError{Resource: "post"}
	}
	return uc.repo.Delete(ctx, entity.ID, id)
}

// withOwner stamps the owner's identity, which the store does not keep.
func withOwner(post domain.Post, entity domain.Entity) domain.Post {
	post.EntityID = entity.ID
	post.Entity = entity.IdentityURL
	return post
}
