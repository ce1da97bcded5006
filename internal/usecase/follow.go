package usecase

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/totegamma/tentd"
	"github.com/totegamma/tentd/internal/domain"
)

type FollowUsecase struct {
	repo      FollowerRepository
	discovery Discoverer
	client    RemoteClient
	logger    *zap.Logger
}

func NewFollowUsecase(repo FollowerRepository, discovery Discoverer, client RemoteClient, logger *zap.Logger) *FollowUsecase {
	return &FollowUsecase{
		repo:      repo,
		discovery: discovery,
		client:    client,
		logger:    logger.With(zap.String("module", "follow")),
	}
}

// StartFollowing runs the handshake for a remote party that wants to follow
// entity: discovery, then a GET probe on its notification URL. Nothing is
// stored unless both succeed.
func (uc *FollowUsecase) StartFollowing(ctx context.Context, entity domain.Entity, details domain.FollowDetails) (domain.Follower, error) {
	ctx, span := tracer.Start(ctx, "Follow.StartFollowing")
	defer span.End()

	if details.Entity == "" {
		return domain.Follower{}, domain.ValidationError{Reason: "entity is required"}
	}
	if details.NotificationPath == "" {
		return domain.Follower{}, domain.ValidationError{Reason: "notification_path is required"}
	}
	span.SetAttributes(attribute.String("identity", details.Entity))

	canonical, err := uc.canonicalIdentity(ctx, details.Entity)
	if err != nil {
		span.RecordError(err)
		return domain.Follower{}, err
	}

	err = uc.probe(ctx, tent.NotificationURL(canonical, details.NotificationPath))
	if err != nil {
		span.RecordError(err)
		return domain.Follower{}, err
	}

	follower := domain.Follower{
		ID:               uuid.NewString(),
		EntityID:         entity.ID,
		Identifier:       canonical,
		Permissions:      domain.DefaultPermissions(),
		Licenses:         orEmpty(details.Licenses),
		Types:            orEmpty(details.Types),
		NotificationPath: details.NotificationPath,
	}

	// the handshake has succeeded; a cancelled caller must not lose the record
	created, err := uc.repo.Create(context.WithoutCancel(ctx), follower)
	if err != nil {
		span.RecordError(err)
		return domain.Follower{}, err
	}

	uc.logger.Info(
		"follower added",
		zap.String("entity", entity.Name),
		zap.String("follower", created.ID),
		zap.String("identifier", created.Identifier),
	)
	return created, nil
}

// UpdateFollower applies the fields present in update and then always
// re-runs discovery, replacing the identifier with the canonical one.
func (uc *FollowUsecase) UpdateFollower(ctx context.Context, entity domain.Entity, id string, update domain.FollowerUpdate) (domain.Follower, error) {
	ctx, span := tracer.Start(ctx, "Follow.UpdateFollower")
	defer span.End()

	follower, err := uc.GetFollower(ctx, entity, id)
	if err != nil {
		return domain.Follower{}, err
	}

	if update.Entity != nil {
		follower.Identifier = *update.Entity
	}
	if update.Permissions != nil {
		follower.Permissions = *update.Permissions
	}
	if update.Licenses != nil {
		follower.Licenses = orEmpty(*update.Licenses)
	}
	if update.Types != nil {
		follower.Types = orEmpty(*update.Types)
	}
	if update.NotificationPath != nil {
		follower.NotificationPath = *update.NotificationPath
	}

	canonical, err := uc.canonicalIdentity(ctx, follower.Identifier)
	if err != nil {
		span.RecordError(err)
		return domain.Follower{}, err
	}
	follower.Identifier = canonical

	return uc.repo.Update(ctx, follower)
}

func (uc *FollowUsecase) StopFollowing(ctx context.Context, entity domain.Entity, id string) error {
	if err := validateID(id, "follower"); err != nil {
		return err
	}
	err := uc.repo.Delete(ctx, entity.ID, id)
	if err != nil {
		return err
	}
	uc.logger.Info("follower removed", zap.String("entity", entity.Name), zap.String("follower", id))
	return nil
}

func (uc *FollowUsecase) GetFollower(ctx context.Context, entity domain.Entity, id string) (domain.Follower, error) {
	if err := validateID(id, "follower"); err != nil {
		return domain.Follower{}, err
	}
	return uc.repo.Get(ctx, entity.ID, id)
}

func (uc *FollowUsecase) canonicalIdentity(ctx context.Context, identity string) (string, error) {
	profile, err := uc.discovery.Discover(ctx, identity)
	if err != nil {
		return "", err
	}
	canonical, ok := profile.Core()
	if !ok || canonical == "" {
		return "", domain.DiscoveryError{Reason: reasonCoreProfile, Status: http.StatusNotFound}
	}
	return canonical, nil
}

func (uc *FollowUsecase) probe(ctx context.Context, url string) error {
	resp, err := uc.client.Get(ctx, url)
	if err != nil {
		return domain.HandshakeError{URL: url, Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return domain.HandshakeError{URL: url, Status: resp.StatusCode}
	}
	return nil
}

func validateID(id, resource string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ValidationError{Reason: "the given " + resource + " id was invalid"}
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
