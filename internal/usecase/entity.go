package usecase

import (
	"context"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/totegamma/tentd"
	"github.com/totegamma/tentd/internal/domain"
)

var entityNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type EntityUsecase struct {
	repo     EntityRepository
	profiles ProfileRepository
	logger   *zap.Logger
}

func NewEntityUsecase(repo EntityRepository, profiles ProfileRepository, logger *zap.Logger) *EntityUsecase {
	return &EntityUsecase{
		repo:     repo,
		profiles: profiles,
		logger:   logger.With(zap.String("module", "entity")),
	}
}

// Create registers a new local entity under baseURL together with its core
// profile.
func (uc *EntityUsecase) Create(ctx context.Context, name, baseURL string) (domain.Entity, error) {
	if !entityNamePattern.MatchString(name) {
		return domain.Entity{}, domain.ValidationError{Reason: "entity name must be url safe"}
	}

	identity := tent.IdentityURL(baseURL, name)
	entity, err := uc.repo.Create(ctx, domain.Entity{
		ID:          uuid.NewString(),
		Name:        name,
		IdentityURL: identity,
	})
	if err != nil {
		return domain.Entity{}, err
	}

	core := domain.Profile{
		EntityID: entity.ID,
		Schema:   tent.CoreProfileSchema,
		Content: tent.CoreProfile{
			Entity:   identity,
			Licenses: []string{},
			Servers:  []string{identity},
		},
	}
	if err := uc.profiles.Save(ctx, entity, core); err != nil {
		// an entity must never exist without its core profile
		if rerr := uc.repo.Delete(context.WithoutCancel(ctx), name); rerr != nil {
			uc.logger.Error(
				"failed to roll back entity",
				zap.String("name", name),
				zap.Error(rerr),
			)
		}
		return domain.Entity{}, err
	}

	uc.logger.Info("entity created", zap.String("name", name), zap.String("id", entity.ID))
	return entity, nil
}

func (uc *EntityUsecase) Get(ctx context.Context, name string) (domain.Entity, error) {
	return uc.repo.GetByName(ctx, name)
}

// Delete removes the entity and everything it owns.
func (uc *EntityUsecase) Delete(ctx context.Context, name string) error {
	err := uc.repo.Delete(ctx, name)
	if err != nil {
		return err
	}
	uc.logger.Info("entity deleted", zap.String("name", name))
	return nil
}

func (uc *EntityUsecase) Profiles(ctx context.Context, entity domain.Entity) ([]domain.Profile, error) {
	return uc.profiles.List(ctx, entity)
}

func (uc *EntityUsecase) SaveProfile(ctx context.Context, entity domain.Entity, profile domain.Profile) error {
	if profile.Schema == "" {
		return domain.ValidationError{Reason: "schema is required"}
	}
	if profile.Schema == tent.CoreProfileSchema {
		return domain.ValidationError{Reason: "the core profile is managed by the server"}
	}
	profile.EntityID = entity.ID
	return uc.profiles.Save(ctx, entity, profile)
}
