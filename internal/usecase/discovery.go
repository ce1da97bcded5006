package usecase

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/totegamma/tentd"
	"github.com/totegamma/tentd/internal/domain"
)

var tracer = otel.Tracer("usecase")

const (
	reasonDiscover    = "could not discover entity"
	reasonFetch       = "could not fetch entity profile"
	reasonCoreProfile = "entity does not have a core profile"
)

type DiscoveryUsecase struct {
	client          RemoteClient
	followCanonical bool
	logger          *zap.Logger
}

// NewDiscoveryUsecase builds the discovery engine. followCanonical enables a
// single extra discovery round against the canonical identity when it differs
// from the profile URL; it is off by default.
func NewDiscoveryUsecase(client RemoteClient, followCanonical bool, logger *zap.Logger) *DiscoveryUsecase {
	return &DiscoveryUsecase{
		client:          client,
		followCanonical: followCanonical,
		logger:          logger.With(zap.String("module", "discovery")),
	}
}

// Discover performs one HEAD and one GET against the remote party and returns
// the full profile document. It never retries.
func (uc *DiscoveryUsecase) Discover(ctx context.Context, identity string) (tent.ProfileDocument, error) {
	return uc.discover(ctx, identity, uc.followCanonical)
}

func (uc *DiscoveryUsecase) discover(ctx context.Context, identity string, followCanonical bool) (tent.ProfileDocument, error) {
	ctx, span := tracer.Start(ctx, "Discovery.Discover")
	defer span.End()
	span.SetAttributes(attribute.String("identity", identity))

	// TODO: fall back to <link> elements in the HTML body when no Link header is sent.
	head, err := uc.client.Head(ctx, identity)
	if err != nil {
		span.RecordError(err)
		return nil, domain.DiscoveryError{Reason: reasonDiscover, Status: http.StatusNotFound, Cause: err}
	}

	// Only the first Link header is examined.
	link := head.Header.Get("Link")
	if link == "" {
		return nil, domain.DiscoveryError{Reason: reasonDiscover, Status: http.StatusNotFound}
	}

	profileURL, err := tent.ParseLink(link)
	if err != nil {
		return nil, domain.DiscoveryError{Reason: reasonDiscover, Status: http.StatusNotFound, Cause: err}
	}

	resp, err := uc.client.Get(ctx, profileURL)
	if err != nil {
		span.RecordError(err)
		return nil, domain.DiscoveryError{Reason: reasonFetch, Status: http.StatusNotFound, Cause: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, domain.DiscoveryError{Reason: reasonFetch, Status: resp.StatusCode}
	}

	var profile tent.ProfileDocument
	if err := json.Unmarshal(resp.Body, &profile); err != nil {
		return nil, domain.DiscoveryError{Reason: reasonFetch, Status: http.StatusNotFound, Cause: err}
	}

	canonical, ok := profile.Core()
	if !ok || canonical == "" {
		return nil, domain.DiscoveryError{Reason: reasonCoreProfile, Status: http.StatusNotFound}
	}

	// compared with the requested identity rather than the profile URL:
	// an identity that is already canonical is not discovered twice
	if followCanonical && canonical != identity {
		uc.logger.Debug(
			"re-discovering canonical identity",
			zap.String("identity", identity),
			zap.String("canonical", canonical),
		)
		return uc.discover(ctx, canonical, false)
	}

	return profile, nil
}

var _ Discoverer = (*DiscoveryUsecase)(nil)
