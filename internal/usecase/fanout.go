package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/totegamma/tentd"
	"github.com/totegamma/tentd/internal/domain"
)

const defaultFanoutWorkers = 8

// FanoutDispatcher delivers a post to followers' notification endpoints with
// bounded concurrency. A failing follower never stops the others.
type FanoutDispatcher struct {
	client  RemoteClient
	workers int
	logger  *zap.Logger
}

func NewFanoutDispatcher(client RemoteClient, workers int, logger *zap.Logger) *FanoutDispatcher {
	if workers <= 0 {
		workers = defaultFanoutWorkers
	}
	return &FanoutDispatcher{
		client:  client,
		workers: workers,
		logger:  logger.With(zap.String("module", "fanout")),
	}
}

// Dispatch blocks until every follower has been attempted once.
func (d *FanoutDispatcher) Dispatch(ctx context.Context, post domain.Post, followers []domain.Follower) domain.DeliveryReport {
	ctx, span := tracer.Start(ctx, "Fanout.Dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String("post", post.ID),
		attribute.Int("followers", len(followers)),
	)

	report := domain.DeliveryReport{
		PostID:    post.ID,
		Delivered: []string{},
		Failed:    []domain.DeliveryFailure{},
	}

	body, err := json.Marshal(post)
	if err != nil {
		span.RecordError(err)
		for _, f := range followers {
			report.Failed = append(report.Failed, domain.DeliveryFailure{
				FollowerID: f.ID,
				URL:        tent.NotificationURL(f.Identifier, f.NotificationPath),
				Err:        err,
			})
		}
		return report
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(d.workers)

	for _, f := range followers {
		f := f
		g.Go(func() error {
			failure := d.deliver(ctx, f, body)

			mu.Lock()
			defer mu.Unlock()
			if failure != nil {
				report.Failed = append(report.Failed, *failure)
			} else {
				report.Delivered = append(report.Delivered, f.ID)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(report.Delivered)
	sort.Slice(report.Failed, func(i, j int) bool {
		return report.Failed[i].FollowerID < report.Failed[j].FollowerID
	})

	for _, f := range report.Failed {
		d.logger.Warn(
			"delivery failed",
			zap.String("post", post.ID),
			zap.String("follower", f.FollowerID),
			zap.String("url", f.URL),
			zap.Int("status", f.Status),
			zap.Error(f.Err),
		)
	}
	span.SetAttributes(
		attribute.Int("delivered", len(report.Delivered)),
		attribute.Int("failed", len(report.Failed)),
	)

	return report
}

func (d *FanoutDispatcher) deliver(ctx context.Context, follower domain.Follower, body []byte) *domain.DeliveryFailure {
	url := tent.NotificationURL(follower.Identifier, follower.NotificationPath)

	ctx, span := tracer.Start(ctx, "Fanout.Deliver",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("follower", follower.ID),
			attribute.String("url", url),
		),
	)
	defer span.End()

	resp, err := d.client.Post(ctx, url, tent.MIMEType, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		return &domain.DeliveryFailure{FollowerID: follower.ID, URL: url, Err: err}
	}
	span.SetAttributes(attribute.Int("status", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		span.SetStatus(codes.Error, "rejected")
		return &domain.DeliveryFailure{
			FollowerID: follower.ID,
			URL:        url,
			Status:     resp.StatusCode,
			Err:        errors.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}
	return nil
}
