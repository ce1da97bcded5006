package service

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/totegamma/tentd"
)

const channelPrefix = "tentd:"

// SignalService relays entity events over redis pub/sub so every tentd
// process can serve realtime listeners.
type SignalService struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewSignalService(redisClient *redis.Client, logger *zap.Logger) *SignalService {
	return &SignalService{
		rdb:    redisClient,
		logger: logger.With(zap.String("module", "signal")),
	}
}

func Channel(entity string) string {
	return channelPrefix + entity
}

func (s *SignalService) Publish(ctx context.Context, entity string, event tent.Event) error {
	jsonstr, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "SignalService.Publish: marshal")
	}

	err = s.rdb.Publish(ctx, Channel(entity), jsonstr).Err()
	if err != nil {
		return errors.Wrap(err, "SignalService.Publish")
	}
	return nil
}

// Realtime forwards events for entity into output until ctx is done.
// Undecodable messages are dropped.
func (s *SignalService) Realtime(ctx context.Context, entity string, output chan<- tent.Event) error {
	sub := s.rdb.Subscribe(ctx, Channel(entity))
	defer sub.Close()

	// wait for the subscription to be confirmed before reading
	if _, err := sub.Receive(ctx); err != nil {
		return errors.Wrap(err, "SignalService.Realtime: subscribe")
	}

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event tent.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				s.logger.Debug("dropping malformed event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
