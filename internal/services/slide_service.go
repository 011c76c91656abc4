package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/hotelbridge/internal/bridge"
	"github.com/yoockh/hotelbridge/internal/cache"
	"github.com/yoockh/hotelbridge/internal/models"
	"github.com/yoockh/hotelbridge/internal/utils"
	"github.com/yoockh/hotelbridge/internal/workers"
)

type SlideService interface {
	Current(ctx context.Context, sessionID string) (models.Slide, error)
	Update(ctx context.Context, slide models.Slide) (models.Slide, error)
	UpdateFromArgs(ctx context.Context, args map[string]any) (models.Slide, error)
	Watch(ctx context.Context, sessionID string) (<-chan models.Slide, func(), error)
}

type slideService struct {
	store    *cache.SlideStore
	notifier workers.SlideNotifier
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewSlideService(store *cache.SlideStore, notifier workers.SlideNotifier, log logrus.FieldLogger) SlideService {
	if log == nil {
		log = logrus.New()
	}
	return &slideService{store: store, notifier: notifier, log: log, now: time.Now}
}

func sessionOrDefault(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.DefaultSessionID
	}
	return id
}

func (s *slideService) Current(ctx context.Context, sessionID string) (models.Slide, error) {
	const op = "SlideService.Current"

	sessionID = sessionOrDefault(sessionID)
	slide, ok, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return models.Slide{}, utils.E(utils.CodeUnavailable, op, "failed to read slide", err)
	}
	if !ok {
		return models.DefaultSlide(sessionID, s.now().UnixMilli()), nil
	}
	return slide, nil
}

func (s *slideService) Update(ctx context.Context, slide models.Slide) (models.Slide, error) {
	const op = "SlideService.Update"

	if slide.SlideIndex < 0 {
		return models.Slide{}, utils.E(utils.CodeInvalidArgument, op, "slideIndex must be >= 0", nil)
	}
	slide.SessionID = sessionOrDefault(slide.SessionID)
	slide.Timestamp = s.now().UnixMilli()

	if err := s.store.Put(ctx, slide); err != nil {
		return models.Slide{}, utils.E(utils.CodeUnavailable, op, "failed to store slide", err)
	}

	log := s.log.WithFields(logrus.Fields{
		"session_id":  slide.SessionID,
		"slide_index": slide.SlideIndex,
	})
	if s.notifier != nil {
		bridge.BestEffort(log, "slide_notify", func() error {
			return s.notifier.Publish(ctx, slide)
		})
	}
	log.WithField("topic", slide.Topic).Info("slide updated")
	return slide, nil
}

func (s *slideService) UpdateFromArgs(ctx context.Context, args map[string]any) (models.Slide, error) {
	const op = "SlideService.UpdateFromArgs"

	idx, ok := bridge.IntArg(args, "slideIndex")
	if !ok {
		return models.Slide{}, utils.E(utils.CodeInvalidArgument, op, "slideIndex is required", nil)
	}
	return s.Update(ctx, models.Slide{
		SessionID:  bridge.StringArg(args, "sessionId"),
		SlideIndex: idx,
		Topic:      bridge.StringArg(args, "topic"),
		Content:    bridge.StringArg(args, "content"),
	})
}

func (s *slideService) Watch(ctx context.Context, sessionID string) (<-chan models.Slide, func(), error) {
	const op = "SlideService.Watch"

	if s.notifier == nil {
		return nil, nil, utils.E(utils.CodeUnavailable, op, "live updates are disabled", nil)
	}
	ch, cancel, err := s.notifier.Subscribe(ctx, sessionOrDefault(sessionID))
	if err != nil {
		return nil, nil, utils.E(utils.CodeUnavailable, op, "failed to subscribe", err)
	}
	return ch, cancel, nil
}
