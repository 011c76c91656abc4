package cache

import (
	"context"

	"github.com/yoockh/hotelbridge/internal/models"
)

// SlideStore keeps the current slide per presentation session. Last write
// wins and nothing expires; with MemoryCache it is single-instance only.
type SlideStore struct {
	c Cache
}

func NewSlideStore(c Cache) *SlideStore {
	return &SlideStore{c: c}
}

func slideKey(sessionID string) string { return "slide:" + sessionID }

func (s *SlideStore) Get(ctx context.Context, sessionID string) (models.Slide, bool, error) {
	var out models.Slide
	hit, err := s.c.GetJSON(ctx, slideKey(sessionID), &out)
	if err != nil || !hit {
		return models.Slide{}, false, err
	}
	return out, true, nil
}

func (s *SlideStore) Put(ctx context.Context, slide models.Slide) error {
	return s.c.SetJSON(ctx, slideKey(slide.SessionID), slide, 0)
}
