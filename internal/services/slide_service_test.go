package services

import (
	"context"
	"testing"
	"time"

	"github.com/yoockh/hotelbridge/internal/cache"
	"github.com/yoockh/hotelbridge/internal/models"
	"github.com/yoockh/hotelbridge/internal/utils"
	"github.com/yoockh/hotelbridge/internal/workers"
)

func newTestSlides(t *testing.T) (*slideService, *workers.MemoryNotifier) {
	t.Helper()
	n := workers.NewMemoryNotifier()
	svc := NewSlideService(cache.NewSlideStore(cache.NewMemoryCache()), n, quietLogger()).(*slideService)
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, n
}

func TestSlideService_DefaultSlide(t *testing.T) {
	svc, _ := newTestSlides(t)

	got, err := svc.Current(context.Background(), "")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	want := models.DefaultSlide(models.DefaultSessionID, 1700000000000)
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestSlideService_UpdateAndWatch(t *testing.T) {
	svc, _ := newTestSlides(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, stop, err := svc.Watch(ctx, "demo")
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	saved, err := svc.Update(ctx, models.Slide{SessionID: "demo", SlideIndex: 2, Topic: "Rooms", Timestamp: 5})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if saved.Timestamp != 1700000000000 {
		t.Errorf("timestamp should be server-assigned, got %d", saved.Timestamp)
	}

	select {
	case got := <-ch:
		if got != saved {
			t.Errorf("notified %+v, want %+v", got, saved)
		}
	case <-time.After(time.Second):
		t.Fatal("no notification received")
	}

	cur, _ := svc.Current(ctx, "demo")
	if cur != saved {
		t.Errorf("current = %+v", cur)
	}
	other, _ := svc.Current(ctx, "other")
	if other.Topic != "Welcome" {
		t.Errorf("sessions should be independent, got %+v", other)
	}
}

func TestSlideService_UpdateFromArgs(t *testing.T) {
	svc, _ := newTestSlides(t)
	ctx := context.Background()

	if _, err := svc.UpdateFromArgs(ctx, map[string]any{"topic": "x"}); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("missing slideIndex: err = %v", err)
	}
	if _, err := svc.UpdateFromArgs(ctx, map[string]any{"slideIndex": -1}); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("negative slideIndex: err = %v", err)
	}

	got, err := svc.UpdateFromArgs(ctx, map[string]any{"slideIndex": "4", "topic": "Spa", "sessionId": "s1"})
	if err != nil {
		t.Fatalf("UpdateFromArgs: %v", err)
	}
	if got.SessionID != "s1" || got.SlideIndex != 4 || got.Topic != "Spa" {
		t.Errorf("got %+v", got)
	}
}

func TestSlideService_NoNotifier(t *testing.T) {
	svc := NewSlideService(cache.NewSlideStore(cache.NewMemoryCache()), nil, quietLogger())
	if _, err := svc.Update(context.Background(), models.Slide{SlideIndex: 1}); err != nil {
		t.Fatalf("Update without notifier: %v", err)
	}
	if _, _, err := svc.Watch(context.Background(), ""); !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("Watch err = %v", err)
	}
}
