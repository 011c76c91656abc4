package workers

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/hotelbridge/internal/models"
)

// SlideNotifier fans slide updates out to live presentation viewers.
type SlideNotifier interface {
	Publish(ctx context.Context, slide models.Slide) error
	// Subscribe delivers updates for sessionID until ctx is done or the
	// returned cancel func is called.
	Subscribe(ctx context.Context, sessionID string) (<-chan models.Slide, func(), error)
}

const subscriberBuffer = 8

func slideChannel(sessionID string) string { return "slide:" + sessionID + ":updates" }

// MemoryNotifier fans out within one process. Slow viewers miss
// intermediate slides rather than blocking the publisher.
type MemoryNotifier struct {
	mu   sync.Mutex
	subs map[string]map[chan models.Slide]struct{}
}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{subs: map[string]map[chan models.Slide]struct{}{}}
}

func (n *MemoryNotifier) Publish(_ context.Context, slide models.Slide) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.subs[slide.SessionID] {
		select {
		case ch <- slide:
		default:
		}
	}
	return nil
}

func (n *MemoryNotifier) Subscribe(ctx context.Context, sessionID string) (<-chan models.Slide, func(), error) {
	ch := make(chan models.Slide, subscriberBuffer)

	n.mu.Lock()
	if n.subs[sessionID] == nil {
		n.subs[sessionID] = map[chan models.Slide]struct{}{}
	}
	n.subs[sessionID][ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs[sessionID], ch)
			if len(n.subs[sessionID]) == 0 {
				delete(n.subs, sessionID)
			}
			n.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, cancel, nil
}

func (n *MemoryNotifier) subscribers(sessionID string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs[sessionID])
}

// RedisNotifier fans out across instances through redis pub/sub.
type RedisNotifier struct {
	rdb *redis.Client
	log logrus.FieldLogger
}

func NewRedisNotifier(rdb *redis.Client, log logrus.FieldLogger) *RedisNotifier {
	if log == nil {
		log = logrus.New()
	}
	return &RedisNotifier{rdb: rdb, log: log}
}

func (n *RedisNotifier) Publish(ctx context.Context, slide models.Slide) error {
	b, err := json.Marshal(slide)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, slideChannel(slide.SessionID), b).Err()
}

func (n *RedisNotifier) Subscribe(ctx context.Context, sessionID string) (<-chan models.Slide, func(), error) {
	ctx, stop := context.WithCancel(ctx)
	pubsub := n.rdb.Subscribe(ctx, slideChannel(sessionID))

	// wait for the subscription to be confirmed so early publishes aren't lost
	if _, err := pubsub.Receive(ctx); err != nil {
		stop()
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan models.Slide, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var s models.Slide
				if err := json.Unmarshal([]byte(m.Payload), &s); err != nil {
					n.log.WithError(err).WithField("session_id", sessionID).Warn("dropping malformed slide update")
					continue
				}
				select {
				case out <- s:
				default:
				}
			}
		}
	}()

	return out, stop, nil
}
