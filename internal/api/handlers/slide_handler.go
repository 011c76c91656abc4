package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/hotelbridge/internal/services"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// SlideHandler serves the current slide to the presentation page.
type SlideHandler struct {
	slides   services.SlideService
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewSlideHandler(slides services.SlideService, log logrus.FieldLogger) *SlideHandler {
	if log == nil {
		log = logrus.New()
	}
	return &SlideHandler{
		slides: slides,
		log:    log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *SlideHandler) Current(c *gin.Context) {
	slide, err := h.slides.Current(c.Request.Context(), c.Query("sessionId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, slide)
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) ping() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

// Stream pushes the current slide, then every update, until the viewer
// disconnects.
func (h *SlideHandler) Stream(c *gin.Context) {
	sessionID := c.Query("sessionId")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// subscribe before reading the current slide so no update is lost
	updates, stop, err := h.slides.Watch(ctx, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer stop()

	current, err := h.slides.Current(ctx, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	log := h.log.WithField("session_id", current.SessionID)
	log.Info("slide viewer connected")
	defer log.Info("slide viewer disconnected")

	if err := wc.writeJSON(current); err != nil {
		return
	}

	// reader: only control frames matter; the page never sends data
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wc.ping(); err != nil {
				return
			}
		case s, ok := <-updates:
			if !ok {
				return
			}
			if err := wc.writeJSON(s); err != nil {
				return
			}
		}
	}
}
