package models

// Slide is the current slide of a live presentation session.
type Slide struct {
	SessionID  string `json:"sessionId"`
	SlideIndex int    `json:"slideIndex"`
	Topic      string `json:"topic"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"timestamp"` // unix millis, set by the server
}

const DefaultSessionID = "default"

// DefaultSlide is served for sessions nothing has been posted to yet.
func DefaultSlide(sessionID string, nowMillis int64) Slide {
	return Slide{
		SessionID:  sessionID,
		SlideIndex: 0,
		Topic:      "Welcome",
		Content:    "Welcome to the presentation",
		Timestamp:  nowMillis,
	}
}
