package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Categories written to their own files when LOG_DIR is set.
const (
	CategoryWebhooks = "webhooks"
	CategoryAgent    = "agent"
	CategorySlides   = "slides"
)

func New() *logrus.Logger {
	return NewWithOutput(os.Stdout)
}

func NewWithOutput(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))
	return l
}

func parseLevel(v string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Sinks hands out one logger per category. With an empty dir every category
// shares the base logger; otherwise each category appends JSON lines to
// <dir>/<category>.log.
type Sinks struct {
	base *logrus.Logger
	dir  string

	mu    sync.Mutex
	cats  map[string]*logrus.Logger
	files []*os.File
}

func NewSinks(base *logrus.Logger, dir string) *Sinks {
	return &Sinks{base: base, dir: dir, cats: map[string]*logrus.Logger{}}
}

// Category returns the logger for name. A file that cannot be opened falls
// back to the base logger; the failure is reported there once.
func (s *Sinks) Category(name string) logrus.FieldLogger {
	if s == nil {
		return logrus.StandardLogger()
	}
	if s.dir == "" {
		return s.base.WithField("category", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.cats[name]; ok {
		return l.WithField("category", name)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.base.WithError(err).WithField("category", name).Warn("log dir unavailable; using stdout")
		s.cats[name] = s.base
		return s.base.WithField("category", name)
	}

	// O_APPEND keeps concurrent writers from clobbering each other's lines.
	f, err := os.OpenFile(filepath.Join(s.dir, name+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.base.WithError(err).WithField("category", name).Warn("log file unavailable; using stdout")
		s.cats[name] = s.base
		return s.base.WithField("category", name)
	}

	l := logrus.New()
	l.SetOutput(f)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(s.base.GetLevel())

	s.cats[name] = l
	s.files = append(s.files, f)
	return l.WithField("category", name)
}

func (s *Sinks) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var first error
	for _, f := range s.files {
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.files = nil
	s.cats = map[string]*logrus.Logger{}
	return first
}
