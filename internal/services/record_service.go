package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/yoockh/hotelbridge/internal/models"
	"github.com/yoockh/hotelbridge/internal/repositories/sqlstore"
	"github.com/yoockh/hotelbridge/internal/utils"
)

// Document is one hotel entity as the pages see it.
type Document = map[string]any

type RecordService interface {
	List(ctx context.Context, kind string) ([]Document, error)
	Get(ctx context.Context, kind, id string) (Document, error)
	Create(ctx context.Context, kind string, doc Document) (Document, error)
	Replace(ctx context.Context, kind, id string, doc Document) (Document, error)
	Delete(ctx context.Context, kind, id string) error
	// Seed loads <dir>/<kind>.json for every kind that has no rows yet.
	Seed(ctx context.Context, dir string) (int, error)
}

type recordService struct {
	repo sqlstore.RecordRepository
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewRecordService(repo sqlstore.RecordRepository, log logrus.FieldLogger) RecordService {
	if log == nil {
		log = logrus.New()
	}
	return &recordService{repo: repo, log: log, now: time.Now}
}

func parseKind(op, kind string) (models.RecordKind, error) {
	k, ok := models.ParseRecordKind(strings.ToLower(strings.TrimSpace(kind)))
	if !ok {
		return "", utils.E(utils.CodeNotFound, op, "unknown record kind", fmt.Errorf("kind %q", kind))
	}
	return k, nil
}

func decodeDocument(op string, r *models.Record) (Document, error) {
	var doc Document
	if err := json.Unmarshal(r.Data, &doc); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "stored record is corrupt", err)
	}
	if doc == nil {
		doc = Document{}
	}
	doc["id"] = r.ID
	return doc, nil
}

// documentID reads the caller-supplied id, accepting strings and numbers.
func documentID(doc Document) string {
	switch v := doc["id"].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}

func mapRepoErr(op string, err error) error {
	switch {
	case errors.Is(err, utils.ErrNotFound):
		return utils.E(utils.CodeNotFound, op, "record not found", err)
	case errors.Is(err, utils.ErrConflict):
		return utils.E(utils.CodeConflict, op, "record already exists", err)
	default:
		return utils.E(utils.CodeInternal, op, "failed to access records", err)
	}
}

func (s *recordService) List(ctx context.Context, kind string) ([]Document, error) {
	const op = "RecordService.List"

	k, err := parseKind(op, kind)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, k)
	if err != nil {
		return nil, mapRepoErr(op, err)
	}
	out := make([]Document, 0, len(rows))
	for i := range rows {
		doc, err := decodeDocument(op, &rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *recordService) Get(ctx context.Context, kind, id string) (Document, error) {
	const op = "RecordService.Get"

	k, err := parseKind(op, kind)
	if err != nil {
		return nil, err
	}
	r, err := s.repo.Get(ctx, k, id)
	if err != nil {
		return nil, mapRepoErr(op, err)
	}
	return decodeDocument(op, r)
}

func (s *recordService) Create(ctx context.Context, kind string, doc Document) (Document, error) {
	const op = "RecordService.Create"

	k, err := parseKind(op, kind)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "body must be a JSON object", nil)
	}

	id := documentID(doc)
	if id == "" {
		id = uuid.NewString()
	}
	doc["id"] = id

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "body is not encodable", err)
	}

	now := s.now().UTC()
	rec := &models.Record{ID: id, Kind: k, Data: datatypes.JSON(data), CreatedAt: now, UpdatedAt: now}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, mapRepoErr(op, err)
	}

	s.log.WithFields(logrus.Fields{"kind": k, "id": id}).Info("record created")
	return doc, nil
}

func (s *recordService) Replace(ctx context.Context, kind, id string, doc Document) (Document, error) {
	const op = "RecordService.Replace"

	k, err := parseKind(op, kind)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "body must be a JSON object", nil)
	}
	// the path id wins over any id in the body
	doc["id"] = id

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, utils.E(utils.CodeInvalidArgument, op, "body is not encodable", err)
	}

	rec := &models.Record{ID: id, Kind: k, Data: datatypes.JSON(data), UpdatedAt: s.now().UTC()}
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, mapRepoErr(op, err)
	}
	return doc, nil
}

func (s *recordService) Delete(ctx context.Context, kind, id string) error {
	const op = "RecordService.Delete"

	k, err := parseKind(op, kind)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, k, id); err != nil {
		return mapRepoErr(op, err)
	}
	s.log.WithFields(logrus.Fields{"kind": k, "id": id}).Info("record deleted")
	return nil
}

func (s *recordService) Seed(ctx context.Context, dir string) (int, error) {
	const op = "RecordService.Seed"

	if strings.TrimSpace(dir) == "" {
		return 0, nil
	}

	total := 0
	for _, k := range models.RecordKinds {
		path := filepath.Join(dir, string(k)+".json")
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return total, utils.E(utils.CodeInternal, op, "failed to read seed file", err)
		}

		n, err := s.repo.Count(ctx, k)
		if err != nil {
			return total, mapRepoErr(op, err)
		}
		if n > 0 {
			continue
		}

		var docs []Document
		if err := json.Unmarshal(raw, &docs); err != nil {
			return total, utils.E(utils.CodeInvalidArgument, op, "seed file must hold a JSON array of objects", fmt.Errorf("%s: %w", path, err))
		}
		for _, doc := range docs {
			if _, err := s.Create(ctx, string(k), doc); err != nil {
				return total, err
			}
			total++
		}
		s.log.WithFields(logrus.Fields{"kind": k, "count": len(docs)}).Info("records seeded")
	}
	return total, nil
}
