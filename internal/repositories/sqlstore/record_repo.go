package sqlstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/yoockh/hotelbridge/internal/models"
	"github.com/yoockh/hotelbridge/internal/utils"
)

type RecordRepository interface {
	List(ctx context.Context, kind models.RecordKind) ([]models.Record, error)
	Get(ctx context.Context, kind models.RecordKind, id string) (*models.Record, error)
	Create(ctx context.Context, r *models.Record) error
	Update(ctx context.Context, r *models.Record) error
	Delete(ctx context.Context, kind models.RecordKind, id string) error
	Count(ctx context.Context, kind models.RecordKind) (int64, error)
}

type recordRepo struct {
	db *gorm.DB
}

func NewRecordRepo(db *gorm.DB) RecordRepository {
	return &recordRepo{db: db}
}

func (r *recordRepo) List(ctx context.Context, kind models.RecordKind) ([]models.Record, error) {
	var rows []models.Record
	err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("created_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *recordRepo) Get(ctx context.Context, kind models.RecordKind, id string) (*models.Record, error) {
	var row models.Record
	err := r.db.WithContext(ctx).
		Where("kind = ? AND id = ?", kind, id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *recordRepo) Create(ctx context.Context, rec *models.Record) error {
	err := r.db.WithContext(ctx).Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return utils.ErrConflict
	}
	return err
}

func (r *recordRepo) Update(ctx context.Context, rec *models.Record) error {
	res := r.db.WithContext(ctx).
		Model(&models.Record{}).
		Where("kind = ? AND id = ?", rec.Kind, rec.ID).
		Updates(map[string]any{
			"data":       rec.Data,
			"updated_at": rec.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *recordRepo) Delete(ctx context.Context, kind models.RecordKind, id string) error {
	res := r.db.WithContext(ctx).
		Where("kind = ? AND id = ?", kind, id).
		Delete(&models.Record{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *recordRepo) Count(ctx context.Context, kind models.RecordKind) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.Record{}).
		Where("kind = ?", kind).
		Count(&n).Error
	return n, err
}
