package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sakif/organlink/internal/apperror"
	"github.com/sakif/organlink/internal/model"
	"github.com/sakif/organlink/internal/repository"
)

var _ repository.RequestRepository = (*RequestDB)(nil)

type RequestDB struct {
	gdb *gorm.DB
}

func (r *RequestDB) Create(ctx context.Context, req *model.Request) error {
	now := time.Now().UTC()
	req.ID = xid.New().String()
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.Status == "" {
		req.Status = model.RequestPending
	}

	if err := r.gdb.WithContext(ctx).Omit(clause.Associations).Create(requestToRecord(req)).Error; err != nil {
		return fmt.Errorf("postgres: creating request: %w", err)
	}
	return nil
}

func (r *RequestDB) GetByID(ctx context.Context, id string) (*model.Request, error) {
	var rec requestRecord
	if err := r.gdb.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("request", id)
		}
		return nil, fmt.Errorf("postgres: getting request %s: %w", id, err)
	}
	req := rec.toModel()
	return &req, nil
}

func (r *RequestDB) List(ctx context.Context, filter repository.RequestFilter) ([]model.Request, error) {
	q := r.gdb.WithContext(ctx).Model(&requestRecord{})
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.RequesterID != "" {
		q = q.Where("requester_id = ?", filter.RequesterID)
	}

	var records []requestRecord
	if err := q.Order(orderBy(filter.Order)).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("postgres: listing requests: %w", err)
	}

	requests := make([]model.Request, 0, len(records))
	for i := range records {
		requests = append(requests, records[i].toModel())
	}
	return requests, nil
}

func (r *RequestDB) UpdateStatus(ctx context.Context, id string, status model.RequestStatus) (*model.Request, error) {
	result := r.gdb.WithContext(ctx).Model(&requestRecord{}).Where("id = ?", id).
		Updates(map[string]any{"status": string(status), "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return nil, fmt.Errorf("postgres: updating request %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperror.NotFound("request", id)
	}
	return r.GetByID(ctx, id)
}
