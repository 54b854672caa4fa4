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

var _ repository.OrganRepository = (*OrganDB)(nil)

type OrganDB struct {
	gdb *gorm.DB
}

func (o *OrganDB) Create(ctx context.Context, organ *model.Organ) error {
	now := time.Now().UTC()
	organ.ID = xid.New().String()
	organ.CreatedAt = now
	organ.UpdatedAt = now
	if organ.AvailabilityStatus == "" {
		organ.AvailabilityStatus = model.OrganAvailable
	}

	if err := o.gdb.WithContext(ctx).Omit(clause.Associations).Create(organToRecord(organ)).Error; err != nil {
		return fmt.Errorf("postgres: creating organ: %w", err)
	}
	return nil
}

func (o *OrganDB) GetByID(ctx context.Context, id string) (*model.Organ, error) {
	var rec organRecord
	if err := o.gdb.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("organ", id)
		}
		return nil, fmt.Errorf("postgres: getting organ %s: %w", id, err)
	}
	organ := rec.toModel()
	return &organ, nil
}

func (o *OrganDB) List(ctx context.Context, filter repository.OrganFilter) ([]model.Organ, error) {
	q := o.gdb.WithContext(ctx).Model(&organRecord{})
	if filter.Status != "" {
		q = q.Where("availability_status = ?", string(filter.Status))
	}
	if filter.DonorID != "" {
		q = q.Where("donor_id = ?", filter.DonorID)
	}

	var records []organRecord
	if err := q.Order(orderBy(filter.Order)).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("postgres: listing organs: %w", err)
	}

	organs := make([]model.Organ, 0, len(records))
	for i := range records {
		organs = append(organs, records[i].toModel())
	}
	return organs, nil
}

func (o *OrganDB) UpdateStatus(ctx context.Context, id string, status model.OrganStatus) error {
	result := o.gdb.WithContext(ctx).Model(&organRecord{}).Where("id = ?", id).
		Updates(map[string]any{"availability_status": string(status), "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return fmt.Errorf("postgres: updating organ %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("organ", id)
	}
	return nil
}
