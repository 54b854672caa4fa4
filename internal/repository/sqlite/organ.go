package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/organlink/internal/apperror"
	"github.com/sakif/organlink/internal/model"
	"github.com/sakif/organlink/internal/repository"
)

var _ repository.OrganRepository = (*OrganDB)(nil)

// OrganDB stores donation offers.
type OrganDB struct {
	conn *sql.DB
}

const organColumns = `id, type, blood_group, donor_id, availability_status, gender, created_at, updated_at`

// Create inserts a new organ. An empty status defaults to available.
func (o *OrganDB) Create(ctx context.Context, organ *model.Organ) error {
	now := time.Now().UTC()
	organ.ID = xid.New().String()
	organ.CreatedAt = now
	organ.UpdatedAt = now
	if organ.AvailabilityStatus == "" {
		organ.AvailabilityStatus = model.OrganAvailable
	}

	_, err := o.conn.ExecContext(ctx,
		`INSERT INTO organs (`+organColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		organ.ID,
		organ.Type,
		organ.BloodGroup,
		organ.DonorID,
		string(organ.AvailabilityStatus),
		organ.Gender,
		organ.CreatedAt,
		organ.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating organ: %w", err)
	}
	return nil
}

func (o *OrganDB) GetByID(ctx context.Context, id string) (*model.Organ, error) {
	organ, err := scanOrgan(o.conn.QueryRowContext(ctx,
		`SELECT `+organColumns+` FROM organs WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("organ", id)
		}
		return nil, fmt.Errorf("sqlite: getting organ %s: %w", id, err)
	}
	return organ, nil
}

// List returns organs matching filter. The WHERE clause is assembled from
// fixed fragments only; values always go through placeholders.
func (o *OrganDB) List(ctx context.Context, filter repository.OrganFilter) ([]model.Organ, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		conds = append(conds, "availability_status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.DonorID != "" {
		conds = append(conds, "donor_id = ?")
		args = append(args, filter.DonorID)
	}

	query := `SELECT ` + organColumns + ` FROM organs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderClause(filter.Order)

	rows, err := o.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing organs: %w", err)
	}
	defer rows.Close()

	organs := []model.Organ{}
	for rows.Next() {
		organ, err := scanOrgan(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning organ row: %w", err)
		}
		organs = append(organs, *organ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating organs: %w", err)
	}
	return organs, nil
}

// UpdateStatus sets the availability status unconditionally.
func (o *OrganDB) UpdateStatus(ctx context.Context, id string, status model.OrganStatus) error {
	result, err := o.conn.ExecContext(ctx,
		`UPDATE organs SET availability_status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating organ %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("organ", id)
	}
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrgan(row rowScanner) (*model.Organ, error) {
	var (
		organ  model.Organ
		status string
	)
	if err := row.Scan(
		&organ.ID,
		&organ.Type,
		&organ.BloodGroup,
		&organ.DonorID,
		&status,
		&organ.Gender,
		&organ.CreatedAt,
		&organ.UpdatedAt,
	); err != nil {
		return nil, err
	}
	organ.AvailabilityStatus = model.OrganStatus(status)
	return &organ, nil
}
