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

var _ repository.RequestRepository = (*RequestDB)(nil)

// RequestDB stores organ requests.
type RequestDB struct {
	conn *sql.DB
}

const requestColumns = `id, organ_id, requested_type, requested_blood_group, requester_id, status, notes, created_at, updated_at`

// Create inserts a new request. An empty status defaults to pending.
// A nil OrganID is stored as NULL.
func (r *RequestDB) Create(ctx context.Context, req *model.Request) error {
	now := time.Now().UTC()
	req.ID = xid.New().String()
	req.CreatedAt = now
	req.UpdatedAt = now
	if req.Status == "" {
		req.Status = model.RequestPending
	}

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO requests (`+requestColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID,
		nullString(req.OrganID),
		req.RequestedType,
		req.RequestedBloodGroup,
		req.RequesterID,
		string(req.Status),
		req.Notes,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating request: %w", err)
	}
	return nil
}

func (r *RequestDB) GetByID(ctx context.Context, id string) (*model.Request, error) {
	req, err := scanRequest(r.conn.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("request", id)
		}
		return nil, fmt.Errorf("sqlite: getting request %s: %w", id, err)
	}
	return req, nil
}

func (r *RequestDB) List(ctx context.Context, filter repository.RequestFilter) ([]model.Request, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.RequesterID != "" {
		conds = append(conds, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}

	query := `SELECT ` + requestColumns + ` FROM requests`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += orderClause(filter.Order)

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing requests: %w", err)
	}
	defer rows.Close()

	requests := []model.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning request row: %w", err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating requests: %w", err)
	}
	return requests, nil
}

// UpdateStatus sets the status and reads the row back.
func (r *RequestDB) UpdateStatus(ctx context.Context, id string, status model.RequestStatus) (*model.Request, error) {
	result, err := r.conn.ExecContext(ctx,
		`UPDATE requests SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating request %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("request", id)
	}

	return r.GetByID(ctx, id)
}

func scanRequest(row rowScanner) (*model.Request, error) {
	var (
		req     model.Request
		organID sql.NullString
		status  string
	)
	if err := row.Scan(
		&req.ID,
		&organID,
		&req.RequestedType,
		&req.RequestedBloodGroup,
		&req.RequesterID,
		&status,
		&req.Notes,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if organID.Valid {
		id := organID.String
		req.OrganID = &id
	}
	req.Status = model.RequestStatus(status)
	return &req, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
