package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/organlink/internal/apperror"
	"github.com/sakif/organlink/internal/model"
	"github.com/sakif/organlink/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// UserDB stores users and their chat history.
type UserDB struct {
	conn *sql.DB
}

// Create inserts a new user. The email column is UNIQUE, so a second account
// with the same address comes back as apperror.ErrConflict.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, phone, address, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.Address,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "email "+user.Email)
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := u.scanOne(ctx, `WHERE id = ?`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByEmail is the login lookup.
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := u.scanOne(ctx, `WHERE email = ?`, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return user, nil
}

func (u *UserDB) scanOne(ctx context.Context, where string, arg any) (*model.User, error) {
	var user model.User
	err := u.conn.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, phone, address, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Phone,
		&user.Address,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// AppendChatTurns writes all turns in one transaction so a user message is
// never stored without its reply.
func (u *UserDB) AppendChatTurns(ctx context.Context, userID string, turns ...model.ChatTurn) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := u.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning chat append: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("sqlite: checking user %s: %w", userID, err)
	}
	if exists == 0 {
		return apperror.NotFound("user", userID)
	}

	for _, turn := range turns {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chat_turns (user_id, role, message, created_at) VALUES (?, ?, ?, ?)`,
			userID, string(turn.Role), turn.Message, turn.Timestamp.UTC(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: appending chat turn for %s: %w", userID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET updated_at = ? WHERE id = ?`, time.Now().UTC(), userID,
	); err != nil {
		return fmt.Errorf("sqlite: touching user %s: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing chat append: %w", err)
	}
	return nil
}

// ChatHistory returns the user's full history in insertion order.
func (u *UserDB) ChatHistory(ctx context.Context, userID string) ([]model.ChatTurn, error) {
	if _, err := u.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	rows, err := u.conn.QueryContext(ctx,
		`SELECT role, message, created_at FROM chat_turns WHERE user_id = ? ORDER BY seq ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing chat history for %s: %w", userID, err)
	}
	defer rows.Close()

	history := []model.ChatTurn{}
	for rows.Next() {
		var (
			turn model.ChatTurn
			role string
		)
		if err := rows.Scan(&role, &turn.Message, &turn.Timestamp); err != nil {
			return nil, fmt.Errorf("sqlite: scanning chat turn: %w", err)
		}
		turn.Role = model.ChatRole(role)
		history = append(history, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating chat history: %w", err)
	}

	return history, nil
}
