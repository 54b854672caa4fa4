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

var _ repository.UserRepository = (*UserDB)(nil)

type UserDB struct {
	gdb *gorm.DB
}

func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := u.gdb.WithContext(ctx).Create(userToRecord(user)).Error; err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "email "+user.Email)
		}
		return fmt.Errorf("postgres: creating user: %w", err)
	}
	return nil
}

func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	var rec userRecord
	if err := u.gdb.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	return rec.toModel(), nil
}

func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var rec userRecord
	if err := u.gdb.WithContext(ctx).Where("email = ?", email).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("postgres: getting user by email: %w", err)
	}
	return rec.toModel(), nil
}

// AppendChatTurns inserts the turns in one transaction, in order.
func (u *UserDB) AppendChatTurns(ctx context.Context, userID string, turns ...model.ChatTurn) error {
	if len(turns) == 0 {
		return nil
	}

	return u.gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&userRecord{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("postgres: checking user %s: %w", userID, err)
		}
		if count == 0 {
			return apperror.NotFound("user", userID)
		}

		records := make([]chatTurnRecord, 0, len(turns))
		for _, turn := range turns {
			records = append(records, chatTurnRecord{
				UserID:    userID,
				Role:      string(turn.Role),
				Message:   turn.Message,
				CreatedAt: turn.Timestamp.UTC(),
			})
		}
		if err := tx.Omit(clause.Associations).Create(&records).Error; err != nil {
			return fmt.Errorf("postgres: appending chat turns for %s: %w", userID, err)
		}

		return tx.Model(&userRecord{}).Where("id = ?", userID).
			Update("updated_at", time.Now().UTC()).Error
	})
}

func (u *UserDB) ChatHistory(ctx context.Context, userID string) ([]model.ChatTurn, error) {
	if _, err := u.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	var records []chatTurnRecord
	if err := u.gdb.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("seq ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("postgres: listing chat history for %s: %w", userID, err)
	}

	history := make([]model.ChatTurn, 0, len(records))
	for i := range records {
		history = append(history, records[i].toModel())
	}
	return history, nil
}
