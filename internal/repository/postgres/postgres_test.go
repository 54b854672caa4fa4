package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/sakif/organlink/internal/model"
	"github.com/sakif/organlink/internal/repository"
)

// These tests cover the pieces that do not need a running server. The
// repository methods themselves are exercised against SQLite, which shares
// the same interface contract.

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, "created_at DESC, id DESC", orderBy(repository.NewestFirst))
	assert.Equal(t, "created_at ASC, id ASC", orderBy(repository.OldestFirst))
}

func TestRequestRecordKeepsNullOrgan(t *testing.T) {
	req := &model.Request{ID: "r1", RequestedType: "kidney", RequesterID: "u1", Status: model.RequestPending}

	rec := requestToRecord(req)
	assert.Nil(t, rec.OrganID)

	back := rec.toModel()
	assert.Nil(t, back.OrganID)
	assert.Equal(t, model.RequestPending, back.Status)
}

func TestOrganRecordCarriesStatus(t *testing.T) {
	now := time.Now().UTC()
	organ := &model.Organ{ID: "o1", Type: "kidney", BloodGroup: "O+", DonorID: "u1",
		AvailabilityStatus: model.OrganDonated, Gender: model.GenderOther, CreatedAt: now}

	back := organToRecord(organ).toModel()

	assert.Equal(t, *organ, back)
}

func TestUserRecordKeepsHash(t *testing.T) {
	user := &model.User{ID: "u1", Email: "a@b.c", PasswordHash: "hash"}

	back := userToRecord(user).toModel()

	assert.Equal(t, "hash", back.PasswordHash)
	assert.Equal(t, "a@b.c", back.Email)
}
