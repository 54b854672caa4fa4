// Package repository declares the storage contracts the services depend on.
//
// Implementations live in sub-packages (sqlite, postgres). Services only see
// these interfaces, which keeps them testable with in-memory fakes.
package repository

import (
	"context"

	"github.com/sakif/organlink/internal/model"
)

// SortOrder controls the creation-time ordering of list results.
type SortOrder int

const (
	// NewestFirst orders by created_at descending. It is the zero value.
	NewestFirst SortOrder = iota
	// OldestFirst orders by created_at ascending (insertion order).
	OldestFirst
)

// OrganFilter narrows OrganRepository.List. Zero-valued fields do not filter.
type OrganFilter struct {
	Status  model.OrganStatus
	DonorID string
	Order   SortOrder
}

// RequestFilter narrows RequestRepository.List. Zero-valued fields do not filter.
type RequestFilter struct {
	Status      model.RequestStatus
	RequesterID string
	Order       SortOrder
}

type UserRepository interface {
	// Create assigns ID and timestamps. A duplicate email yields apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail expects an already-normalized email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// AppendChatTurns appends to the end of the user's history, in order.
	AppendChatTurns(ctx context.Context, userID string, turns ...model.ChatTurn) error
	ChatHistory(ctx context.Context, userID string) ([]model.ChatTurn, error)
}

type OrganRepository interface {
	Create(ctx context.Context, organ *model.Organ) error
	GetByID(ctx context.Context, id string) (*model.Organ, error)
	List(ctx context.Context, filter OrganFilter) ([]model.Organ, error)
	UpdateStatus(ctx context.Context, id string, status model.OrganStatus) error
}

type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) error
	GetByID(ctx context.Context, id string) (*model.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]model.Request, error)
	// UpdateStatus returns the request as stored after the update.
	UpdateStatus(ctx context.Context, id string, status model.RequestStatus) (*model.Request, error)
}

// Store bundles the repositories behind one owned connection handle.
// Close releases the underlying pool.
type Store interface {
	Users() UserRepository
	Organs() OrganRepository
	Requests() RequestRepository
	Close() error
}
