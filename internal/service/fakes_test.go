package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/sakif/organlink/internal/apperror"
	"github.com/sakif/organlink/internal/model"
	"github.com/sakif/organlink/internal/repository"
)

// =========================================================================
// IN-MEMORY FAKES
// =========================================================================
//
// Each fake implements one repository interface over a slice kept in
// insertion order, so OldestFirst is slice order and NewestFirst is its
// reverse. Set the *Err fields to simulate a store failure.

type fakeUserRepo struct {
	mu        sync.Mutex
	users     []*model.User
	history   map[string][]model.ChatTurn
	nextID    int
	createErr error
	getErr    error
	appendErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{history: make(map[string][]model.ChatTurn)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email "+user.Email)
		}
	}
	f.nextID++
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users = append(f.users, &stored)
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.ID == id {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", id)
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) AppendChatTurns(ctx context.Context, userID string, turns ...model.ChatTurn) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	if _, err := f.GetByID(ctx, userID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history[userID] = append(f.history[userID], turns...)
	return nil
}

func (f *fakeUserRepo) ChatHistory(ctx context.Context, userID string) ([]model.ChatTurn, error) {
	if _, err := f.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	turns := make([]model.ChatTurn, len(f.history[userID]))
	copy(turns, f.history[userID])
	return turns, nil
}

type fakeOrganRepo struct {
	mu        sync.Mutex
	organs    []*model.Organ
	nextID    int
	updateErr error
}

func newFakeOrganRepo() *fakeOrganRepo {
	return &fakeOrganRepo{}
}

func (f *fakeOrganRepo) Create(_ context.Context, organ *model.Organ) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	organ.ID = fmt.Sprintf("organ-%d", f.nextID)
	if organ.AvailabilityStatus == "" {
		organ.AvailabilityStatus = model.OrganAvailable
	}
	organ.CreatedAt = time.Now().UTC()
	organ.UpdatedAt = organ.CreatedAt
	stored := *organ
	f.organs = append(f.organs, &stored)
	return nil
}

func (f *fakeOrganRepo) GetByID(_ context.Context, id string) (*model.Organ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.organs {
		if o.ID == id {
			result := *o
			return &result, nil
		}
	}
	return nil, apperror.NotFound("organ", id)
}

func (f *fakeOrganRepo) List(_ context.Context, filter repository.OrganFilter) ([]model.Organ, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []model.Organ{}
	for _, o := range f.organs {
		if filter.Status != "" && o.AvailabilityStatus != filter.Status {
			continue
		}
		if filter.DonorID != "" && o.DonorID != filter.DonorID {
			continue
		}
		result = append(result, *o)
	}
	if filter.Order == repository.NewestFirst {
		reverse(result)
	}
	return result, nil
}

func (f *fakeOrganRepo) UpdateStatus(_ context.Context, id string, status model.OrganStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, o := range f.organs {
		if o.ID == id {
			o.AvailabilityStatus = status
			o.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return apperror.NotFound("organ", id)
}

// status reads an organ's current status straight from the fake.
func (f *fakeOrganRepo) status(id string) model.OrganStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.organs {
		if o.ID == id {
			return o.AvailabilityStatus
		}
	}
	return ""
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests []*model.Request
	nextID   int
	listErr  error
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{}
}

func (f *fakeRequestRepo) Create(_ context.Context, req *model.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	req.ID = fmt.Sprintf("request-%d", f.nextID)
	if req.Status == "" {
		req.Status = model.RequestPending
	}
	req.CreatedAt = time.Now().UTC()
	req.UpdatedAt = req.CreatedAt
	stored := *req
	f.requests = append(f.requests, &stored)
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id string) (*model.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.ID == id {
			result := *r
			return &result, nil
		}
	}
	return nil, apperror.NotFound("request", id)
}

func (f *fakeRequestRepo) List(_ context.Context, filter repository.RequestFilter) ([]model.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	result := []model.Request{}
	for _, r := range f.requests {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.RequesterID != "" && r.RequesterID != filter.RequesterID {
			continue
		}
		result = append(result, *r)
	}
	if filter.Order == repository.NewestFirst {
		reverse(result)
	}
	return result, nil
}

func (f *fakeRequestRepo) UpdateStatus(_ context.Context, id string, status model.RequestStatus) (*model.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.ID == id {
			r.Status = status
			r.UpdatedAt = time.Now().UTC()
			result := *r
			return &result, nil
		}
	}
	return nil, apperror.NotFound("request", id)
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// =========================================================================
// TEST HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// seedUser stores a user directly in the fake and returns its ID.
func seedUser(users *fakeUserRepo, name, email string) string {
	u := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: "x",
		Phone:        "555-0100",
		Address:      "1 Main St",
	}
	if err := users.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u.ID
}
