package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/organlink/internal/apperror"
	"github.com/sakif/organlink/internal/model"
	"github.com/sakif/organlink/internal/repository"
)

const (
	MsgOrganFieldsRequired = "type, bloodGroup, and gender are required"
	MsgInvalidGender       = "gender must be one of Male, Female, Other"
)

// OrganService manages donation offers.
type OrganService struct {
	organs repository.OrganRepository
	users  repository.UserRepository
	logger *slog.Logger
}

func NewOrganService(organs repository.OrganRepository, users repository.UserRepository, logger *slog.Logger) *OrganService {
	return &OrganService{organs: organs, users: users, logger: logger}
}

// Create registers an organ offered by donorID. The organ starts out
// available. The donor must exist in the store.
func (s *OrganService) Create(ctx context.Context, donorID, organType, bloodGroup, gender string) (*model.Organ, error) {
	organType = strings.TrimSpace(organType)
	bloodGroup = strings.TrimSpace(bloodGroup)
	gender = strings.TrimSpace(gender)

	if organType == "" || bloodGroup == "" || gender == "" {
		return nil, apperror.ValidationFailed("", MsgOrganFieldsRequired)
	}
	if !model.ValidGender(gender) {
		return nil, apperror.ValidationFailed("gender", MsgInvalidGender)
	}

	if err := requireUser(ctx, s.users, donorID); err != nil {
		return nil, err
	}

	organ := &model.Organ{
		Type:               organType,
		BloodGroup:         bloodGroup,
		DonorID:            donorID,
		AvailabilityStatus: model.OrganAvailable,
		Gender:             gender,
	}
	if err := s.organs.Create(ctx, organ); err != nil {
		s.logger.Error("failed to create organ",
			slog.String("donor_id", donorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating organ: %w", err)
	}

	s.logger.Info("organ created",
		slog.String("organ_id", organ.ID),
		slog.String("donor_id", donorID),
		slog.String("type", organ.Type),
	)
	return organ, nil
}

// ListAvailable returns every available organ, newest first, with the donor's
// contact details resolved.
func (s *OrganService) ListAvailable(ctx context.Context) ([]model.OrganView, error) {
	organs, err := s.organs.List(ctx, repository.OrganFilter{Status: model.OrganAvailable})
	if err != nil {
		s.logger.Error("failed to list organs", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing organs: %w", err)
	}

	contacts := newContactCache(s.users)
	views := make([]model.OrganView, 0, len(organs))
	for _, o := range organs {
		donor, err := contacts.get(ctx, o.DonorID)
		if err != nil {
			return nil, err
		}
		views = append(views, model.OrganView{Organ: o, Donor: donor})
	}
	return views, nil
}

// ListByDonor returns all of donorID's organs in any status, newest first.
func (s *OrganService) ListByDonor(ctx context.Context, donorID string) ([]model.Organ, error) {
	organs, err := s.organs.List(ctx, repository.OrganFilter{DonorID: donorID})
	if err != nil {
		return nil, fmt.Errorf("listing organs for donor: %w", err)
	}
	return organs, nil
}

// requireUser fails with NotFound when userID has no user record.
func requireUser(ctx context.Context, users repository.UserRepository, userID string) error {
	if _, err := users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.NotFound("user", userID)
		}
		return fmt.Errorf("checking user: %w", err)
	}
	return nil
}

// contactCache resolves user IDs to contacts once per listing. A missing
// user resolves to nil rather than failing the whole list.
type contactCache struct {
	users repository.UserRepository
	seen  map[string]*model.Contact
}

func newContactCache(users repository.UserRepository) *contactCache {
	return &contactCache{users: users, seen: make(map[string]*model.Contact)}
}

func (c *contactCache) get(ctx context.Context, userID string) (*model.Contact, error) {
	if contact, ok := c.seen[userID]; ok {
		return contact, nil
	}
	user, err := c.users.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("resolving user %s: %w", userID, err)
	}
	contact := model.ContactOf(user)
	c.seen[userID] = contact
	return contact, nil
}
