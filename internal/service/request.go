package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/organlink/internal/apperror"
	"github.com/sakif/organlink/internal/matcher"
	"github.com/sakif/organlink/internal/model"
	"github.com/sakif/organlink/internal/repository"
)

const (
	MsgOrganNotAvailable     = "Organ not available"
	MsgRequestFieldsRequired = "requestedType and requestedBloodGroup are required if organId not provided"
	MsgInvalidStatus         = "Invalid status"
	MsgRequestNotFound       = "Request not found"
)

// RequestService manages organ requests, the match listing and status
// transitions.
type RequestService struct {
	requests repository.RequestRepository
	organs   repository.OrganRepository
	users    repository.UserRepository
	logger   *slog.Logger

	// scopeListToCaller restricts List to the caller's own requests.
	scopeListToCaller bool
}

// RequestServiceOption configures a RequestService.
type RequestServiceOption func(*RequestService)

// WithListScopedToCaller makes List return only the caller's requests
// instead of every request in the store.
func WithListScopedToCaller(scoped bool) RequestServiceOption {
	return func(s *RequestService) { s.scopeListToCaller = scoped }
}

func NewRequestService(
	requests repository.RequestRepository,
	organs repository.OrganRepository,
	users repository.UserRepository,
	logger *slog.Logger,
	opts ...RequestServiceOption,
) *RequestService {
	s := &RequestService{requests: requests, organs: organs, users: users, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequestInput is the request form. Either OrganID is set, or both
// RequestedType and RequestedBloodGroup are.
type CreateRequestInput struct {
	OrganID             string
	RequestedType       string
	RequestedBloodGroup string
	Notes               string
}

// Create files a request for requesterID.
//
// With an OrganID the organ must exist and be available right now; the
// request then records that organ's ID and nothing else about it. Without
// one, the requested type and blood group are required.
func (s *RequestService) Create(ctx context.Context, requesterID string, in CreateRequestInput) (*model.Request, error) {
	organID := strings.TrimSpace(in.OrganID)
	req := &model.Request{
		RequesterID: requesterID,
		Status:      model.RequestPending,
		Notes:       strings.TrimSpace(in.Notes),
	}

	if organID != "" {
		organ, err := s.organs.GetByID(ctx, organID)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return nil, fmt.Errorf("looking up organ: %w", err)
		}
		if organ == nil || organ.AvailabilityStatus != model.OrganAvailable {
			return nil, apperror.ValidationFailed("organId", MsgOrganNotAvailable)
		}
		req.OrganID = &organ.ID
	} else {
		req.RequestedType = strings.TrimSpace(in.RequestedType)
		req.RequestedBloodGroup = strings.TrimSpace(in.RequestedBloodGroup)
		if req.RequestedType == "" || req.RequestedBloodGroup == "" {
			return nil, apperror.ValidationFailed("", MsgRequestFieldsRequired)
		}
	}

	if err := requireUser(ctx, s.users, requesterID); err != nil {
		return nil, err
	}

	if err := s.requests.Create(ctx, req); err != nil {
		s.logger.Error("failed to create request",
			slog.String("requester_id", requesterID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating request: %w", err)
	}

	s.logger.Info("request created",
		slog.String("request_id", req.ID),
		slog.String("requester_id", requesterID),
		slog.Bool("linked_organ", req.OrganID != nil),
	)
	return req, nil
}

// List returns requests newest first with organ and requester resolved.
// Every request in the store is returned unless the service was built with
// WithListScopedToCaller(true).
func (s *RequestService) List(ctx context.Context, callerID string) ([]model.RequestView, error) {
	filter := repository.RequestFilter{}
	if s.scopeListToCaller {
		filter.RequesterID = callerID
	}

	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list requests", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	return s.resolve(ctx, requests, true)
}

// ListMine returns the caller's requests newest first with the organ resolved.
func (s *RequestService) ListMine(ctx context.Context, callerID string) ([]model.RequestView, error) {
	requests, err := s.requests.List(ctx, repository.RequestFilter{RequesterID: callerID})
	if err != nil {
		return nil, fmt.Errorf("listing requests for requester: %w", err)
	}
	return s.resolve(ctx, requests, false)
}

// Matches pairs every pending request with the first available organ of the
// same type and blood group. Both sides are enumerated oldest first, so the
// longest-waiting organ wins a tie.
func (s *RequestService) Matches(ctx context.Context) ([]model.MatchView, error) {
	requests, err := s.requests.List(ctx, repository.RequestFilter{
		Status: model.RequestPending,
		Order:  repository.OldestFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("listing pending requests: %w", err)
	}
	organs, err := s.organs.List(ctx, repository.OrganFilter{
		Status: model.OrganAvailable,
		Order:  repository.OldestFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("listing available organs: %w", err)
	}

	contacts := newContactCache(s.users)
	pairs := matcher.Match(requests, organs)
	views := make([]model.MatchView, 0, len(pairs))
	for _, p := range pairs {
		requester, err := contacts.get(ctx, p.Request.RequesterID)
		if err != nil {
			return nil, err
		}
		view := model.MatchView{
			Request: model.RequestView{Request: p.Request, Requester: requester},
		}
		if p.Organ != nil {
			donor, err := contacts.get(ctx, p.Organ.DonorID)
			if err != nil {
				return nil, err
			}
			view.Match = &model.OrganView{Organ: *p.Organ, Donor: donor}
		}
		views = append(views, view)
	}
	return views, nil
}

// UpdateStatus moves a request to status.
//
// The status is checked before the store is touched, so an invalid value
// never mutates anything. Any valid status may follow any other.
//
// When the new status is fulfilled and the request links an organ, that organ
// is set to donated whatever its previous status. The two writes are not
// atomic: if the organ update fails the request keeps its new status and the
// error is returned.
func (s *RequestService) UpdateStatus(ctx context.Context, requestID, status string) (*model.Request, error) {
	target := model.RequestStatus(strings.TrimSpace(status))
	if !target.Valid() {
		return nil, apperror.ValidationFailed("status", MsgInvalidStatus)
	}

	updated, err := s.requests.UpdateStatus(ctx, requestID, target)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage(MsgRequestNotFound)
		}
		return nil, fmt.Errorf("updating request status: %w", err)
	}

	s.logger.Info("request status changed",
		slog.String("request_id", requestID),
		slog.String("status", string(target)),
	)

	if target == model.RequestFulfilled && updated.OrganID != nil {
		organID := *updated.OrganID
		if err := s.organs.UpdateStatus(ctx, organID, model.OrganDonated); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				s.logger.Warn("fulfilled request links a missing organ",
					slog.String("request_id", requestID),
					slog.String("organ_id", organID),
				)
				return updated, nil
			}
			s.logger.Error("failed to mark organ donated",
				slog.String("organ_id", organID),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("marking organ donated: %w", err)
		}
		s.logger.Info("organ donated",
			slog.String("organ_id", organID),
			slog.String("request_id", requestID),
		)
	}

	return updated, nil
}

// resolve attaches organ summaries (and optionally requester contacts).
func (s *RequestService) resolve(ctx context.Context, requests []model.Request, withRequester bool) ([]model.RequestView, error) {
	contacts := newContactCache(s.users)
	organs := make(map[string]*model.OrganSummary)

	views := make([]model.RequestView, 0, len(requests))
	for _, r := range requests {
		view := model.RequestView{Request: r}

		if r.OrganID != nil {
			summary, ok := organs[*r.OrganID]
			if !ok {
				organ, err := s.organs.GetByID(ctx, *r.OrganID)
				if err != nil && !errors.Is(err, apperror.ErrNotFound) {
					return nil, fmt.Errorf("resolving organ %s: %w", *r.OrganID, err)
				}
				summary = model.SummaryOf(organ)
				organs[*r.OrganID] = summary
			}
			view.Organ = summary
		}

		if withRequester {
			requester, err := contacts.get(ctx, r.RequesterID)
			if err != nil {
				return nil, err
			}
			view.Requester = requester
		}

		views = append(views, view)
	}
	return views, nil
}
