package model

import "time"

// RequestStatus is the lifecycle of a Request.
//
//	pending → approved | rejected | fulfilled
//
// Transitions are not restricted by the current status.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestRejected  RequestStatus = "rejected"
	RequestFulfilled RequestStatus = "fulfilled"
)

// Valid reports whether s is one of the enumerated statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected, RequestFulfilled:
		return true
	}
	return false
}

// Request asks for an organ. Either OrganID points at a specific Organ, or
// RequestedType/RequestedBloodGroup describe what is needed.
//
// WHY *string FOR OrganID?
// "No organ" must be distinguishable from "organ with empty id"; a nil pointer
// maps to SQL NULL and is omitted from JSON.
type Request struct {
	ID                  string        `json:"id"                            db:"id"`
	OrganID             *string       `json:"organ,omitempty"               db:"organ_id"`
	RequestedType       string        `json:"requestedType,omitempty"       db:"requested_type"`
	RequestedBloodGroup string        `json:"requestedBloodGroup,omitempty" db:"requested_blood_group"`
	RequesterID         string        `json:"requester"                     db:"requester_id"`
	Status              RequestStatus `json:"status"                        db:"status"`
	Notes               string        `json:"notes,omitempty"               db:"notes"`
	CreatedAt           time.Time     `json:"createdAt"                     db:"created_at"`
	UpdatedAt           time.Time     `json:"updatedAt"                     db:"updated_at"`
}

// OrganSummary is what request listings show about the linked organ.
type OrganSummary struct {
	ID                 string      `json:"id"`
	Type               string      `json:"type"`
	BloodGroup         string      `json:"bloodGroup"`
	AvailabilityStatus OrganStatus `json:"availabilityStatus"`
}

// SummaryOf builds an OrganSummary from an Organ.
func SummaryOf(o *Organ) *OrganSummary {
	if o == nil {
		return nil
	}
	return &OrganSummary{ID: o.ID, Type: o.Type, BloodGroup: o.BloodGroup, AvailabilityStatus: o.AvailabilityStatus}
}

// RequestView is a Request with the organ and requester resolved. Either may
// be nil: Organ when no organ is linked, Requester when it was not asked for
// or could not be found.
type RequestView struct {
	Request
	Organ     *OrganSummary `json:"organ"`
	Requester *Contact      `json:"requester,omitempty"`
}

// MatchView pairs a pending request with the organ picked for it, if any.
type MatchView struct {
	Request RequestView `json:"request"`
	Match   *OrganView  `json:"match"`
}
