package model

import "time"

// OrganStatus is the availability lifecycle of an Organ.
//
//	available → reserved → donated
//
// Nothing sets OrganReserved today; it is kept so stored values and clients
// can already speak it.
type OrganStatus string

const (
	OrganAvailable OrganStatus = "available"
	OrganReserved  OrganStatus = "reserved"
	OrganDonated   OrganStatus = "donated"
)

// Valid reports whether s is one of the enumerated statuses.
func (s OrganStatus) Valid() bool {
	switch s {
	case OrganAvailable, OrganReserved, OrganDonated:
		return true
	}
	return false
}

// Gender values accepted for the donor record on an organ.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// ValidGender reports whether g is an accepted gender value.
func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// Organ is a donation offer. Type and BloodGroup are free text and are
// compared verbatim by the matcher. DonorID never changes after creation.
type Organ struct {
	ID                 string      `json:"id"                 db:"id"`
	Type               string      `json:"type"               db:"type"`
	BloodGroup         string      `json:"bloodGroup"         db:"blood_group"`
	DonorID            string      `json:"donor"              db:"donor_id"`
	AvailabilityStatus OrganStatus `json:"availabilityStatus" db:"availability_status"`
	Gender             string      `json:"gender"             db:"gender"`
	CreatedAt          time.Time   `json:"createdAt"          db:"created_at"`
	UpdatedAt          time.Time   `json:"updatedAt"          db:"updated_at"`
}

// Contact is the slice of a User that is shown next to organs and requests.
type Contact struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// ContactOf builds a Contact from a User.
func ContactOf(u *User) *Contact {
	if u == nil {
		return nil
	}
	return &Contact{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, Address: u.Address}
}

// OrganView is an Organ with its donor resolved. Donor is nil when the donor
// record could not be found.
type OrganView struct {
	Organ
	Donor *Contact `json:"donor"`
}
