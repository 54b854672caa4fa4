package postgres

import (
	"time"

	"github.com/sakif/organlink/internal/model"
)

type userRecord struct {
	ID           string `gorm:"primaryKey;size:20"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Phone        string `gorm:"not null"`
	Address      string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

type chatTurnRecord struct {
	Seq       uint64     `gorm:"primaryKey;autoIncrement"`
	UserID    string     `gorm:"size:20;not null;index"`
	User      userRecord `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Role      string     `gorm:"not null"`
	Message   string     `gorm:"not null"`
	CreatedAt time.Time  `gorm:"not null"`
}

func (chatTurnRecord) TableName() string { return "chat_turns" }

type organRecord struct {
	ID                 string     `gorm:"primaryKey;size:20"`
	Type               string     `gorm:"not null"`
	BloodGroup         string     `gorm:"not null"`
	DonorID            string     `gorm:"size:20;not null;index"`
	Donor              userRecord `gorm:"foreignKey:DonorID"`
	AvailabilityStatus string     `gorm:"not null;default:available;index"`
	Gender             string     `gorm:"not null"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (organRecord) TableName() string { return "organs" }

type requestRecord struct {
	ID                  string       `gorm:"primaryKey;size:20"`
	OrganID             *string      `gorm:"size:20"`
	Organ               *organRecord `gorm:"foreignKey:OrganID"`
	RequestedType       string       `gorm:"not null;default:''"`
	RequestedBloodGroup string       `gorm:"not null;default:''"`
	RequesterID         string       `gorm:"size:20;not null;index"`
	Requester           userRecord   `gorm:"foreignKey:RequesterID"`
	Status              string       `gorm:"not null;default:pending;index"`
	Notes               string       `gorm:"not null;default:''"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (requestRecord) TableName() string { return "requests" }

func userToRecord(u *model.User) *userRecord {
	return &userRecord{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Phone:        u.Phone,
		Address:      u.Address,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r *userRecord) toModel() *model.User {
	return &model.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Phone:        r.Phone,
		Address:      r.Address,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (r *chatTurnRecord) toModel() model.ChatTurn {
	return model.ChatTurn{Role: model.ChatRole(r.Role), Message: r.Message, Timestamp: r.CreatedAt}
}

func organToRecord(o *model.Organ) *organRecord {
	return &organRecord{
		ID:                 o.ID,
		Type:               o.Type,
		BloodGroup:         o.BloodGroup,
		DonorID:            o.DonorID,
		AvailabilityStatus: string(o.AvailabilityStatus),
		Gender:             o.Gender,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func (r *organRecord) toModel() model.Organ {
	return model.Organ{
		ID:                 r.ID,
		Type:               r.Type,
		BloodGroup:         r.BloodGroup,
		DonorID:            r.DonorID,
		AvailabilityStatus: model.OrganStatus(r.AvailabilityStatus),
		Gender:             r.Gender,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func requestToRecord(q *model.Request) *requestRecord {
	return &requestRecord{
		ID:                  q.ID,
		OrganID:             q.OrganID,
		RequestedType:       q.RequestedType,
		RequestedBloodGroup: q.RequestedBloodGroup,
		RequesterID:         q.RequesterID,
		Status:              string(q.Status),
		Notes:               q.Notes,
		CreatedAt:           q.CreatedAt,
		UpdatedAt:           q.UpdatedAt,
	}
}

func (r *requestRecord) toModel() model.Request {
	return model.Request{
		ID:                  r.ID,
		OrganID:             r.OrganID,
		RequestedType:       r.RequestedType,
		RequestedBloodGroup: r.RequestedBloodGroup,
		RequesterID:         r.RequesterID,
		Status:              model.RequestStatus(r.Status),
		Notes:               r.Notes,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}
