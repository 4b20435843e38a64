package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is fixed at signup; there is no role-change path.
type Role string

const (
	RoleDonor     Role = "donor"
	RoleRecipient Role = "recipient"
	RoleVolunteer Role = "volunteer"
)

// AcceptanceType is the capability profile of a recipient organisation:
// which donation categories it may see and claim.
type AcceptanceType string

const (
	AcceptEdible    AcceptanceType = "edible"
	AcceptNonEdible AcceptanceType = "non-edible"
	AcceptBoth      AcceptanceType = "both"
)

// CanEdible reports whether the capability includes edible donations.
func (a AcceptanceType) CanEdible() bool {
	return a == AcceptEdible || a == AcceptBoth
}

// CanNonEdible reports whether the capability includes non-edible donations.
func (a AcceptanceType) CanNonEdible() bool {
	return a == AcceptNonEdible || a == AcceptBoth
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"size:30" json:"phone,omitempty"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"size:20;index;not null" json:"role"`
	Address      string    `gorm:"type:text" json:"address,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`

	// Recipient-only fields. AcceptanceType defaults to edible so older rows
	// keep a defined capability.
	AcceptanceType   AcceptanceType `gorm:"size:20;default:edible" json:"acceptance_type,omitempty"`
	OrganisationType *string        `gorm:"size:50" json:"organisation_type,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Coordinates implements geo.Point for nearest-organisation ranking.
// Callers must filter out rows with null coordinates first.
func (u *User) Coordinates() (float64, float64) {
	if u.Latitude == nil || u.Longitude == nil {
		return 0, 0
	}
	return *u.Latitude, *u.Longitude
}
