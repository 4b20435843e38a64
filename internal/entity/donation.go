package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the donation lifecycle state. Transitions only move forward:
//
//	posted -> claimed -> (accepted ->) picked -> delivered -> confirmed
//
// with diverted as a side queue for edible food redirected to non-edible
// organisations, and expired as the terminal state for unclaimed rows whose
// time ran out.
type Status string

const (
	StatusPosted    Status = "posted"
	StatusDiverted  Status = "diverted"
	StatusClaimed   Status = "claimed"
	StatusAccepted  Status = "accepted"
	StatusPicked    Status = "picked"
	StatusDelivered Status = "delivered"
	StatusConfirmed Status = "confirmed"
	StatusExpired   Status = "expired"
)

// rank orders statuses along the transition graph. Diverted shares the
// unclaimed stage with posted; accepted sits between claimed and picked.
func (s Status) rank() int {
	switch s {
	case StatusPosted, StatusDiverted:
		return 0
	case StatusClaimed:
		return 1
	case StatusAccepted:
		return 2
	case StatusPicked:
		return 3
	case StatusDelivered:
		return 4
	case StatusConfirmed:
		return 5
	case StatusExpired:
		return 6
	}
	return -1
}

// CanAdvanceTo reports whether moving from s to next goes forward in the
// transition graph. Terminal states never advance.
func (s Status) CanAdvanceTo(next Status) bool {
	if s == StatusConfirmed || s == StatusExpired {
		return false
	}
	return next.rank() > s.rank()
}

// Acceptance categorizes a donation for recipient capability matching.
type Acceptance string

const (
	Edible    Acceptance = "edible"
	NonEdible Acceptance = "non-edible"
)

// Unit is a normalized quantity unit. Submissions in grams or millilitres
// are converted before storage.
type Unit string

const (
	UnitKg     Unit = "kg"
	UnitLiters Unit = "liters"
	UnitPacks  Unit = "packs"
	UnitPlates Unit = "plates"
	UnitItems  Unit = "items"
)

// NeverExpires marks non-edible donations, which carry no real deadline.
var NeverExpires = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

type Donation struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// Immutable at creation.
	DonorID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"donor_id"`
	FoodType     string     `gorm:"size:100;not null" json:"food_type"`
	Quantity     float64    `gorm:"not null" json:"quantity"`
	QuantityUnit Unit       `gorm:"size:20;not null" json:"quantity_unit"`
	Acceptance   Acceptance `gorm:"size:20;index;not null" json:"acceptance"`
	Latitude     float64    `gorm:"not null" json:"latitude"`
	Longitude    float64    `gorm:"not null" json:"longitude"`
	Expiry       time.Time  `gorm:"not null" json:"expiry"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`

	// Mutated by lifecycle transitions only.
	Status          Status     `gorm:"size:20;index;not null;default:posted" json:"status"`
	OrganisationID  *uuid.UUID `gorm:"type:uuid;index" json:"organisation_id"`
	VolunteerID     *uuid.UUID `gorm:"type:uuid;index" json:"volunteer_id"`
	VolunteerNeeded bool       `gorm:"not null;default:false" json:"volunteer_needed"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeliveredAt     *time.Time `json:"delivered_at,omitempty"`
}

func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Coordinates implements geo.Point.
func (d *Donation) Coordinates() (float64, float64) {
	return d.Latitude, d.Longitude
}
