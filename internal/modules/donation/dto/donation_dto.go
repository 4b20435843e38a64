package dto

import "github.com/sharebite/sharebite/internal/entity"

type CreateDonationRequest struct {
	FoodType string  `json:"food_type" binding:"required,min=2,max=100"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
	// Raw unit as submitted; grams and millilitres are normalized to kg and
	// liters before storage.
	QuantityUnit string `json:"quantity_unit" binding:"required"`
	Acceptance   string `json:"acceptance" binding:"required,oneof=edible non-edible"`
	// Human expiry such as "2 hours", "45 minutes", "1 day", or an RFC 3339
	// timestamp. Ignored for non-edible donations, which never expire.
	Expiry    string   `json:"expiry"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type ClaimRequest struct {
	VolunteerNeeded bool `json:"volunteer_needed"`
}

// DonationWithOrganisation enriches a row with the claiming organisation's
// display name for the donor dashboard.
type DonationWithOrganisation struct {
	entity.Donation
	OrganisationName string `json:"organisation_name,omitempty"`
}

// DonorDashboard partitions a donor's own donations.
type DonorDashboard struct {
	Unclaimed  []DonationWithOrganisation `json:"unclaimed"`
	InProgress []DonationWithOrganisation `json:"in_progress"`
	Delivered  []DonationWithOrganisation `json:"delivered"`
}

// RecipientDashboard partitions what a recipient organisation sees.
type RecipientDashboard struct {
	Posted    []entity.Donation `json:"posted"`
	Diverted  []entity.Donation `json:"diverted"`
	Claimed   []entity.Donation `json:"claimed"`
	Picked    []entity.Donation `json:"picked"`
	Delivered []entity.Donation `json:"delivered"`
}

// VolunteerDashboard partitions what a delivery volunteer sees.
type VolunteerDashboard struct {
	Available []entity.Donation `json:"available"`
	Accepted  []entity.Donation `json:"accepted"`
	Picked    []entity.Donation `json:"picked"`
	Delivered []entity.Donation `json:"delivered"`
	Confirmed []entity.Donation `json:"confirmed"`
}

// MonthlyCount is one bucket of the donor analytics series.
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}
