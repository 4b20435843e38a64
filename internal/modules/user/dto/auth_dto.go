package dto

import "github.com/sharebite/sharebite/internal/entity"

type SignupInput struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=donor recipient volunteer"`
	Address  string `json:"address"`

	// Geolocation is optional at signup; denial of the browser prompt falls
	// back to address-only registration.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	// Recipient-only.
	AcceptanceType   string `json:"acceptance_type" binding:"omitempty,oneof=edible non-edible both"`
	OrganisationType string `json:"organisation_type"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int64        `json:"expires_in"`
	User        *entity.User `json:"user"`
}

type NearestOrganisation struct {
	Organisation *entity.User `json:"organisation"`
	DistanceKm   float64      `json:"distance_km"`
	// Directions link from the caller's position, plus an embeddable map
	// centered on the organisation for the detail view.
	MapURL      string `json:"map_url,omitempty"`
	EmbedMapURL string `json:"embed_map_url,omitempty"`
}
