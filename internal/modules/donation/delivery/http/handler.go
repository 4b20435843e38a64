package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sharebite/sharebite/internal/entity"
	"github.com/sharebite/sharebite/internal/middleware"
	"github.com/sharebite/sharebite/internal/modules/donation/dto"
	donation "github.com/sharebite/sharebite/internal/modules/donation/service"
	"github.com/sharebite/sharebite/pkg/ratelimiter"
	"github.com/sharebite/sharebite/pkg/response"
	"github.com/sharebite/sharebite/pkg/validator"
)

type DonationHandler struct {
	service donation.Service
}

func NewDonationHandler(service donation.Service) *DonationHandler {
	return &DonationHandler{service: service}
}

func (h *DonationHandler) CreateDonation(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req dto.CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	created, err := h.service.Create(c.Request.Context(), user, req)
	if err != nil {
		if rateLimitErr, ok := err.(*ratelimiter.RateLimitError); ok {
			c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": rateLimitErr.Message})
			return
		}
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// transition wraps the shared shape of the RPC-style mutation endpoints:
// parse the id, run the conditional transition, return the updated row or the
// precondition failure.
func (h *DonationHandler) transition(c *gin.Context, run func(user *entity.User, id uuid.UUID) (*entity.Donation, error)) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
		return
	}

	updated, err := run(user, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *DonationHandler) Claim(c *gin.Context) {
	// Body is optional; an empty claim means no volunteer needed.
	var req dto.ClaimRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
			return
		}
	}

	h.transition(c, func(user *entity.User, id uuid.UUID) (*entity.Donation, error) {
		return h.service.Claim(c.Request.Context(), user, id, req)
	})
}

func (h *DonationHandler) RequestVolunteer(c *gin.Context) {
	h.transition(c, func(user *entity.User, id uuid.UUID) (*entity.Donation, error) {
		return h.service.RequestVolunteer(c.Request.Context(), user, id)
	})
}

func (h *DonationHandler) Accept(c *gin.Context) {
	h.transition(c, func(user *entity.User, id uuid.UUID) (*entity.Donation, error) {
		return h.service.Accept(c.Request.Context(), user, id)
	})
}

func (h *DonationHandler) MarkPicked(c *gin.Context) {
	h.transition(c, func(user *entity.User, id uuid.UUID) (*entity.Donation, error) {
		return h.service.MarkPicked(c.Request.Context(), user, id)
	})
}

func (h *DonationHandler) MarkDelivered(c *gin.Context) {
	h.transition(c, func(user *entity.User, id uuid.UUID) (*entity.Donation, error) {
		return h.service.MarkDelivered(c.Request.Context(), user, id)
	})
}

func (h *DonationHandler) Confirm(c *gin.Context) {
	h.transition(c, func(user *entity.User, id uuid.UUID) (*entity.Donation, error) {
		return h.service.Confirm(c.Request.Context(), user, id)
	})
}

func (h *DonationHandler) DeleteDonation(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid donation id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), user, id); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "donation removed"})
}

// GetMine returns the role-specific partitioned dashboard for the
// authenticated user. One endpoint, three shapes, driven by the role instead
// of per-role handler copies.
func (h *DonationHandler) GetMine(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	switch user.Role {
	case entity.RoleDonor:
		dashboard, err := h.service.DonorDashboard(c.Request.Context(), user.ID)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		c.JSON(http.StatusOK, dashboard)
	case entity.RoleRecipient:
		dashboard, err := h.service.RecipientDashboard(c.Request.Context(), user)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		c.JSON(http.StatusOK, dashboard)
	case entity.RoleVolunteer:
		dashboard, err := h.service.VolunteerDashboard(c.Request.Context(), user.ID)
		if err != nil {
			response.ResponseError(c, err)
			return
		}
		c.JSON(http.StatusOK, dashboard)
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "unknown role"})
	}
}

// GetFeed returns the claimable views for a recipient: the capability-filtered
// posted list, or the diverted queue with ?view=diverted.
func (h *DonationHandler) GetFeed(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	dashboard, err := h.service.RecipientDashboard(c.Request.Context(), user)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if c.Query("view") == "diverted" {
		c.JSON(http.StatusOK, gin.H{"data": dashboard.Diverted})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": dashboard.Posted})
}

func (h *DonationHandler) GetAvailable(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	dashboard, err := h.service.VolunteerDashboard(c.Request.Context(), user.ID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dashboard.Available})
}

func (h *DonationHandler) GetAnalytics(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	months := 6
	if raw := c.Query("months"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			months = parsed
		}
	}

	counts, err := h.service.DonorMonthlyCounts(c.Request.Context(), user.ID, months)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": counts})
}
