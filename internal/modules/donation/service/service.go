package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sharebite/sharebite/internal/entity"
	"github.com/sharebite/sharebite/internal/modules/donation/dto"
	"github.com/sharebite/sharebite/internal/modules/donation/repository"
	feed "github.com/sharebite/sharebite/internal/modules/feed/service"
	userRepo "github.com/sharebite/sharebite/internal/modules/user/repository"
	"github.com/sharebite/sharebite/pkg/apperror"
	"github.com/sharebite/sharebite/pkg/ratelimiter"
	"gorm.io/gorm"
)

// Service is the donation lifecycle engine plus the role-filtered views over
// the donations table. Every transition delegates its precondition to a
// conditional update in the repository; a zero-row result surfaces as
// apperror.ErrAlreadyTaken, the expected lost-the-race outcome.
type Service interface {
	Create(ctx context.Context, donor *entity.User, req dto.CreateDonationRequest) (*entity.Donation, error)
	Claim(ctx context.Context, recipient *entity.User, id uuid.UUID, req dto.ClaimRequest) (*entity.Donation, error)
	RequestVolunteer(ctx context.Context, recipient *entity.User, id uuid.UUID) (*entity.Donation, error)
	Accept(ctx context.Context, volunteer *entity.User, id uuid.UUID) (*entity.Donation, error)
	MarkPicked(ctx context.Context, actor *entity.User, id uuid.UUID) (*entity.Donation, error)
	MarkDelivered(ctx context.Context, actor *entity.User, id uuid.UUID) (*entity.Donation, error)
	Confirm(ctx context.Context, recipient *entity.User, id uuid.UUID) (*entity.Donation, error)
	Delete(ctx context.Context, donor *entity.User, id uuid.UUID) error

	RecipientDashboard(ctx context.Context, recipient *entity.User) (*dto.RecipientDashboard, error)
	DonorDashboard(ctx context.Context, donorID uuid.UUID) (*dto.DonorDashboard, error)
	VolunteerDashboard(ctx context.Context, volunteerID uuid.UUID) (*dto.VolunteerDashboard, error)
	DonorMonthlyCounts(ctx context.Context, donorID uuid.UUID, months int) ([]dto.MonthlyCount, error)
}

type donationService struct {
	repo        repository.DonationRepository
	users       userRepo.UserRepository
	publisher   feed.Publisher
	redisClient *redis.Client
	rateLimit   time.Duration
	now         func() time.Time
}

func NewDonationService(
	repo repository.DonationRepository,
	users userRepo.UserRepository,
	publisher feed.Publisher,
	redisClient *redis.Client,
	rateLimit time.Duration,
) Service {
	return &donationService{
		repo:        repo,
		users:       users,
		publisher:   publisher,
		redisClient: redisClient,
		rateLimit:   rateLimit,
		now:         time.Now,
	}
}

func (s *donationService) Create(ctx context.Context, donor *entity.User, req dto.CreateDonationRequest) (*entity.Donation, error) {
	if donor.Role != entity.RoleDonor {
		return nil, apperror.ErrForbidden
	}

	quantity, unit, err := normalizeQuantity(req.Quantity, req.QuantityUnit)
	if err != nil {
		return nil, apperror.New(400, err.Error(), apperror.ErrInvalidInput)
	}

	acceptance := entity.Acceptance(req.Acceptance)
	expiry := entity.NeverExpires
	if acceptance == entity.Edible {
		if req.Expiry == "" {
			return nil, apperror.New(400, "expiry is required for edible donations", apperror.ErrInvalidInput)
		}
		expiry, err = parseExpiry(req.Expiry, s.now())
		if err != nil {
			return nil, apperror.New(400, err.Error(), apperror.ErrInvalidInput)
		}
	}

	if s.rateLimit > 0 {
		allowed, err := ratelimiter.CheckAndSet(ctx, s.redisClient, donor.ID, "post_donation", s.rateLimit)
		if err != nil {
			return nil, err
		}
		if !allowed {
			ttl, _ := ratelimiter.TTL(ctx, s.redisClient, donor.ID, "post_donation")
			return nil, &ratelimiter.RateLimitError{
				Message:    "you are posting donations too quickly",
				RetryAfter: ttl,
			}
		}
	}

	donation := &entity.Donation{
		DonorID:      donor.ID,
		FoodType:     req.FoodType,
		Quantity:     quantity,
		QuantityUnit: unit,
		Acceptance:   acceptance,
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		Expiry:       expiry,
		Status:       entity.StatusPosted,
	}

	if err := s.repo.Create(ctx, donation); err != nil {
		// Free the rate-limit slot; nothing was posted.
		_ = ratelimiter.Clear(ctx, s.redisClient, donor.ID, "post_donation")
		return nil, err
	}

	s.publisher.PublishInsert(ctx, donation)
	return donation, nil
}

func (s *donationService) Claim(ctx context.Context, recipient *entity.User, id uuid.UUID, req dto.ClaimRequest) (*entity.Donation, error) {
	if recipient.Role != entity.RoleRecipient {
		return nil, apperror.ErrForbidden
	}

	applied, err := s.repo.Claim(ctx, id, recipient.ID, recipient.AcceptanceType, req.VolunteerNeeded)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("donation was %w", apperror.ErrAlreadyTaken)
	}

	return s.reload(ctx, id)
}

func (s *donationService) RequestVolunteer(ctx context.Context, recipient *entity.User, id uuid.UUID) (*entity.Donation, error) {
	if recipient.Role != entity.RoleRecipient {
		return nil, apperror.ErrForbidden
	}

	applied, err := s.repo.RequestVolunteer(ctx, id, recipient.ID)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("volunteer request not possible: %w", apperror.ErrAlreadyTaken)
	}

	return s.reload(ctx, id)
}

func (s *donationService) Accept(ctx context.Context, volunteer *entity.User, id uuid.UUID) (*entity.Donation, error) {
	if volunteer.Role != entity.RoleVolunteer {
		return nil, apperror.ErrForbidden
	}

	applied, err := s.repo.Accept(ctx, id, volunteer.ID)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("delivery was %w", apperror.ErrAlreadyTaken)
	}

	return s.reload(ctx, id)
}

func (s *donationService) MarkPicked(ctx context.Context, actor *entity.User, id uuid.UUID) (*entity.Donation, error) {
	var applied bool
	var err error

	switch actor.Role {
	case entity.RoleRecipient:
		applied, err = s.repo.PickByOrganisation(ctx, id, actor.ID)
	case entity.RoleVolunteer:
		applied, err = s.repo.PickByVolunteer(ctx, id, actor.ID)
	default:
		return nil, apperror.ErrForbidden
	}

	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("pickup not possible: %w", apperror.ErrAlreadyTaken)
	}

	return s.reload(ctx, id)
}

func (s *donationService) MarkDelivered(ctx context.Context, actor *entity.User, id uuid.UUID) (*entity.Donation, error) {
	var applied bool
	var err error

	switch actor.Role {
	case entity.RoleRecipient:
		applied, err = s.repo.DeliverByOrganisation(ctx, id, actor.ID, s.now())
	case entity.RoleVolunteer:
		applied, err = s.repo.DeliverByVolunteer(ctx, id, actor.ID, s.now())
	default:
		return nil, apperror.ErrForbidden
	}

	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("delivery not possible: %w", apperror.ErrAlreadyTaken)
	}

	return s.reload(ctx, id)
}

func (s *donationService) Confirm(ctx context.Context, recipient *entity.User, id uuid.UUID) (*entity.Donation, error) {
	if recipient.Role != entity.RoleRecipient {
		return nil, apperror.ErrForbidden
	}

	applied, err := s.repo.Confirm(ctx, id, recipient.ID)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("confirmation not possible: %w", apperror.ErrAlreadyTaken)
	}

	return s.reload(ctx, id)
}

func (s *donationService) Delete(ctx context.Context, donor *entity.User, id uuid.UUID) error {
	if donor.Role != entity.RoleDonor {
		return apperror.ErrForbidden
	}

	applied, err := s.repo.DeleteUnclaimedByDonor(ctx, id, donor.ID)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("donation cannot be removed: %w", apperror.ErrAlreadyTaken)
	}

	s.publisher.PublishDelete(ctx, id)
	return nil
}

// reload fetches the row after a successful transition, publishes it and
// returns it as the RPC result.
func (s *donationService) reload(ctx context.Context, id uuid.UUID) (*entity.Donation, error) {
	donation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrNotFound
		}
		return nil, err
	}

	s.publisher.PublishUpdate(ctx, donation)
	return donation, nil
}

func (s *donationService) RecipientDashboard(ctx context.Context, recipient *entity.User) (*dto.RecipientDashboard, error) {
	if recipient.Role != entity.RoleRecipient {
		return nil, apperror.ErrForbidden
	}

	accept := make([]entity.Acceptance, 0, 2)
	if recipient.AcceptanceType.CanEdible() {
		accept = append(accept, entity.Edible)
	}
	if recipient.AcceptanceType.CanNonEdible() {
		accept = append(accept, entity.NonEdible)
	}

	posted, err := s.repo.FindPosted(ctx, accept)
	if err != nil {
		return nil, err
	}

	var diverted []entity.Donation
	if recipient.AcceptanceType.CanNonEdible() {
		diverted, err = s.repo.FindDiverted(ctx)
		if err != nil {
			return nil, err
		}
	}

	claimed, err := s.repo.FindByOrganisationAndStatus(ctx, recipient.ID, entity.StatusClaimed)
	if err != nil {
		return nil, err
	}
	picked, err := s.repo.FindByOrganisationAndStatus(ctx, recipient.ID, entity.StatusPicked)
	if err != nil {
		return nil, err
	}
	delivered, err := s.repo.FindByOrganisationAndStatus(ctx, recipient.ID, entity.StatusDelivered)
	if err != nil {
		return nil, err
	}

	return &dto.RecipientDashboard{
		Posted:    posted,
		Diverted:  diverted,
		Claimed:   claimed,
		Picked:    picked,
		Delivered: delivered,
	}, nil
}

func (s *donationService) DonorDashboard(ctx context.Context, donorID uuid.UUID) (*dto.DonorDashboard, error) {
	donations, err := s.repo.FindByDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}

	orgNames, err := s.organisationNames(ctx, donations)
	if err != nil {
		return nil, err
	}

	dashboard := &dto.DonorDashboard{
		Unclaimed:  []dto.DonationWithOrganisation{},
		InProgress: []dto.DonationWithOrganisation{},
		Delivered:  []dto.DonationWithOrganisation{},
	}

	for _, d := range donations {
		row := dto.DonationWithOrganisation{Donation: d}
		if d.OrganisationID != nil {
			row.OrganisationName = orgNames[*d.OrganisationID]
		}

		switch d.Status {
		case entity.StatusPosted, entity.StatusDiverted:
			dashboard.Unclaimed = append(dashboard.Unclaimed, row)
		case entity.StatusClaimed, entity.StatusAccepted, entity.StatusPicked:
			dashboard.InProgress = append(dashboard.InProgress, row)
		case entity.StatusDelivered, entity.StatusConfirmed:
			dashboard.Delivered = append(dashboard.Delivered, row)
		}
	}

	return dashboard, nil
}

func (s *donationService) VolunteerDashboard(ctx context.Context, volunteerID uuid.UUID) (*dto.VolunteerDashboard, error) {
	available, err := s.repo.FindAvailableForVolunteers(ctx)
	if err != nil {
		return nil, err
	}

	dashboard := &dto.VolunteerDashboard{Available: available}

	for _, part := range []struct {
		status entity.Status
		dest   *[]entity.Donation
	}{
		{entity.StatusAccepted, &dashboard.Accepted},
		{entity.StatusPicked, &dashboard.Picked},
		{entity.StatusDelivered, &dashboard.Delivered},
		{entity.StatusConfirmed, &dashboard.Confirmed},
	} {
		rows, err := s.repo.FindByVolunteerAndStatus(ctx, volunteerID, part.status)
		if err != nil {
			return nil, err
		}
		*part.dest = rows
	}

	return dashboard, nil
}

// maxAnalyticsMonths caps the requested window: the buckets slice is sized
// from caller input, so it must not scale with an arbitrary query value.
const maxAnalyticsMonths = 24

func (s *donationService) DonorMonthlyCounts(ctx context.Context, donorID uuid.UUID, months int) ([]dto.MonthlyCount, error) {
	if months <= 0 {
		months = 6
	}
	if months > maxAnalyticsMonths {
		months = maxAnalyticsMonths
	}

	now := s.now()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(months - 1), 0)

	donations, err := s.repo.FindByDonorSince(ctx, donorID, since)
	if err != nil {
		return nil, err
	}

	counts := make([]dto.MonthlyCount, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		month := since.AddDate(0, i, 0)
		key := month.Format("2006-01")
		counts[i] = dto.MonthlyCount{Month: key}
		index[key] = i
	}

	for _, d := range donations {
		key := d.CreatedAt.UTC().Format("2006-01")
		if i, ok := index[key]; ok {
			counts[i].Count++
		}
	}

	return counts, nil
}

func (s *donationService) organisationNames(ctx context.Context, donations []entity.Donation) (map[uuid.UUID]string, error) {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, d := range donations {
		if d.OrganisationID == nil {
			continue
		}
		if _, ok := seen[*d.OrganisationID]; ok {
			continue
		}
		seen[*d.OrganisationID] = struct{}{}
		ids = append(ids, *d.OrganisationID)
	}

	names := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	orgs, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, org := range orgs {
		names[org.ID] = org.Name
	}
	return names, nil
}
