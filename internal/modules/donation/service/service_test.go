package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sharebite/sharebite/internal/entity"
	"github.com/sharebite/sharebite/internal/modules/donation/dto"
	"github.com/sharebite/sharebite/internal/modules/donation/repository"
	userRepo "github.com/sharebite/sharebite/internal/modules/user/repository"
	"github.com/sharebite/sharebite/pkg/apperror"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.User{}, &entity.Donation{}))
	return db
}

// recordingPublisher stands in for the redis feed during service tests.
type recordingPublisher struct {
	mu      sync.Mutex
	inserts []uuid.UUID
	updates []uuid.UUID
	deletes []uuid.UUID
}

func (p *recordingPublisher) PublishInsert(_ context.Context, d *entity.Donation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inserts = append(p.inserts, d.ID)
}

func (p *recordingPublisher) PublishUpdate(_ context.Context, d *entity.Donation) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, d.ID)
}

func (p *recordingPublisher) PublishDelete(_ context.Context, id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deletes = append(p.deletes, id)
}

type fixture struct {
	db        *gorm.DB
	svc       *donationService
	publisher *recordingPublisher
	now       time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testDB(t)
	publisher := &recordingPublisher{}
	svc := NewDonationService(
		repository.NewDonationRepository(db),
		userRepo.NewUserRepository(db),
		publisher,
		nil,
		0,
	).(*donationService)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &fixture{db: db, svc: svc, publisher: publisher, now: now}
}

func (f *fixture) user(t *testing.T, role entity.Role, acceptance entity.AcceptanceType) *entity.User {
	t.Helper()

	u := &entity.User{
		Name:           string(role) + " " + uuid.NewString()[:8],
		Email:          uuid.NewString() + "@example.com",
		PasswordHash:   "x",
		Role:           role,
		AcceptanceType: acceptance,
	}
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func (f *fixture) post(t *testing.T, donor *entity.User, acceptance entity.Acceptance) *entity.Donation {
	t.Helper()

	req := dto.CreateDonationRequest{
		FoodType:     "rice",
		Quantity:     5,
		QuantityUnit: "kg",
		Acceptance:   string(acceptance),
		Latitude:     floatPtr(12.97),
		Longitude:    floatPtr(77.59),
	}
	if acceptance == entity.Edible {
		req.Expiry = "6 hours"
	}

	d, err := f.svc.Create(context.Background(), donor, req)
	require.NoError(t, err)
	return d
}

func floatPtr(v float64) *float64 { return &v }

func TestCreate_NormalizesUnitAndParsesExpiry(t *testing.T) {
	f := newFixture(t)
	donor := f.user(t, entity.RoleDonor, "")

	d, err := f.svc.Create(context.Background(), donor, dto.CreateDonationRequest{
		FoodType:     "flour",
		Quantity:     2000,
		QuantityUnit: "g",
		Acceptance:   "edible",
		Expiry:       "2 hours",
		Latitude:     floatPtr(1),
		Longitude:    floatPtr(2),
	})
	require.NoError(t, err)
	require.InDelta(t, 2.0, d.Quantity, 1e-9)
	require.Equal(t, entity.UnitKg, d.QuantityUnit)
	require.True(t, d.Expiry.Equal(f.now.Add(2*time.Hour)))
	require.Equal(t, entity.StatusPosted, d.Status)
	require.Equal(t, []uuid.UUID{d.ID}, f.publisher.inserts)
}

func TestCreate_NonEdibleNeverExpires(t *testing.T) {
	f := newFixture(t)
	donor := f.user(t, entity.RoleDonor, "")

	d := f.post(t, donor, entity.NonEdible)
	require.True(t, d.Expiry.Equal(entity.NeverExpires))
}

func TestCreate_EdibleRequiresExpiry(t *testing.T) {
	f := newFixture(t)
	donor := f.user(t, entity.RoleDonor, "")

	_, err := f.svc.Create(context.Background(), donor, dto.CreateDonationRequest{
		FoodType:     "bread",
		Quantity:     1,
		QuantityUnit: "kg",
		Acceptance:   "edible",
		Latitude:     floatPtr(1),
		Longitude:    floatPtr(2),
	})
	require.Error(t, err)
	require.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestCreate_RejectsNonDonor(t *testing.T) {
	f := newFixture(t)
	recipient := f.user(t, entity.RoleRecipient, entity.AcceptBoth)

	_, err := f.svc.Create(context.Background(), recipient, dto.CreateDonationRequest{})
	require.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestClaim_ExactlyOneWinner(t *testing.T) {
	f := newFixture(t)
	donor := f.user(t, entity.RoleDonor, "")
	first := f.user(t, entity.RoleRecipient, entity.AcceptBoth)
	second := f.user(t, entity.RoleRecipient, entity.AcceptBoth)

	d := f.post(t, donor, entity.Edible)

	won, err := f.svc.Claim(context.Background(), first, d.ID, dto.ClaimRequest{})
	require.NoError(t, err)
	require.Equal(t, entity.StatusClaimed, won.Status)
	require.Equal(t, first.ID, *won.OrganisationID)

	_, err = f.svc.Claim(context.Background(), second, d.ID, dto.ClaimRequest{})
	require.ErrorIs(t, err, apperror.ErrAlreadyTaken)

	// The losing claim must not have touched the row.
	var stored entity.Donation
	require.NoError(t, f.db.First(&stored, "id = ?", d.ID).Error)
	require.Equal(t, first.ID, *stored.OrganisationID)
}

func TestClaim_CapabilityFiltering(t *testing.T) {
	f := newFixture(t)
	donor := f.user(t, entity.RoleDonor, "")
	edibleOnly := f.user(t, entity.RoleRecipient, entity.AcceptEdible)

	nonEdible := f.post(t, donor, entity.NonEdible)

	_, err := f.svc.Claim(context.Background(), edibleOnly, nonEdible.ID, dto.ClaimRequest{})
	require.ErrorIs(t, err, apperror.ErrAlreadyTaken)
}

func TestClaim_DivertedReachableOnlyWithNonEdibleCapability(t *testing.T) {
	f := newFixture(t)
	donor := f.user(t, entity.RoleDonor, "")
	edibleOnly := f.user(t, entity.RoleRecipient, entity.AcceptEdible)
	composter := f.user(t, entity.RoleRecipient, entity.AcceptNonEdible)

	d := f.post(t, donor, entity.Edible)
	require.NoError(t, f.db.Model(&entity.Donation{}).
		Where("id = ?", d.ID).
		Update("status", entity.StatusDiverted).Error)

	_, err := f.svc.Claim(context.Background(), edibleOnly, d.ID, dto.ClaimRequest{})
	require.ErrorIs(t, err, apperror.ErrAlreadyTaken)

	claimed, err := f.svc.Claim(context.Background(), composter, d.ID, dto.ClaimRequest{})
	require.NoError(t, err)
	require.Equal(t, composter.ID, *claimed.OrganisationID)
}

func TestLifecycle_OrganisationPickupPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donor := f.user(t, entity.RoleDonor, "")
	org := f.user(t, entity.RoleRecipient, entity.AcceptBoth)

	d := f.post(t, donor, entity.Edible)

	_, err := f.svc.Claim(ctx, org, d.ID, dto.ClaimRequest{})
	require.NoError(t, err)

	picked, err := f.svc.MarkPicked(ctx, org, d.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusPicked, picked.Status)

	delivered, err := f.svc.MarkDelivered(ctx, org, d.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	require.True(t, delivered.DeliveredAt.Equal(f.now))

	confirmed, err := f.svc.Confirm(ctx, org, d.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusConfirmed, confirmed.Status)

	// One update event per successful transition.
	require.Len(t, f.publisher.updates, 4)
}

func TestLifecycle_VolunteerPath(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donor := f.user(t, entity.RoleDonor, "")
	org := f.user(t, entity.RoleRecipient, entity.AcceptBoth)
	vol := f.user(t, entity.RoleVolunteer, "")
	rival := f.user(t, entity.RoleVolunteer, "")

	d := f.post(t, donor, entity.Edible)

	_, err := f.svc.Claim(ctx, org, d.ID, dto.ClaimRequest{VolunteerNeeded: true})
	require.NoError(t, err)

	accepted, err := f.svc.Accept(ctx, vol, d.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusAccepted, accepted.Status)
	require.Equal(t, vol.ID, *accepted.VolunteerID)

	// Second volunteer lost the race for the same delivery.
	_, err = f.svc.Accept(ctx, rival, d.ID)
	require.ErrorIs(t, err, apperror.ErrAlreadyTaken)

	// With a volunteer assigned the organisation cannot mark pickup itself.
	_, err = f.svc.MarkPicked(ctx, org, d.ID)
	require.ErrorIs(t, err, apperror.ErrAlreadyTaken)

	picked, err := f.svc.MarkPicked(ctx, vol, d.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusPicked, picked.Status)

	delivered, err := f.svc.MarkDelivered(ctx, vol, d.ID)
	require.NoError(t, err)
	require.NotNil(t, delivered.DeliveredAt)

	// Confirmation stays with the receiving organisation.
	_, err = f.svc.Confirm(ctx, org, d.ID)
	require.NoError(t, err)
}

func TestTransitions_NeverMoveBackward(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donor := f.user(t, entity.RoleDonor, "")
	org := f.user(t, entity.RoleRecipient, entity.AcceptBoth)

	d := f.post(t, donor, entity.Edible)
	_, err := f.svc.Claim(ctx, org, d.ID, dto.ClaimRequest{})
	require.NoError(t, err)
	_, err = f.svc.MarkPicked(ctx, org, d.ID)
	require.NoError(t, err)

	// Re-claiming a picked row must fail: the row already has an owner.
	_, err = f.svc.Claim(ctx, org, d.ID, dto.ClaimRequest{})
	require.ErrorIs(t, err, apperror.ErrAlreadyTaken)

	// Confirm out of order (picked, not delivered) must fail too.
	_, err = f.svc.Confirm(ctx, org, d.ID)
	require.ErrorIs(t, err, apperror.ErrAlreadyTaken)
}

func TestRequestVolunteer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donor := f.user(t, entity.RoleDonor, "")
	org := f.user(t, entity.RoleRecipient, entity.AcceptBoth)

	d := f.post(t, donor, entity.Edible)
	_, err := f.svc.Claim(ctx, org, d.ID, dto.ClaimRequest{})
	require.NoError(t, err)

	flagged, err := f.svc.RequestVolunteer(ctx, org, d.ID)
	require.NoError(t, err)
	require.True(t, flagged.VolunteerNeeded)

	// Only the claiming organisation may flag its own row.
	other := f.user(t, entity.RoleRecipient, entity.AcceptBoth)
	_, err = f.svc.RequestVolunteer(ctx, other, d.ID)
	require.ErrorIs(t, err, apperror.ErrAlreadyTaken)
}

func TestDelete_OnlyUnclaimed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donor := f.user(t, entity.RoleDonor, "")
	org := f.user(t, entity.RoleRecipient, entity.AcceptBoth)

	unclaimed := f.post(t, donor, entity.Edible)
	require.NoError(t, f.svc.Delete(ctx, donor, unclaimed.ID))
	require.Equal(t, []uuid.UUID{unclaimed.ID}, f.publisher.deletes)

	claimed := f.post(t, donor, entity.Edible)
	_, err := f.svc.Claim(ctx, org, claimed.ID, dto.ClaimRequest{})
	require.NoError(t, err)
	require.ErrorIs(t, f.svc.Delete(ctx, donor, claimed.ID), apperror.ErrAlreadyTaken)

	// A donor cannot delete somebody else's row either.
	stranger := f.user(t, entity.RoleDonor, "")
	other := f.post(t, donor, entity.Edible)
	require.ErrorIs(t, f.svc.Delete(ctx, stranger, other.ID), apperror.ErrAlreadyTaken)
}

func TestRecipientDashboard_FiltersByCapability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donor := f.user(t, entity.RoleDonor, "")
	edibleOnly := f.user(t, entity.RoleRecipient, entity.AcceptEdible)
	both := f.user(t, entity.RoleRecipient, entity.AcceptBoth)

	edible := f.post(t, donor, entity.Edible)
	nonEdible := f.post(t, donor, entity.NonEdible)

	narrow, err := f.svc.RecipientDashboard(ctx, edibleOnly)
	require.NoError(t, err)
	require.Len(t, narrow.Posted, 1)
	require.Equal(t, edible.ID, narrow.Posted[0].ID)
	require.Empty(t, narrow.Diverted)

	wide, err := f.svc.RecipientDashboard(ctx, both)
	require.NoError(t, err)
	require.Len(t, wide.Posted, 2)
	_ = nonEdible
}

func TestDonorDashboard_PartitionsAndNamesOrganisation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donor := f.user(t, entity.RoleDonor, "")
	org := f.user(t, entity.RoleRecipient, entity.AcceptBoth)

	open := f.post(t, donor, entity.Edible)
	taken := f.post(t, donor, entity.Edible)
	_, err := f.svc.Claim(ctx, org, taken.ID, dto.ClaimRequest{})
	require.NoError(t, err)

	dash, err := f.svc.DonorDashboard(ctx, donor.ID)
	require.NoError(t, err)
	require.Len(t, dash.Unclaimed, 1)
	require.Equal(t, open.ID, dash.Unclaimed[0].ID)
	require.Len(t, dash.InProgress, 1)
	require.Equal(t, taken.ID, dash.InProgress[0].ID)
	require.Equal(t, org.Name, dash.InProgress[0].OrganisationName)
	require.Empty(t, dash.Delivered)
}

func TestVolunteerDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	donor := f.user(t, entity.RoleDonor, "")
	org := f.user(t, entity.RoleRecipient, entity.AcceptBoth)
	vol := f.user(t, entity.RoleVolunteer, "")

	available := f.post(t, donor, entity.Edible)
	_, err := f.svc.Claim(ctx, org, available.ID, dto.ClaimRequest{VolunteerNeeded: true})
	require.NoError(t, err)

	mine := f.post(t, donor, entity.Edible)
	_, err = f.svc.Claim(ctx, org, mine.ID, dto.ClaimRequest{VolunteerNeeded: true})
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, vol, mine.ID)
	require.NoError(t, err)

	dash, err := f.svc.VolunteerDashboard(ctx, vol.ID)
	require.NoError(t, err)
	require.Len(t, dash.Available, 1)
	require.Equal(t, available.ID, dash.Available[0].ID)
	require.Len(t, dash.Accepted, 1)
	require.Equal(t, mine.ID, dash.Accepted[0].ID)
}

func TestDonorMonthlyCounts(t *testing.T) {
	f := newFixture(t)
	// Buckets key off real insert timestamps, so the clock must be real too.
	f.svc.now = time.Now
	donor := f.user(t, entity.RoleDonor, "")

	f.post(t, donor, entity.Edible)
	f.post(t, donor, entity.Edible)
	f.post(t, donor, entity.NonEdible)

	counts, err := f.svc.DonorMonthlyCounts(context.Background(), donor.ID, 3)
	require.NoError(t, err)
	require.Len(t, counts, 3)

	total := 0
	for _, c := range counts {
		total += c.Count
	}
	require.Equal(t, 3, total)
	require.Equal(t, time.Now().UTC().Format("2006-01"), counts[2].Month)
}

func TestDonorMonthlyCounts_ClampsRequestedWindow(t *testing.T) {
	f := newFixture(t)
	f.svc.now = time.Now
	donor := f.user(t, entity.RoleDonor, "")

	// The bucket slice is sized from the request, so an absurd window must be
	// clamped instead of allocated.
	counts, err := f.svc.DonorMonthlyCounts(context.Background(), donor.ID, 1<<40)
	require.NoError(t, err)
	require.Len(t, counts, maxAnalyticsMonths)

	// Zero and negative fall back to the default window.
	counts, err = f.svc.DonorMonthlyCounts(context.Background(), donor.ID, -1)
	require.NoError(t, err)
	require.Len(t, counts, 6)
}

func TestReload_MissingRowIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.reload(context.Background(), uuid.New())
	require.Error(t, err)
	require.True(t, errors.Is(err, apperror.ErrNotFound))
}
