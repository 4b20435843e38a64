package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sharebite/sharebite/internal/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DonationRepository owns every read and write on the donations table.
//
// All transition methods are single conditional UPDATE statements: the WHERE
// clause encodes the full precondition (expected status, ownership null
// checks, acceptance match) and the boolean result reports whether a row was
// affected. A false result is not an error; it means another actor won the
// race and the caller must surface that as a precondition failure. Client-side
// check-then-write is never the guard.
type DonationRepository interface {
	Create(ctx context.Context, donation *entity.Donation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Donation, error)

	FindPosted(ctx context.Context, acceptance []entity.Acceptance) ([]entity.Donation, error)
	FindDiverted(ctx context.Context) ([]entity.Donation, error)
	FindByOrganisationAndStatus(ctx context.Context, orgID uuid.UUID, status entity.Status) ([]entity.Donation, error)
	FindByDonor(ctx context.Context, donorID uuid.UUID) ([]entity.Donation, error)
	FindByDonorSince(ctx context.Context, donorID uuid.UUID, since time.Time) ([]entity.Donation, error)
	FindAvailableForVolunteers(ctx context.Context) ([]entity.Donation, error)
	FindByVolunteerAndStatus(ctx context.Context, volunteerID uuid.UUID, status entity.Status) ([]entity.Donation, error)

	Claim(ctx context.Context, id, orgID uuid.UUID, capability entity.AcceptanceType, volunteerNeeded bool) (bool, error)
	RequestVolunteer(ctx context.Context, id, orgID uuid.UUID) (bool, error)
	Accept(ctx context.Context, id, volunteerID uuid.UUID) (bool, error)
	PickByOrganisation(ctx context.Context, id, orgID uuid.UUID) (bool, error)
	PickByVolunteer(ctx context.Context, id, volunteerID uuid.UUID) (bool, error)
	DeliverByOrganisation(ctx context.Context, id, orgID uuid.UUID, at time.Time) (bool, error)
	DeliverByVolunteer(ctx context.Context, id, volunteerID uuid.UUID, at time.Time) (bool, error)
	Confirm(ctx context.Context, id, orgID uuid.UUID) (bool, error)
	DeleteUnclaimedByDonor(ctx context.Context, id, donorID uuid.UUID) (bool, error)

	DivertExpiredEdible(ctx context.Context, now time.Time) ([]entity.Donation, error)
	ExpirePosted(ctx context.Context, now time.Time) ([]entity.Donation, error)
	ExpireDiverted(ctx context.Context, cutoff time.Time) ([]entity.Donation, error)
}

type donationRepository struct {
	db *gorm.DB
}

func NewDonationRepository(db *gorm.DB) DonationRepository {
	return &donationRepository{db: db}
}

func (r *donationRepository) Create(ctx context.Context, donation *entity.Donation) error {
	return r.db.WithContext(ctx).Create(donation).Error
}

func (r *donationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Donation, error) {
	var donation entity.Donation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&donation).Error; err != nil {
		return nil, err
	}
	return &donation, nil
}

func (r *donationRepository) FindPosted(ctx context.Context, acceptance []entity.Acceptance) ([]entity.Donation, error) {
	var donations []entity.Donation
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.StatusPosted).
		Where("acceptance IN ?", acceptance).
		Order("created_at desc").
		Find(&donations).Error
	return donations, err
}

func (r *donationRepository) FindDiverted(ctx context.Context) ([]entity.Donation, error) {
	var donations []entity.Donation
	err := r.db.WithContext(ctx).
		Where("status = ?", entity.StatusDiverted).
		Order("created_at desc").
		Find(&donations).Error
	return donations, err
}

func (r *donationRepository) FindByOrganisationAndStatus(ctx context.Context, orgID uuid.UUID, status entity.Status) ([]entity.Donation, error) {
	var donations []entity.Donation
	err := r.db.WithContext(ctx).
		Where("organisation_id = ? AND status = ?", orgID, status).
		Order("updated_at desc").
		Find(&donations).Error
	return donations, err
}

func (r *donationRepository) FindByDonor(ctx context.Context, donorID uuid.UUID) ([]entity.Donation, error) {
	var donations []entity.Donation
	err := r.db.WithContext(ctx).
		Where("donor_id = ?", donorID).
		Order("created_at desc").
		Find(&donations).Error
	return donations, err
}

func (r *donationRepository) FindByDonorSince(ctx context.Context, donorID uuid.UUID, since time.Time) ([]entity.Donation, error) {
	var donations []entity.Donation
	err := r.db.WithContext(ctx).
		Where("donor_id = ? AND created_at >= ?", donorID, since).
		Order("created_at asc").
		Find(&donations).Error
	return donations, err
}

func (r *donationRepository) FindAvailableForVolunteers(ctx context.Context) ([]entity.Donation, error) {
	var donations []entity.Donation
	err := r.db.WithContext(ctx).
		Where("status = ? AND volunteer_needed = ? AND volunteer_id IS NULL", entity.StatusClaimed, true).
		Order("updated_at desc").
		Find(&donations).Error
	return donations, err
}

func (r *donationRepository) FindByVolunteerAndStatus(ctx context.Context, volunteerID uuid.UUID, status entity.Status) ([]entity.Donation, error) {
	var donations []entity.Donation
	err := r.db.WithContext(ctx).
		Where("volunteer_id = ? AND status = ?", volunteerID, status).
		Order("updated_at desc").
		Find(&donations).Error
	return donations, err
}

// Claim is the posted/diverted -> claimed compare-and-swap. Posted rows must
// match the recipient's acceptance capability; diverted rows keep their
// original acceptance value and are reachable only through the non-edible
// capability. The ownership null check is what makes two concurrent claims
// mutually exclusive.
func (r *donationRepository) Claim(ctx context.Context, id, orgID uuid.UUID, capability entity.AcceptanceType, volunteerNeeded bool) (bool, error) {
	accept := make([]entity.Acceptance, 0, 2)
	if capability.CanEdible() {
		accept = append(accept, entity.Edible)
	}
	if capability.CanNonEdible() {
		accept = append(accept, entity.NonEdible)
	}
	if len(accept) == 0 {
		return false, nil
	}

	eligible := r.db.Where("status = ? AND acceptance IN ?", entity.StatusPosted, accept)
	if capability.CanNonEdible() {
		eligible = eligible.Or("status = ?", entity.StatusDiverted)
	}

	res := r.db.WithContext(ctx).Model(&entity.Donation{}).
		Where("id = ?", id).
		Where("organisation_id IS NULL").
		Where(eligible).
		Updates(map[string]interface{}{
			"status":           entity.StatusClaimed,
			"organisation_id":  orgID,
			"volunteer_needed": volunteerNeeded,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *donationRepository) RequestVolunteer(ctx context.Context, id, orgID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Donation{}).
		Where("id = ? AND organisation_id = ?", id, orgID).
		Where("status = ? AND volunteer_id IS NULL", entity.StatusClaimed).
		Update("volunteer_needed", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *donationRepository) Accept(ctx context.Context, id, volunteerID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Donation{}).
		Where("id = ?", id).
		Where("status = ? AND volunteer_needed = ? AND volunteer_id IS NULL", entity.StatusClaimed, true).
		Updates(map[string]interface{}{
			"status":       entity.StatusAccepted,
			"volunteer_id": volunteerID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// PickByOrganisation covers the no-volunteer path: the claiming organisation
// collects the food itself. A row with an assigned volunteer is out of reach.
func (r *donationRepository) PickByOrganisation(ctx context.Context, id, orgID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Donation{}).
		Where("id = ? AND organisation_id = ?", id, orgID).
		Where("status = ? AND volunteer_id IS NULL", entity.StatusClaimed).
		Update("status", entity.StatusPicked)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *donationRepository) PickByVolunteer(ctx context.Context, id, volunteerID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Donation{}).
		Where("id = ? AND volunteer_id = ?", id, volunteerID).
		Where("status = ?", entity.StatusAccepted).
		Update("status", entity.StatusPicked)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *donationRepository) DeliverByOrganisation(ctx context.Context, id, orgID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Donation{}).
		Where("id = ? AND organisation_id = ?", id, orgID).
		Where("status = ? AND volunteer_id IS NULL", entity.StatusPicked).
		Updates(map[string]interface{}{
			"status":       entity.StatusDelivered,
			"delivered_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *donationRepository) DeliverByVolunteer(ctx context.Context, id, volunteerID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Donation{}).
		Where("id = ? AND volunteer_id = ?", id, volunteerID).
		Where("status = ?", entity.StatusPicked).
		Updates(map[string]interface{}{
			"status":       entity.StatusDelivered,
			"delivered_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *donationRepository) Confirm(ctx context.Context, id, orgID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Donation{}).
		Where("id = ? AND organisation_id = ?", id, orgID).
		Where("status = ?", entity.StatusDelivered).
		Update("status", entity.StatusConfirmed)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteUnclaimedByDonor removes a still-unclaimed row. Downstream statuses
// are never deleted; they belong to the claiming organisation too.
func (r *donationRepository) DeleteUnclaimedByDonor(ctx context.Context, id, donorID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND donor_id = ?", id, donorID).
		Where("status IN ?", []entity.Status{entity.StatusPosted, entity.StatusDiverted}).
		Delete(&entity.Donation{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DivertExpiredEdible moves edible food past its expiry into the non-edible
// queue in one statement and returns the affected rows so each can be
// published to the feed.
func (r *donationRepository) DivertExpiredEdible(ctx context.Context, now time.Time) ([]entity.Donation, error) {
	var swept []entity.Donation
	res := r.db.WithContext(ctx).Model(&swept).
		Clauses(clause.Returning{}).
		Where("status = ? AND acceptance = ? AND expiry <= ?", entity.StatusPosted, entity.Edible, now).
		Update("status", entity.StatusDiverted)
	if res.Error != nil {
		return nil, res.Error
	}
	return swept, nil
}

func (r *donationRepository) ExpirePosted(ctx context.Context, now time.Time) ([]entity.Donation, error) {
	var swept []entity.Donation
	res := r.db.WithContext(ctx).Model(&swept).
		Clauses(clause.Returning{}).
		Where("status = ? AND expiry <= ?", entity.StatusPosted, now).
		Update("status", entity.StatusExpired)
	if res.Error != nil {
		return nil, res.Error
	}
	return swept, nil
}

func (r *donationRepository) ExpireDiverted(ctx context.Context, cutoff time.Time) ([]entity.Donation, error) {
	var swept []entity.Donation
	res := r.db.WithContext(ctx).Model(&swept).
		Clauses(clause.Returning{}).
		Where("status = ? AND expiry <= ?", entity.StatusDiverted, cutoff).
		Update("status", entity.StatusExpired)
	if res.Error != nil {
		return nil, res.Error
	}
	return swept, nil
}
