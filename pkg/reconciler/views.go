package reconciler

import (
	"github.com/google/uuid"
	"github.com/sharebite/sharebite/internal/entity"
)

// RecipientView builds the dashboard a recipient organisation tracks: the
// capability-filtered posted queue, the diverted queue for non-edible-capable
// organisations, and the organisation's own claimed/picked/delivered rows.
func RecipientView(orgID uuid.UUID, capability entity.AcceptanceType) *Dashboard {
	ownWith := func(status entity.Status) func(d *entity.Donation) bool {
		return func(d *entity.Donation) bool {
			return d.OrganisationID != nil && *d.OrganisationID == orgID && d.Status == status
		}
	}

	return NewDashboard(
		// Own rows first: once claimed, a row must never fall back into the
		// shared posted queue, whatever order events arrive in.
		NewList("claimed", ownWith(entity.StatusClaimed)),
		NewList("picked", ownWith(entity.StatusPicked)),
		NewList("delivered", ownWith(entity.StatusDelivered)),
		NewList("posted", func(d *entity.Donation) bool {
			if d.Status != entity.StatusPosted || d.OrganisationID != nil {
				return false
			}
			switch d.Acceptance {
			case entity.Edible:
				return capability.CanEdible()
			case entity.NonEdible:
				return capability.CanNonEdible()
			}
			return false
		}),
		NewList("diverted", func(d *entity.Donation) bool {
			return d.Status == entity.StatusDiverted && capability.CanNonEdible()
		}),
	)
}

// DonorView partitions a donor's own donations into unclaimed, in-progress
// and delivered.
func DonorView(donorID uuid.UUID) *Dashboard {
	mine := func(d *entity.Donation) bool { return d.DonorID == donorID }

	return NewDashboard(
		NewList("unclaimed", func(d *entity.Donation) bool {
			return mine(d) && (d.Status == entity.StatusPosted || d.Status == entity.StatusDiverted)
		}),
		NewList("in_progress", func(d *entity.Donation) bool {
			switch d.Status {
			case entity.StatusClaimed, entity.StatusAccepted, entity.StatusPicked:
				return mine(d)
			}
			return false
		}),
		NewList("delivered", func(d *entity.Donation) bool {
			switch d.Status {
			case entity.StatusDelivered, entity.StatusConfirmed:
				return mine(d)
			}
			return false
		}),
	)
}

// VolunteerView tracks the open delivery pool plus the volunteer's own
// assignments partitioned by status.
func VolunteerView(volunteerID uuid.UUID) *Dashboard {
	mineWith := func(status entity.Status) func(d *entity.Donation) bool {
		return func(d *entity.Donation) bool {
			return d.VolunteerID != nil && *d.VolunteerID == volunteerID && d.Status == status
		}
	}

	return NewDashboard(
		NewList("accepted", mineWith(entity.StatusAccepted)),
		NewList("picked", mineWith(entity.StatusPicked)),
		NewList("delivered", mineWith(entity.StatusDelivered)),
		NewList("confirmed", mineWith(entity.StatusConfirmed)),
		NewList("available", func(d *entity.Donation) bool {
			return d.Status == entity.StatusClaimed && d.VolunteerNeeded && d.VolunteerID == nil
		}),
	)
}
