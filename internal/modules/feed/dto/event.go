package dto

import (
	"github.com/google/uuid"
	"github.com/sharebite/sharebite/internal/entity"
)

// Channel is the redis pub/sub channel every donation row event goes through.
const Channel = "donations:events"

type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event is one row-level change on the donations table. Insert and update
// carry the full new row; delete carries only the removed row's id. No
// ordering is guaranteed across different rows.
type Event struct {
	Type EventType        `json:"event"`
	New  *entity.Donation `json:"new,omitempty"`
	Old  *EventRef        `json:"old,omitempty"`
}

type EventRef struct {
	ID uuid.UUID `json:"id"`
}

// RowID returns the id of the row the event is about, whichever side of the
// event carries it.
func (e *Event) RowID() uuid.UUID {
	if e.New != nil {
		return e.New.ID
	}
	if e.Old != nil {
		return e.Old.ID
	}
	return uuid.Nil
}

// ConcernsOwner reports whether the event's row references the given user as
// donor, claiming organisation or assigned volunteer. Delete events match
// unconditionally: the receiver only needs the id to drop the row.
func (e *Event) ConcernsOwner(owner uuid.UUID) bool {
	if e.New == nil {
		return true
	}
	d := e.New
	if d.DonorID == owner {
		return true
	}
	if d.OrganisationID != nil && *d.OrganisationID == owner {
		return true
	}
	if d.VolunteerID != nil && *d.VolunteerID == owner {
		return true
	}
	return false
}
