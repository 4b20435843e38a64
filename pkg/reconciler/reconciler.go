// Package reconciler keeps a dashboard's per-status donation lists consistent
// with a live stream of row events. Each dashboard is a set of disjoint lists
// with membership predicates; applying an event first removes the row from
// every list, then inserts it into the first list whose predicate matches.
// That remove-then-insert order is what keeps a row from ever appearing in
// two lists under out-of-order delivery.
package reconciler

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sharebite/sharebite/internal/entity"
	feed "github.com/sharebite/sharebite/internal/modules/feed/dto"
)

// List is one visible partition of a dashboard.
type List struct {
	Name  string
	Match func(d *entity.Donation) bool
	items []entity.Donation
}

func NewList(name string, match func(d *entity.Donation) bool) *List {
	return &List{Name: name, Match: match}
}

// Dashboard reconciles an initial snapshot with feed events. Events are
// applied in arrival order; an event older than what was already applied for
// that row (by updated_at) is discarded. Safe for one goroutine draining the
// feed while others read.
type Dashboard struct {
	mu      sync.RWMutex
	lists   []*List
	applied map[uuid.UUID]time.Time
	closed  bool
}

func NewDashboard(lists ...*List) *Dashboard {
	return &Dashboard{
		lists:   lists,
		applied: make(map[uuid.UUID]time.Time),
	}
}

// Load seeds the dashboard from snapshot rows. Rows already superseded by a
// live event are skipped, so a snapshot arriving after the feed started does
// not resurrect stale state.
func (d *Dashboard) Load(rows []entity.Donation) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	for i := range rows {
		row := rows[i]
		if last, ok := d.applied[row.ID]; ok && last.After(row.UpdatedAt) {
			continue
		}
		d.removeEverywhere(row.ID)
		d.applied[row.ID] = row.UpdatedAt
		for _, list := range d.lists {
			if list.Match(&row) {
				list.items = append(list.items, row)
				break
			}
		}
	}
}

// Apply processes one feed event.
func (d *Dashboard) Apply(event feed.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}

	if event.Type == feed.EventDelete {
		id := event.RowID()
		if id == uuid.Nil {
			return
		}
		d.removeEverywhere(id)
		delete(d.applied, id)
		return
	}

	if event.New == nil {
		return
	}
	row := *event.New

	if last, ok := d.applied[row.ID]; ok && last.After(row.UpdatedAt) {
		return
	}
	d.applied[row.ID] = row.UpdatedAt

	d.removeEverywhere(row.ID)
	for _, list := range d.lists {
		if list.Match(&row) {
			list.items = append([]entity.Donation{row}, list.items...)
			break
		}
	}
}

// Close stops the dashboard: later Load and Apply calls become no-ops. Used
// on teardown so in-flight snapshot results cannot write into a dead view.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

// Items returns a copy of the named list, newest first.
func (d *Dashboard) Items(name string) []entity.Donation {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, list := range d.lists {
		if list.Name == name {
			out := make([]entity.Donation, len(list.items))
			copy(out, list.items)
			return out
		}
	}
	return nil
}

// Locate reports which list, if any, currently holds the row.
func (d *Dashboard) Locate(id uuid.UUID) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, list := range d.lists {
		for i := range list.items {
			if list.items[i].ID == id {
				return list.Name, true
			}
		}
	}
	return "", false
}

// Lists returns the list names in display order.
func (d *Dashboard) Lists() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, len(d.lists))
	for i, list := range d.lists {
		names[i] = list.Name
	}
	return names
}

func (d *Dashboard) removeEverywhere(id uuid.UUID) {
	for _, list := range d.lists {
		for i := range list.items {
			if list.items[i].ID == id {
				list.items = append(list.items[:i], list.items[i+1:]...)
				break
			}
		}
	}
}
