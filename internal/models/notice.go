package models

import "time"

// NoticeCategory classifies a notice for filtering and presentation.
type NoticeCategory string

const (
	NoticeCategoryGeneral NoticeCategory = "GENERAL"
	NoticeCategoryExam    NoticeCategory = "EXAM"
	NoticeCategoryUrgent  NoticeCategory = "URGENT"
)

// PinState captures a notice's elevated-visibility flag together with its
// optional auto-expiry. The zero value is "unpinned". Constructors are the
// only way to build a pinned state, so an unpinned notice can never carry an
// expiry timestamp.
type PinState struct {
	pinned bool
	until  *time.Time
}

// Unpinned returns the unpinned state.
func Unpinned() PinState {
	return PinState{}
}

// PinnedUntil returns a pinned state that expires at the given instant.
// Past instants are accepted verbatim; expiry is the sweeper's concern.
func PinnedUntil(until time.Time) PinState {
	u := until
	return PinState{pinned: true, until: &u}
}

// PinnedForever returns a pinned state with no expiry.
func PinnedForever() PinState {
	return PinState{pinned: true}
}

// Pinned reports whether the notice is currently pinned.
func (p PinState) Pinned() bool { return p.pinned }

// Until returns the expiry timestamp, or nil when the pin has no expiry or
// the notice is unpinned.
func (p PinState) Until() *time.Time {
	if !p.pinned {
		return nil
	}
	return p.until
}

// ExpiredAt reports whether a pinned state with an expiry has lapsed at the
// given instant. Unpinned and no-expiry states never expire.
func (p PinState) ExpiredAt(now time.Time) bool {
	if !p.pinned || p.until == nil {
		return false
	}
	return !p.until.After(now)
}

// Notice represents a portal notice row.
type Notice struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Content     string         `db:"content" json:"content"`
	Author      string         `db:"author" json:"author"`
	AuthorID    string         `db:"author_id" json:"author_id"`
	Department  string         `db:"department" json:"department"`
	Subject     *string        `db:"subject" json:"subject,omitempty"`
	Category    NoticeCategory `db:"category" json:"category"`
	Pinned      bool           `db:"pinned" json:"pinned"`
	PinnedUntil *time.Time     `db:"pinned_until" json:"pinned_until,omitempty"`
	Attachments []string       `db:"-" json:"attachments"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Pin returns the notice's pin state as a tagged value.
func (n *Notice) Pin() PinState {
	if !n.Pinned {
		return Unpinned()
	}
	if n.PinnedUntil == nil {
		return PinnedForever()
	}
	return PinnedUntil(*n.PinnedUntil)
}

// ApplyPin writes a pin state back onto the row fields.
func (n *Notice) ApplyPin(state PinState) {
	n.Pinned = state.Pinned()
	n.PinnedUntil = state.Until()
}
