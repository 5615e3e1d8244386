package models

import "time"

// ActionKind is the kind of a logged outreach action.
type ActionKind string

const (
	ActionContacted ActionKind = "contacted"
	ActionSnoozed   ActionKind = "snoozed"
	ActionNote      ActionKind = "note"
)

// ValidActionKind reports whether a raw kind is part of the enumeration.
func ValidActionKind(raw string) bool {
	switch ActionKind(raw) {
	case ActionContacted, ActionSnoozed, ActionNote:
		return true
	}
	return false
}

// OutreachAction is one entry in the append-only outreach log.
type OutreachAction struct {
	ID        string     `json:"id" db:"id"`
	CompanyID string     `json:"company_id" db:"company_id"`
	Kind      ActionKind `json:"kind" db:"kind"`
	Note      *string    `json:"note,omitempty" db:"note"`
	Territory *string    `json:"territory,omitempty" db:"territory"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
