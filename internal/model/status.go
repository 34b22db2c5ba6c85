package model

import (
	"time"

	"github.com/and161185/foodpocket/internal/errs"
)

// PocketStatus is the stored pocket state. DELETED is terminal.
type PocketStatus int

const (
	PocketActive  PocketStatus = 1
	PocketDeleted PocketStatus = 999
)

func (s PocketStatus) String() string {
	switch s {
	case PocketActive:
		return "ACTIVE"
	case PocketDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// ParsePocketStatus maps a label to a status.
func ParsePocketStatus(label string) (PocketStatus, bool) {
	switch label {
	case "ACTIVE":
		return PocketActive, true
	case "DELETED":
		return PocketDeleted, true
	}
	return 0, false
}

// NextStatus validates a status edit on p and returns the target status.
func (p Pocket) NextStatus(label string) (PocketStatus, error) {
	if p.Status == PocketDeleted {
		return 0, errs.Invalid("Cannot edit status for deleted pocket")
	}
	st, ok := ParsePocketStatus(label)
	if !ok {
		return 0, errs.Invalid("Undefined status")
	}
	return st, nil
}

// RestaurantStatus is the stored restaurant state. HIDE is never stored.
type RestaurantStatus int

const (
	RestaurantActive  RestaurantStatus = 1
	RestaurantRandom  RestaurantStatus = 2
	RestaurantHide    RestaurantStatus = 3
	RestaurantDeleted RestaurantStatus = 999
)

func (s RestaurantStatus) String() string {
	switch s {
	case RestaurantActive:
		return "ACTIVE"
	case RestaurantRandom:
		return "RANDOM"
	case RestaurantHide:
		return "HIDE"
	case RestaurantDeleted:
		return "DELETED"
	default:
		return "UNKNOWN"
	}
}

// ParseRestaurantStatus maps a label to a status.
func ParseRestaurantStatus(label string) (RestaurantStatus, bool) {
	switch label {
	case "ACTIVE":
		return RestaurantActive, true
	case "RANDOM":
		return RestaurantRandom, true
	case "HIDE":
		return RestaurantHide, true
	case "DELETED":
		return RestaurantDeleted, true
	}
	return 0, false
}

// StatusLabel is the display status: HIDE while hide_until is after today
// and the restaurant is not deleted, the stored status otherwise.
func (r Restaurant) StatusLabel(today time.Time) string {
	if r.Status != RestaurantDeleted && r.Hidden(today) {
		return RestaurantHide.String()
	}
	return r.Status.String()
}

// Hidden reports whether the restaurant is suppressed on today.
func (r Restaurant) Hidden(today time.Time) bool { return r.HideUntil.After(today) }

// NextStatus validates a status edit on r. The returned status is nil for
// HIDE, which only moves hide_until.
func (r Restaurant) NextStatus(label string) (*RestaurantStatus, error) {
	if r.Status == RestaurantDeleted {
		return nil, errs.Invalid("Cannot edit status for deleted restaurant")
	}
	st, ok := ParseRestaurantStatus(label)
	if !ok {
		return nil, errs.Invalid("Undefined status")
	}
	if st == RestaurantHide {
		return nil, nil
	}
	return &st, nil
}

// VisitStatus is the stored visit record state.
type VisitStatus int

const (
	VisitActive  VisitStatus = 1
	VisitDeleted VisitStatus = 2
)
