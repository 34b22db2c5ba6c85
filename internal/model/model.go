// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Field limits shared by validation and storage.
const (
	MaxUsernameLen = 64
	MaxNameLen     = 200
	MaxAddressLen  = 200
	MaxNoteLen     = 1000

	DefaultPocketName = "My Pocket"
	AccountActive     = "active"
	TokenActive       = "active"
)

// Account is a user identity. Password is stored as Argon2id(password, Salt).
type Account struct {
	ID        uuid.UUID // PK
	Username  string    // lowercased, unique
	PwdHash   []byte
	Salt      []byte
	Email     string // unique
	Status    string
	LastLogin time.Time
	CreatedAt time.Time
}

// Token is an opaque bearer credential with an absolute expiry.
type Token struct {
	Token      string // PK
	AccountID  uuid.UUID
	ExpireTime time.Time
	Status     string
	CreatedAt  time.Time
}

// Brief is a minimal projection of an entity used in lightweight responses.
type Brief struct {
	ID   uuid.UUID
	Name string
}

// Pocket is a named collection of restaurants.
type Pocket struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Name        string
	Status      PocketStatus
	Note        string
	CreatedAt   time.Time
	LastUseTime *time.Time
}

// Brief returns the id and name of the pocket.
func (p Pocket) Brief() Brief { return Brief{ID: p.ID, Name: p.Name} }

// PocketSummary is a pocket annotated with its live restaurant count.
type PocketSummary struct {
	Pocket
	Size int
}

// PocketPatch lists the pocket fields an edit changes; nil means untouched.
type PocketPatch struct {
	Name   *string
	Note   *string
	Status *PocketStatus
}

// Empty reports whether the patch changes nothing.
func (p PocketPatch) Empty() bool { return p.Name == nil && p.Note == nil && p.Status == nil }

// Restaurant is a place tracked inside a pocket.
type Restaurant struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	PocketID  uuid.UUID
	Name      string
	Longitude float64
	Latitude  float64
	Address   string
	Note      string
	Status    RestaurantStatus
	HideUntil time.Time  // date
	LastVisit *time.Time // date, nil when never visited
	CreatedAt time.Time
}

// RestaurantPatch lists the restaurant fields an edit changes; nil means untouched.
type RestaurantPatch struct {
	Name      *string
	Note      *string
	Status    *RestaurantStatus
	HideUntil *time.Time
}

// Empty reports whether the patch changes nothing.
func (p RestaurantPatch) Empty() bool {
	return p.Name == nil && p.Note == nil && p.Status == nil && p.HideUntil == nil
}

// RestaurantBrief is the recommendation projection of a restaurant.
type RestaurantBrief struct {
	ID         uuid.UUID
	Name       string
	VisitCount int
	LastVisit  *time.Time
	LastUpdate time.Time
	Status     string
	HideUntil  time.Time
	Note       string
}

// RestaurantSummary is one entry of a pocket's restaurant list.
type RestaurantSummary struct {
	ID         uuid.UUID
	Name       string
	Visited    int
	VisitDates []time.Time // newest first
	LastUpdate time.Time
	Status     string
	HideUntil  time.Time
	Note       string
}

// VisitRecord is a dated visit to a restaurant.
type VisitRecord struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	OwnerID      uuid.UUID
	VisitDate    time.Time // date
	Score        int
	Status       VisitStatus
	CreatedAt    time.Time
}

// VisitView is a visit record joined with its restaurant name.
type VisitView struct {
	VisitRecord
	RestaurantName string
}

// VisitPatch lists the visit fields an edit changes; nil means untouched.
type VisitPatch struct {
	VisitDate *time.Time
	Score     *int
}

// VisitCounts holds the number of live visits of a restaurant, overall and
// inside the trailing windows.
type VisitCounts struct {
	Total      int
	Last30Days int
	Last7Days  int
}

// Session is the outcome of a successful login.
type Session struct {
	Token      Token
	LastPocket Brief
}

// PocketEdit carries the raw form values of a pocket edit; nil means absent.
type PocketEdit struct {
	Name   *string
	Note   *string
	Status *string
}

// RestaurantInput carries the fields of a new restaurant.
type RestaurantInput struct {
	Name      string
	Longitude float64
	Latitude  float64
	Address   string
	Note      string
}

// RestaurantEdit carries the raw form values of a restaurant edit; nil means absent.
type RestaurantEdit struct {
	Name      *string
	Note      *string
	Status    *string
	HideUntil *string
}

// VisitInput carries the raw form values of a visit record; nil means absent.
type VisitInput struct {
	VisitDate *string
	Score     *int
}
