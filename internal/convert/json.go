// Package convert maps domain models to the JSON shapes of the HTTP API.
package convert

import (
	"time"

	"github.com/and161185/foodpocket/internal/model"
	"github.com/gofrs/uuid/v5"
)

// --- helpers ---

// stamp renders an instant as RFC 3339 in loc.
func stamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}

func date(t time.Time) string { return model.FormatDate(t) }

func optDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return model.FormatDate(*t)
}

// --- create responses ---

type PocketCreated struct {
	PocketUID uuid.UUID `json:"pocket_uid"`
}

type RestaurantCreated struct {
	RestaurantUID uuid.UUID `json:"restaurant_uid"`
}

type VisitCreated struct {
	VisitRecordUID uuid.UUID `json:"visitrecord_uid"`
}

// --- login ---

type PocketBrief struct {
	PocketUID uuid.UUID `json:"pocket_uid"`
	Name      string    `json:"name"`
}

type Login struct {
	Token      string      `json:"token"`
	ExpireTime string      `json:"expire_time"`
	LastPocket PocketBrief `json:"last_pocket"`
}

// ToLogin converts a session to the login payload.
func ToLogin(s model.Session, loc *time.Location) Login {
	return Login{
		Token:      s.Token.Token,
		ExpireTime: stamp(s.Token.ExpireTime, loc),
		LastPocket: PocketBrief{PocketUID: s.LastPocket.ID, Name: s.LastPocket.Name},
	}
}

// --- pockets ---

type Pocket struct {
	PocketUID uuid.UUID `json:"pocket_uid"`
	Name      string    `json:"name"`
	Note      string    `json:"note"`
	Size      int       `json:"size"`
}

// ToPockets converts pocket summaries; the result is never nil.
func ToPockets(in []model.PocketSummary) []Pocket {
	out := make([]Pocket, 0, len(in))
	for _, p := range in {
		out = append(out, Pocket{PocketUID: p.ID, Name: p.Name, Note: p.Note, Size: p.Size})
	}
	return out
}

// --- restaurants ---

type Restaurant struct {
	RestaurantUID  uuid.UUID `json:"restaurant_uid"`
	RestaurantName string    `json:"restaurant_name"`
	Visited        int       `json:"visited"`
	VisitDates     []string  `json:"visit_dates"`
	LastUpdate     string    `json:"last_update"`
	Status         string    `json:"status"`
	HideUntil      string    `json:"hide_until"`
	Note           string    `json:"note"`
}

// ToRestaurants converts restaurant summaries.
func ToRestaurants(in []model.RestaurantSummary, loc *time.Location) []Restaurant {
	out := make([]Restaurant, 0, len(in))
	for _, r := range in {
		dates := make([]string, 0, len(r.VisitDates))
		for _, d := range r.VisitDates {
			dates = append(dates, date(d))
		}
		out = append(out, Restaurant{
			RestaurantUID:  r.ID,
			RestaurantName: r.Name,
			Visited:        r.Visited,
			VisitDates:     dates,
			LastUpdate:     stamp(r.LastUpdate, loc),
			Status:         r.Status,
			HideUntil:      date(r.HideUntil),
			Note:           r.Note,
		})
	}
	return out
}

type RestaurantBrief struct {
	RestaurantUID  uuid.UUID `json:"restaurant_uid"`
	RestaurantName string    `json:"restaurant_name"`
	VisitCount     int       `json:"visit_count"`
	LastVisit      string    `json:"last_visit"`
	LastUpdate     string    `json:"last_update"`
	Status         string    `json:"status"`
	HideUntil      string    `json:"hide_until"`
	Note           string    `json:"note"`
}

// ToRestaurantBriefs converts recommendation entries. A last_update that is a
// visit date renders as a date, a creation instant as a timestamp.
func ToRestaurantBriefs(in []model.RestaurantBrief, loc *time.Location) []RestaurantBrief {
	out := make([]RestaurantBrief, 0, len(in))
	for _, b := range in {
		lastUpdate := stamp(b.LastUpdate, loc)
		if b.LastVisit != nil && b.LastUpdate.Equal(*b.LastVisit) {
			lastUpdate = date(b.LastUpdate)
		}
		out = append(out, RestaurantBrief{
			RestaurantUID:  b.ID,
			RestaurantName: b.Name,
			VisitCount:     b.VisitCount,
			LastVisit:      optDate(b.LastVisit),
			LastUpdate:     lastUpdate,
			Status:         b.Status,
			HideUntil:      date(b.HideUntil),
			Note:           b.Note,
		})
	}
	return out
}

// --- visits ---

type Visit struct {
	VisitRecordUID uuid.UUID `json:"visitrecord_uid"`
	RestaurantUID  uuid.UUID `json:"restaurant_uid"`
	RestaurantName string    `json:"restaurant_name"`
	VisitDate      string    `json:"visit_date"`
	Score          int       `json:"score"`
	CreateTime     string    `json:"create_time"`
}

// ToVisits converts visit views.
func ToVisits(in []model.VisitView, loc *time.Location) []Visit {
	out := make([]Visit, 0, len(in))
	for _, v := range in {
		out = append(out, Visit{
			VisitRecordUID: v.ID,
			RestaurantUID:  v.RestaurantID,
			RestaurantName: v.RestaurantName,
			VisitDate:      date(v.VisitDate),
			Score:          v.Score,
			CreateTime:     stamp(v.CreatedAt, loc),
		})
	}
	return out
}
