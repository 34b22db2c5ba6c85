package service

import (
	"time"

	"github.com/and161185/foodpocket/internal/model"
)

// Clock supplies the current instant and the zone that decides "today".
type Clock struct {
	Now func() time.Time
	Loc *time.Location
}

// SystemClock reads the wall clock in loc (UTC when nil).
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: time.Now, Loc: loc}
}

// Today returns the current calendar date in the clock's zone.
func (c Clock) Today() time.Time { return model.DateOf(c.Now().In(c.Loc)) }
