package model

import (
	"fmt"
	"strings"
	"time"
)

// Weekday is the three-letter lowercase day code used across the API.
type Weekday string

const (
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
	Sunday    Weekday = "sun"
)

// Week lists all days in display order.
var Week = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var fromTime = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

func WeekdayOf(t time.Time) Weekday {
	return fromTime[t.Weekday()]
}

func ParseWeekday(s string) (Weekday, error) {
	d := Weekday(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("invalid day %q", s)
	}
	return d, nil
}

func (d Weekday) Valid() bool {
	for _, w := range Week {
		if w == d {
			return true
		}
	}
	return false
}
