package schedule

import (
	"fmt"
	"sort"

	"github.com/jwalitptl/clinicare-api/internal/model"
)

// MaxRangeDays bounds a single date expansion to roughly ten years.
const MaxRangeDays = 3660

// GenerateDateRange lists every day from start to end inclusive as YYYY-MM-DD.
// An end before start yields an empty list.
func GenerateDateRange(start, end string) ([]string, error) {
	from, err := model.ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := model.ParseDate(end)
	if err != nil {
		return nil, err
	}
	return dateRange(from, to)
}

func dateRange(from, to model.Date) ([]string, error) {
	if to.Before(from.Time) {
		return []string{}, nil
	}
	days := SpanDays(from, to)
	if days > MaxRangeDays {
		return nil, fmt.Errorf("date range %s..%s spans %d days, limit is %d", from, to, days, MaxRangeDays)
	}

	dates := make([]string, 0, days)
	for d := from.Time; !d.After(to.Time); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(model.DateLayout))
	}
	return dates, nil
}

// SpanDays counts the days from start to end inclusive.
func SpanDays(from, to model.Date) int {
	return int(to.Sub(from.Time).Hours()/24) + 1
}

// OffDays returns the weekdays without any session, in week order.
func OffDays(sessions []*model.Session) []model.Weekday {
	working := make(map[model.Weekday]bool, len(model.Week))
	for _, s := range sessions {
		working[s.Day] = true
	}

	off := []model.Weekday{}
	for _, d := range model.Week {
		if !working[d] {
			off = append(off, d)
		}
	}
	return off
}

// ExpandLeave turns a whole-day leave into its dates. Time-specific leaves
// block part of a day only and expand to nothing.
func ExpandLeave(leave *model.Leave) ([]string, error) {
	if leave.TimeSpecific {
		return []string{}, nil
	}
	return leaveDays(leave)
}

// BlockedWindows returns the parts of date covered by time-specific leaves.
func BlockedWindows(leaves []*model.Leave, date model.Date) []model.Interval {
	var windows []model.Interval
	for _, leave := range leaves {
		if !leave.TimeSpecific || leave.StartTime == nil || leave.EndTime == nil {
			continue
		}
		days, err := leaveDays(leave)
		if err != nil {
			continue
		}
		for _, d := range days {
			if d == date.String() {
				windows = append(windows, model.Interval{Start: *leave.StartTime, End: *leave.EndTime})
				break
			}
		}
	}
	return windows
}

func leaveDays(leave *model.Leave) ([]string, error) {
	switch leave.SelectionMode {
	case model.SelectionRange:
		if leave.StartDate.IsZero() || leave.EndDate.IsZero() {
			return nil, fmt.Errorf("range leave %d needs start and end date", leave.ID)
		}
		return dateRange(leave.StartDate, leave.EndDate)

	case model.SelectionSingle:
		if leave.StartDate.IsZero() {
			return nil, fmt.Errorf("single leave %d has no start date", leave.ID)
		}
		if leave.EndDate.IsZero() {
			return []string{leave.StartDate.String()}, nil
		}
		return dateRange(leave.StartDate, leave.EndDate)

	case model.SelectionMultiple:
		dates := make([]string, 0, len(leave.SelectedDates))
		for _, raw := range leave.SelectedDates {
			d, err := model.ParseDate(raw)
			if err != nil {
				return nil, fmt.Errorf("leave %d: %w", leave.ID, err)
			}
			dates = append(dates, d.String())
		}
		return dates, nil
	}

	return nil, fmt.Errorf("leave %d has unknown selection mode %q", leave.ID, leave.SelectionMode)
}

// DailyCapacity sums the bookable slots of every weekday.
func DailyCapacity(sessions []*model.Session) map[model.Weekday]int {
	capacity := make(map[model.Weekday]int)
	for _, s := range sessions {
		if s.TimeSlot <= 0 || s.Duration() <= 0 {
			continue
		}
		capacity[s.Day] += s.Duration() / s.TimeSlot
	}
	return capacity
}

// FullyBookedDates returns the dates whose booked count reached the capacity
// of their weekday, sorted. Days without capacity are never fully booked.
func FullyBookedDates(capacity map[model.Weekday]int, counts map[string]int) []string {
	booked := []string{}
	for date, n := range counts {
		d, err := model.ParseDate(date)
		if err != nil {
			continue
		}
		limit := capacity[d.Weekday()]
		if limit > 0 && n >= limit {
			booked = append(booked, d.String())
		}
	}
	sort.Strings(booked)
	return booked
}

// MergeDates unions the lists, drops duplicates and sorts ascending.
func MergeDates(lists ...[]string) []string {
	seen := make(map[string]struct{})
	merged := []string{}
	for _, list := range lists {
		for _, d := range list {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			merged = append(merged, d)
		}
	}
	sort.Strings(merged)
	return merged
}
