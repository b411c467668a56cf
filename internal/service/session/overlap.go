package session

import (
	"errors"
	"fmt"
	"sort"

	"github.com/jwalitptl/clinicare-api/internal/model"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

var ErrSessionOverlap = errors.New("session overlaps an existing session")

// CheckOverlap rejects main when it shares any minute with an existing row.
// Zero-length rows never conflict.
func CheckOverlap(day model.Weekday, main model.Interval, existing []*model.Session) error {
	for _, s := range existing {
		window := model.Interval{Start: s.StartTime, End: s.EndTime}
		if window.End <= window.Start {
			continue
		}
		if main.Overlaps(window) {
			return apperrors.Conflict(
				fmt.Sprintf("%s session %s-%s overlaps existing session %s-%s",
					day, main.Start, main.End, window.Start, window.End),
				ErrSessionOverlap,
			)
		}
	}
	return nil
}

// mergeBreaks sorts breaks and fuses the ones that touch or overlap.
func mergeBreaks(breaks []model.Interval) []model.Interval {
	if len(breaks) == 0 {
		return nil
	}
	sorted := append([]model.Interval(nil), breaks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := []model.Interval{sorted[0]}
	for _, b := range sorted[1:] {
		last := &merged[len(merged)-1]
		if b.Start <= last.End {
			if b.End > last.End {
				last.End = b.End
			}
			continue
		}
		merged = append(merged, b)
	}
	return merged
}

// validateDay checks a single enabled day schedule.
func validateDay(day model.Weekday, main model.Interval, breaks []model.Interval) error {
	if main.Start >= main.End {
		return apperrors.BadRequest(fmt.Sprintf("%s: session start must be before end", day), nil)
	}
	for _, b := range breaks {
		if b.Start >= b.End {
			return apperrors.BadRequest(fmt.Sprintf("%s: break start must be before end", day), nil)
		}
		if !main.Contains(b) {
			return apperrors.BadRequest(
				fmt.Sprintf("%s: break %s-%s is outside session %s-%s", day, b.Start, b.End, main.Start, main.End), nil)
		}
	}
	return nil
}

// SplitSession cuts the breaks out of main and returns the bookable rows.
func SplitSession(doctorID, clinicID int64, day model.Weekday, slot int, main model.Interval, breaks []model.Interval) []*model.Session {
	rows := []*model.Session{}
	cursor := main.Start
	for _, b := range mergeBreaks(breaks) {
		if b.Start > cursor {
			rows = append(rows, newRow(doctorID, clinicID, day, slot, cursor, b.Start))
		}
		if b.End > cursor {
			cursor = b.End
		}
	}
	if cursor < main.End {
		rows = append(rows, newRow(doctorID, clinicID, day, slot, cursor, main.End))
	}
	return rows
}

func newRow(doctorID, clinicID int64, day model.Weekday, slot int, start, end model.ClockTime) *model.Session {
	return &model.Session{
		DoctorID:  doctorID,
		ClinicID:  clinicID,
		Day:       day,
		StartTime: start,
		EndTime:   end,
		TimeSlot:  slot,
	}
}

// Group folds stored rows back into day schedules, ordered by group id.
func Group(rows []*model.Session) []*model.SessionGroup {
	byID := map[int64]*model.SessionGroup{}
	order := []int64{}
	for _, row := range rows {
		id := row.GroupID()
		g, ok := byID[id]
		if !ok {
			g = &model.SessionGroup{
				ID:       id,
				DoctorID: row.DoctorID,
				ClinicID: row.ClinicID,
				Day:      row.Day,
				TimeSlot: row.TimeSlot,
				Breaks:   []model.Interval{},
			}
			byID[id] = g
			order = append(order, id)
		}
		g.Rows = append(g.Rows, row)
	}

	groups := make([]*model.SessionGroup, 0, len(order))
	for _, id := range order {
		g := byID[id]
		sort.Slice(g.Rows, func(i, j int) bool { return g.Rows[i].StartTime < g.Rows[j].StartTime })
		g.MainSession = model.Interval{Start: g.Rows[0].StartTime, End: g.Rows[len(g.Rows)-1].EndTime}
		for i := 1; i < len(g.Rows); i++ {
			if gap := (model.Interval{Start: g.Rows[i-1].EndTime, End: g.Rows[i].StartTime}); gap.Start < gap.End {
				g.Breaks = append(g.Breaks, gap)
			}
		}
		groups = append(groups, g)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	return groups
}
