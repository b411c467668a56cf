package schedule

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinicare-api/internal/model"
)

func date(t *testing.T, s string) model.Date {
	t.Helper()
	d, err := model.ParseDate(s)
	require.NoError(t, err)
	return d
}

func session(day model.Weekday, start, end string, slot int) *model.Session {
	return &model.Session{
		Day:       day,
		StartTime: model.MustClock(start),
		EndTime:   model.MustClock(end),
		TimeSlot:  slot,
	}
}

func TestGenerateDateRange(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		want    []string
		wantErr bool
	}{
		{
			name:  "inclusive of both ends",
			start: "2024-01-01",
			end:   "2024-01-03",
			want:  []string{"2024-01-01", "2024-01-02", "2024-01-03"},
		},
		{
			name:  "single day",
			start: "2024-02-29",
			end:   "2024-02-29",
			want:  []string{"2024-02-29"},
		},
		{
			name:  "crosses month and leap day",
			start: "2024-02-28",
			end:   "2024-03-01",
			want:  []string{"2024-02-28", "2024-02-29", "2024-03-01"},
		},
		{
			name:  "end before start",
			start: "2024-01-03",
			end:   "2024-01-01",
			want:  []string{},
		},
		{
			name:    "malformed start",
			start:   "01/01/2024",
			end:     "2024-01-03",
			wantErr: true,
		},
		{
			name:    "too long",
			start:   "2000-01-01",
			end:     "2024-01-01",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateDateRange(tt.start, tt.end)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateDateRange_Limit(t *testing.T) {
	from, to := date(t, "2024-01-01"), date(t, "2034-01-07")
	assert.Equal(t, MaxRangeDays, SpanDays(from, to))

	got, err := GenerateDateRange(from.String(), to.String())
	require.NoError(t, err)
	assert.Len(t, got, MaxRangeDays)

	_, err = GenerateDateRange(from.String(), "2034-01-08")
	assert.Error(t, err)
}

func TestOffDays_PartitionsTheWeek(t *testing.T) {
	sessions := []*model.Session{
		session(model.Monday, "09:00", "12:00", 15),
		session(model.Monday, "13:00", "17:00", 15),
		session(model.Wednesday, "09:00", "12:00", 30),
		session(model.Saturday, "10:00", "11:00", 20),
	}

	off := OffDays(sessions)
	assert.Equal(t, []model.Weekday{model.Tuesday, model.Thursday, model.Friday, model.Sunday}, off)

	working := map[model.Weekday]bool{}
	for _, s := range sessions {
		working[s.Day] = true
	}
	for _, d := range off {
		assert.False(t, working[d], "%s is both off and working", d)
	}
	assert.Equal(t, len(model.Week), len(off)+len(working))

	assert.Equal(t, model.Week, OffDays(nil))
}

func TestExpandLeave(t *testing.T) {
	tests := []struct {
		name    string
		leave   *model.Leave
		want    []string
		wantErr bool
	}{
		{
			name: "range",
			leave: &model.Leave{
				SelectionMode: model.SelectionRange,
				StartDate:     date(t, "2024-05-30"),
				EndDate:       date(t, "2024-06-01"),
			},
			want: []string{"2024-05-30", "2024-05-31", "2024-06-01"},
		},
		{
			name: "single without end",
			leave: &model.Leave{
				SelectionMode: model.SelectionSingle,
				StartDate:     date(t, "2024-05-30"),
			},
			want: []string{"2024-05-30"},
		},
		{
			name: "single with end",
			leave: &model.Leave{
				SelectionMode: model.SelectionSingle,
				StartDate:     date(t, "2024-05-30"),
				EndDate:       date(t, "2024-05-31"),
			},
			want: []string{"2024-05-30", "2024-05-31"},
		},
		{
			name: "multiple",
			leave: &model.Leave{
				SelectionMode: model.SelectionMultiple,
				SelectedDates: pq.StringArray{"2024-07-04", "2024-12-25"},
			},
			want: []string{"2024-07-04", "2024-12-25"},
		},
		{
			name: "time specific never expands",
			leave: &model.Leave{
				SelectionMode: model.SelectionRange,
				StartDate:     date(t, "2024-05-30"),
				EndDate:       date(t, "2024-06-01"),
				TimeSpecific:  true,
			},
			want: []string{},
		},
		{
			name: "multiple with garbage",
			leave: &model.Leave{
				SelectionMode: model.SelectionMultiple,
				SelectedDates: pq.StringArray{"2024-07-04", "not-a-date"},
			},
			wantErr: true,
		},
		{
			name: "range without end",
			leave: &model.Leave{
				SelectionMode: model.SelectionRange,
				StartDate:     date(t, "2024-05-30"),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandLeave(tt.leave)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDailyCapacity(t *testing.T) {
	capacity := DailyCapacity([]*model.Session{
		session(model.Monday, "09:00", "12:00", 15),  // 12
		session(model.Monday, "13:00", "13:50", 15),  // 3
		session(model.Tuesday, "09:00", "10:00", 45), // 1
		session(model.Friday, "10:00", "10:00", 15),  // zero duration
		session(model.Sunday, "10:00", "12:00", 0),   // no slot
	})

	assert.Equal(t, 15, capacity[model.Monday])
	assert.Equal(t, 1, capacity[model.Tuesday])
	assert.Zero(t, capacity[model.Friday])
	assert.Zero(t, capacity[model.Sunday])
}

func TestFullyBookedDates(t *testing.T) {
	capacity := map[model.Weekday]int{model.Monday: 2, model.Tuesday: 3}

	got := FullyBookedDates(capacity, map[string]int{
		"2024-01-08": 2, // monday, full
		"2024-01-01": 3, // monday, over
		"2024-01-09": 2, // tuesday, free slot left
		"2024-01-10": 9, // wednesday, no capacity
	})

	assert.Equal(t, []string{"2024-01-01", "2024-01-08"}, got)
	assert.Equal(t, []string{}, FullyBookedDates(capacity, nil))
}

func TestMergeDates(t *testing.T) {
	got := MergeDates(
		[]string{"2024-03-02", "2024-03-01"},
		nil,
		[]string{"2024-03-01", "2024-02-28"},
	)
	assert.Equal(t, []string{"2024-02-28", "2024-03-01", "2024-03-02"}, got)
	assert.Equal(t, []string{}, MergeDates())
}

func TestBlockedWindows(t *testing.T) {
	start, end := model.MustClock("10:00"), model.MustClock("12:00")
	leaves := []*model.Leave{
		{Base: model.Base{ID: 1}, SelectionMode: model.SelectionRange, TimeSpecific: true,
			StartDate: date(t, "2024-03-01"), EndDate: date(t, "2024-03-03"), StartTime: &start, EndTime: &end},
		{Base: model.Base{ID: 2}, SelectionMode: model.SelectionSingle,
			StartDate: date(t, "2024-03-02")},
		{Base: model.Base{ID: 3}, SelectionMode: model.SelectionSingle, TimeSpecific: true,
			StartDate: date(t, "2024-03-09"), StartTime: &start, EndTime: &end},
	}

	assert.Equal(t, []model.Interval{{Start: start, End: end}}, BlockedWindows(leaves, date(t, "2024-03-02")))
	assert.Empty(t, BlockedWindows(leaves, date(t, "2024-03-05")))
}
