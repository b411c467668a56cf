package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinicare-api/internal/model"
	"github.com/jwalitptl/clinicare-api/internal/repository"
	apperrors "github.com/jwalitptl/clinicare-api/pkg/errors"
)

// memSessions keeps rows in memory with the same grouping rules as postgres.
type memSessions struct {
	repository.SessionRepository
	rows   []*model.Session
	nextID int64
	// failOn makes CreateGroups fail when it reaches a group of that day.
	failOn model.Weekday
}

// CreateGroups rolls back every group when one fails, like the postgres
// transaction does.
func (m *memSessions) CreateGroups(_ context.Context, groups [][]*model.Session) error {
	rows, nextID := len(m.rows), m.nextID
	for _, g := range groups {
		if m.failOn != "" && len(g) > 0 && g[0].Day == m.failOn {
			m.rows, m.nextID = m.rows[:rows], nextID
			return errors.New("insert failed")
		}
		m.insertGroup(g)
	}
	return nil
}

func (m *memSessions) insertGroup(rows []*model.Session) {
	var parent int64
	for i, r := range rows {
		m.nextID++
		r.ID = m.nextID
		if i == 0 {
			parent = r.ID
			r.ParentID = nil
		} else {
			p := parent
			r.ParentID = &p
		}
		m.rows = append(m.rows, r)
	}
}

func (m *memSessions) FindForDay(_ context.Context, doctorID, clinicID int64, day model.Weekday, exclude int64) ([]*model.Session, error) {
	var out []*model.Session
	for _, r := range m.rows {
		if r.DoctorID == doctorID && r.ClinicID == clinicID && r.Day == day && r.Duration() > 0 && r.GroupID() != exclude {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memSessions) GetGroup(_ context.Context, id int64) ([]*model.Session, error) {
	var out []*model.Session
	for _, r := range m.rows {
		if r.GroupID() == id {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, repository.ErrNotFound
	}
	return out, nil
}

func (m *memSessions) ReplaceGroup(_ context.Context, id int64, rows []*model.Session) error {
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.GroupID() != id {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	for i, r := range rows {
		if i == 0 {
			r.ID = id
			r.ParentID = nil
		} else {
			m.nextID++
			r.ID = m.nextID
			p := id
			r.ParentID = &p
		}
		m.rows = append(m.rows, r)
	}
	return nil
}

func (m *memSessions) ReplaceAll(_ context.Context, doctorID, clinicID int64, groups [][]*model.Session) error {
	kept := m.rows[:0]
	for _, r := range m.rows {
		if r.DoctorID != doctorID || r.ClinicID != clinicID {
			kept = append(kept, r)
		}
	}
	m.rows = kept
	for _, g := range groups {
		m.insertGroup(g)
	}
	return nil
}

type stubStaff struct {
	repository.StaffRepository
	mapped bool
}

func (s *stubStaff) IsDoctorInClinic(context.Context, int64, int64) (bool, error) {
	return s.mapped, nil
}

type recorder struct{ events []string }

func (r *recorder) Emit(_ context.Context, eventType string, _ interface{}) {
	r.events = append(r.events, eventType)
}

var admin = &model.Actor{UserID: 1, Role: model.RoleAdministrator}

func iv(start, end string) model.Interval {
	return model.Interval{Start: model.MustClock(start), End: model.MustClock(end)}
}

// week builds a 7 day request with only the given days enabled.
func week(doctorID, clinicID int64, slot int, enabled map[model.Weekday]model.DaySchedule) *model.SessionScheduleRequest {
	req := &model.SessionScheduleRequest{DoctorID: doctorID, ClinicID: clinicID, TimeSlot: slot}
	for _, d := range model.Week {
		day, ok := enabled[d]
		if !ok {
			day = model.DaySchedule{Day: d}
		}
		day.Day = d
		req.Days = append(req.Days, day)
	}
	return req
}

func monday(main model.Interval, breaks ...model.Interval) map[model.Weekday]model.DaySchedule {
	return map[model.Weekday]model.DaySchedule{
		model.Monday: {Enabled: true, MainSession: main, Breaks: breaks},
	}
}

func newTestService() (*Service, *memSessions, *recorder) {
	repo := &memSessions{}
	rec := &recorder{}
	return NewService(repo, &stubStaff{mapped: true}, rec), repo, rec
}

func TestCreate_RejectsOverlapAcceptsAdjacentWindow(t *testing.T) {
	svc, repo, rec := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, week(5, 2, 15, monday(iv("09:00", "12:00"))))
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin, week(5, 2, 15, monday(iv("10:00", "11:00"))))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSessionOverlap))
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Contains(t, appErr.Message, "mon")

	_, err = svc.Create(ctx, admin, week(5, 2, 15, monday(iv("13:00", "14:00"))))
	require.NoError(t, err)

	assert.Len(t, repo.rows, 2)
	assert.Equal(t, []string{model.EventSessionsChanged, model.EventSessionsChanged}, rec.events)
}

func TestCreate_TouchingWindowsDoNotOverlap(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, week(5, 2, 15, monday(iv("09:00", "12:00"))))
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, week(5, 2, 15, monday(iv("12:00", "13:00"))))
	assert.NoError(t, err)
}

func TestCreate_ContainingWindowOverlaps(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, week(5, 2, 15, monday(iv("10:00", "11:00"))))
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, week(5, 2, 15, monday(iv("08:00", "18:00"))))
	assert.ErrorIs(t, err, ErrSessionOverlap)
}

func TestCreate_OtherClinicDoesNotConflict(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, week(5, 2, 15, monday(iv("09:00", "12:00"))))
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, week(5, 3, 15, monday(iv("09:00", "12:00"))))
	assert.NoError(t, err)
}

func TestCreate_SplitsBreaksIntoGroupedRows(t *testing.T) {
	svc, repo, _ := newTestService()

	groups, err := svc.Create(context.Background(), admin,
		week(5, 2, 30, monday(iv("09:00", "17:00"), iv("12:00", "13:00"), iv("15:00", "15:30"))))
	require.NoError(t, err)

	require.Len(t, repo.rows, 3)
	require.Len(t, groups, 1)
	g := groups[0]
	assert.Equal(t, iv("09:00", "17:00"), g.MainSession)
	assert.Equal(t, []model.Interval{iv("12:00", "13:00"), iv("15:00", "15:30")}, g.Breaks)
	for _, r := range repo.rows {
		assert.Equal(t, g.ID, r.GroupID())
	}
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  *model.SessionScheduleRequest
	}{
		{"slot not multiple of five", week(5, 2, 7, monday(iv("09:00", "12:00")))},
		{"start after end", week(5, 2, 15, monday(iv("12:00", "09:00")))},
		{"break outside session", week(5, 2, 15, monday(iv("09:00", "12:00"), iv("11:30", "12:30")))},
		{"break covers everything", week(5, 2, 15, monday(iv("09:00", "12:00"), iv("09:00", "12:00")))},
		{"missing doctor", week(0, 2, 15, monday(iv("09:00", "12:00")))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService()
			_, err := svc.Create(context.Background(), admin, tt.req)
			require.Error(t, err)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
			assert.Empty(t, repo.rows)
		})
	}
}

func TestCreate_DoctorMustBeMappedToClinic(t *testing.T) {
	svc := NewService(&memSessions{}, &stubStaff{mapped: false}, &recorder{})
	_, err := svc.Create(context.Background(), admin, week(5, 2, 15, monday(iv("09:00", "12:00"))))
	assert.Error(t, err)
}

func TestCreate_FailedDayLeavesNoRows(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	repo.failOn = model.Tuesday

	days := monday(iv("09:00", "12:00"))
	days[model.Tuesday] = model.DaySchedule{Enabled: true, MainSession: iv("09:00", "12:00")}
	_, err := svc.Create(ctx, admin, week(5, 2, 15, days))
	require.Error(t, err)
	assert.Empty(t, repo.rows)

	repo.failOn = ""
	groups, err := svc.Create(ctx, admin, week(5, 2, 15, monday(iv("09:00", "12:00"))))
	require.NoError(t, err)
	assert.Len(t, groups, 1)
}

func TestUpdate_DoctorUnmappedFromClinic(t *testing.T) {
	repo := &memSessions{}
	staff := &stubStaff{mapped: true}
	svc := NewService(repo, staff, &recorder{})
	ctx := context.Background()

	groups, err := svc.Create(ctx, admin, week(5, 2, 15, monday(iv("09:00", "12:00"))))
	require.NoError(t, err)

	staff.mapped = false
	_, err = svc.Update(ctx, admin, groups[0].ID, &model.UpdateSessionRequest{
		TimeSlot:    15,
		Day:         model.Monday,
		MainSession: iv("10:00", "12:00"),
	})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	assert.Equal(t, model.MustClock("09:00"), repo.rows[0].StartTime)
}

func TestUpdate_ExcludesOwnGroup(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	groups, err := svc.Create(ctx, admin, week(5, 2, 15, monday(iv("09:00", "12:00"))))
	require.NoError(t, err)
	id := groups[0].ID

	updated, err := svc.Update(ctx, admin, id, &model.UpdateSessionRequest{
		TimeSlot:    20,
		Day:         model.Monday,
		MainSession: iv("09:00", "13:00"),
		Breaks:      []model.Interval{iv("11:00", "11:20")},
	})
	require.NoError(t, err)
	assert.Equal(t, id, updated.ID)
	assert.Equal(t, iv("09:00", "13:00"), updated.MainSession)

	_, err = svc.Create(ctx, admin, week(5, 2, 15, monday(iv("12:30", "14:00"))))
	assert.ErrorIs(t, err, ErrSessionOverlap)
}

func TestUpdate_ReceptionistOfOtherClinicIsForbidden(t *testing.T) {
	svc, _, _ := newTestService()
	groups, err := svc.Create(context.Background(), admin, week(5, 2, 15, monday(iv("09:00", "12:00"))))
	require.NoError(t, err)

	other := &model.Actor{UserID: 8, Role: model.RoleReceptionist, ClinicID: 9}
	_, err = svc.Get(context.Background(), other, groups[0].ID)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

func TestReplaceAll_IgnoresRowsBeingReplaced(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, week(5, 2, 15, monday(iv("09:00", "12:00"))))
	require.NoError(t, err)

	_, err = svc.ReplaceAll(ctx, admin, 5, 2, week(5, 2, 15, monday(iv("10:00", "11:00"))))
	require.NoError(t, err)
	require.Len(t, repo.rows, 1)
	assert.Equal(t, model.MustClock("10:00"), repo.rows[0].StartTime)
}

func TestMergeBreaks(t *testing.T) {
	got := mergeBreaks([]model.Interval{iv("14:00", "15:00"), iv("10:00", "11:00"), iv("10:30", "12:00"), iv("12:00", "12:15")})
	assert.Equal(t, []model.Interval{iv("10:00", "12:15"), iv("14:00", "15:00")}, got)
	assert.Nil(t, mergeBreaks(nil))
}
