package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facilitybooking/internal/account"
)

type mockCreator struct {
	created   *Booking
	createErr error
}

func (m *mockCreator) CreateBooking(ctx context.Context, b *Booking) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = b
	return nil
}

type mockHook struct {
	booking  *Booking
	roleName string
	calls    int
}

func (m *mockHook) AfterCreate(ctx context.Context, b *Booking, requesterRoleName string) {
	m.booking = b
	m.roleName = requesterRoleName
	m.calls++
}

func validCreateInput() CreateInput {
	return CreateInput{
		Organization:   "Drama Club",
		Purpose:        "Annual Play",
		FacilityID:     "fac-1",
		EventDateStart: "2026-09-10",
		EventDateEnd:   "2026-09-10",
		EventTimeStart: "09:00",
		EventTimeEnd:   "12:00",
		FacilityFee:    "1500.00",
	}
}

func client() account.Actor {
	return account.Actor{AccountID: "acct-client", Role: account.RoleClient, RoleName: "Client"}
}

func TestServiceCreate(t *testing.T) {
	store := &mockCreator{}
	notifier := &mockNotifier{}
	hook := &mockHook{}
	svc := NewService(store, notifier, hook)

	b, err := svc.Create(context.Background(), client(), validCreateInput())
	require.NoError(t, err)

	require.NotNil(t, store.created)
	assert.Equal(t, StagePending, b.Status)
	assert.Equal(t, "acct-client", b.RequesterAccountID)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "1500", b.FacilityFee.String())
	assert.False(t, b.RequestedAt.IsZero())

	// Staff hears about new requests.
	require.Len(t, notifier.broadcasts, 2)
	roles := []account.Role{notifier.broadcasts[0].role, notifier.broadcasts[1].role}
	assert.Contains(t, roles, account.RoleProjectManager)
	assert.Contains(t, roles, account.RolePresident)

	require.Equal(t, 1, hook.calls)
	assert.Equal(t, b.ID, hook.booking.ID)
	assert.Equal(t, "Client", hook.roleName)
}

func TestServiceCreate_MultiDayWithEntries(t *testing.T) {
	in := validCreateInput()
	in.EventDateEnd = "2026-09-12"
	in.ScheduleEntries = []EntryInput{
		{Date: "2026-09-10", TimeStart: "09:00", TimeEnd: "12:00"},
		{Date: "2026-09-12", TimeStart: "13:00", TimeEnd: "18:00"},
	}

	store := &mockCreator{}
	svc := NewService(store, &mockNotifier{}, nil)

	b, err := svc.Create(context.Background(), client(), in)
	require.NoError(t, err)
	require.Len(t, b.Entries, 2)
	assert.Equal(t, b.ID, b.Entries[0].BookingID)
	assert.NotEmpty(t, b.Entries[0].ID)
}

func TestServiceCreate_MultiDayWithoutEntries(t *testing.T) {
	in := validCreateInput()
	in.EventDateEnd = "2026-09-12"

	svc := NewService(&mockCreator{}, &mockNotifier{}, nil)
	_, err := svc.Create(context.Background(), client(), in)
	assert.ErrorIs(t, err, ErrInvalidInterval)
}

func TestServiceCreate_InvalidWindows(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"end before start", func(in *CreateInput) { in.EventTimeStart = "15:00"; in.EventTimeEnd = "10:00" }},
		{"bad time", func(in *CreateInput) { in.EventTimeStart = "25:00" }},
		{"bad date", func(in *CreateInput) { in.EventDateStart = "tomorrow" }},
		{"date range inverted", func(in *CreateInput) { in.EventDateStart = "2026-09-12"; in.EventDateEnd = "2026-09-10" }},
		{"partial setup", func(in *CreateInput) { in.SetupDateStart = "2026-09-09" }},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			in := validCreateInput()
			c.mutate(&in)

			svc := NewService(&mockCreator{}, &mockNotifier{}, nil)
			_, err := svc.Create(context.Background(), client(), in)
			assert.ErrorIs(t, err, ErrInvalidInterval)
		})
	}
}

func TestServiceCreate_SetupWindow(t *testing.T) {
	in := validCreateInput()
	in.SetupDateStart = "2026-09-09"
	in.SetupDateEnd = "2026-09-09"
	in.SetupTimeStart = "14:00"
	in.SetupTimeEnd = "18:00"

	svc := NewService(&mockCreator{}, &mockNotifier{}, nil)
	b, err := svc.Create(context.Background(), client(), in)
	require.NoError(t, err)
	require.NotNil(t, b.Setup)
	assert.Equal(t, "14:00", b.Setup.Start.String())
}

func TestServiceCreate_StoreFailureSkipsSideEffects(t *testing.T) {
	notifier := &mockNotifier{}
	hook := &mockHook{}
	svc := NewService(&mockCreator{createErr: assert.AnError}, notifier, hook)

	_, err := svc.Create(context.Background(), client(), validCreateInput())
	assert.Error(t, err)
	assert.Empty(t, notifier.broadcasts)
	assert.Equal(t, 0, hook.calls)
}

func TestServiceCreate_InvalidFee(t *testing.T) {
	in := validCreateInput()
	in.FacilityFee = "a lot"

	svc := NewService(&mockCreator{}, &mockNotifier{}, nil)
	_, err := svc.Create(context.Background(), client(), in)
	assert.Error(t, err)
}
