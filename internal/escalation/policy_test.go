package escalation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"facilitybooking/internal/account"
	"facilitybooking/internal/booking"
	"facilitybooking/internal/schedule"
)

type mockFinder struct {
	hits  []schedule.Hit
	err   error
	calls int
}

func (m *mockFinder) FindOverlaps(ctx context.Context, facilityID, excludeBookingID string, cand schedule.Candidate) ([]schedule.Hit, error) {
	m.calls++
	return m.hits, m.err
}

type broadcastMessage struct {
	role     account.Role
	message  string
	category string
}

type mockNotifier struct {
	broadcasts []broadcastMessage
}

func (m *mockNotifier) Send(ctx context.Context, accountID, message, category string) {}

func (m *mockNotifier) Broadcast(ctx context.Context, role account.Role, message, category string) {
	m.broadcasts = append(m.broadcasts, broadcastMessage{role, message, category})
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func clock(s string) schedule.ClockTime {
	c, err := schedule.ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func newBooking() *booking.Booking {
	return &booking.Booking{
		ID:                 "bk-dean",
		RequesterAccountID: "acct-dean",
		FacilityID:         "fac-1",
		EventDateStart:     day("2026-09-10"),
		EventDateEnd:       day("2026-09-10"),
		EventWindow:        schedule.Window{Start: clock("09:00"), End: clock("12:00")},
	}
}

func TestIsPriorityRole(t *testing.T) {
	cases := []struct {
		role string
		want bool
	}{
		{"College Dean", true},
		{"dean of students", true},
		{"Student Council", true},
		{"COUNCIL", true},
		{"Client", false},
		{"Administrator", false},
		{"President", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsPriorityRole(c.role); got != c.want {
			t.Fatalf("IsPriorityRole(%q) = %v, want %v", c.role, got, c.want)
		}
	}
}

func TestIsProtectedRole(t *testing.T) {
	cases := []struct {
		role string
		want bool
	}{
		{"Administrator", true},
		{"Project Manager", true},
		{"President", true},
		{"College Dean", true},
		{"Student Council", true},
		{"Client", false},
		{"Alumni", false},
	}
	for _, c := range cases {
		if got := IsProtectedRole(c.role); got != c.want {
			t.Fatalf("IsProtectedRole(%q) = %v, want %v", c.role, got, c.want)
		}
	}
}

func TestAfterCreate_DeanOverClient(t *testing.T) {
	finder := &mockFinder{hits: []schedule.Hit{
		{BookingID: "bk-client", RequesterAccountID: "acct-client", RequesterRole: "Client"},
	}}
	notifier := &mockNotifier{}
	policy := NewPolicy(finder, notifier, zap.NewNop())

	policy.AfterCreate(context.Background(), newBooking(), "College Dean")

	require.Len(t, notifier.broadcasts, 2)
	assert.Equal(t, account.RoleProjectManager, notifier.broadcasts[0].role)
	assert.Equal(t, account.RolePresident, notifier.broadcasts[1].role)

	msg := notifier.broadcasts[0].message
	assert.Contains(t, msg, "PRIORITY ALERT")
	assert.Contains(t, msg, "bk-dean")
	assert.Contains(t, msg, "bk-client")
	assert.Contains(t, msg, "College Dean")
}

func TestAfterCreate_NonPriorityRequester(t *testing.T) {
	finder := &mockFinder{hits: []schedule.Hit{
		{BookingID: "bk-client", RequesterRole: "Client"},
	}}
	notifier := &mockNotifier{}
	policy := NewPolicy(finder, notifier, zap.NewNop())

	policy.AfterCreate(context.Background(), newBooking(), "Administrator")

	// Not a priority role, so the overlap query never even runs.
	assert.Equal(t, 0, finder.calls)
	assert.Empty(t, notifier.broadcasts)
}

func TestAfterCreate_ProtectedVictimSuppressed(t *testing.T) {
	finder := &mockFinder{hits: []schedule.Hit{
		{BookingID: "bk-pres", RequesterRole: "President"},
		{BookingID: "bk-admin", RequesterRole: "Administrator"},
	}}
	notifier := &mockNotifier{}
	policy := NewPolicy(finder, notifier, zap.NewNop())

	policy.AfterCreate(context.Background(), newBooking(), "Student Council")

	assert.Empty(t, notifier.broadcasts)
}

func TestAfterCreate_OneEscalationPerCreation(t *testing.T) {
	finder := &mockFinder{hits: []schedule.Hit{
		{BookingID: "bk-client-1", RequesterRole: "Client"},
		{BookingID: "bk-client-2", RequesterRole: "Client"},
		{BookingID: "bk-client-3", RequesterRole: "Client"},
	}}
	notifier := &mockNotifier{}
	policy := NewPolicy(finder, notifier, zap.NewNop())

	policy.AfterCreate(context.Background(), newBooking(), "College Dean")

	// One alert pair for the first unprotected victim, then stop.
	require.Len(t, notifier.broadcasts, 2)
	assert.Contains(t, notifier.broadcasts[0].message, "bk-client-1")
}

func TestAfterCreate_DetectorFailureSwallowed(t *testing.T) {
	finder := &mockFinder{err: assert.AnError}
	notifier := &mockNotifier{}
	policy := NewPolicy(finder, notifier, zap.NewNop())

	policy.AfterCreate(context.Background(), newBooking(), "College Dean")

	assert.Empty(t, notifier.broadcasts)
}
