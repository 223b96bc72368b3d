package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facilitybooking/internal/account"
	"facilitybooking/internal/schedule"
)

type mockStore struct {
	booking   *Booking
	getErr    error
	commitErr error
	commits   []TransitionCommit
}

func (m *mockStore) GetByID(ctx context.Context, id string) (*Booking, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.booking == nil || m.booking.ID != id {
		return nil, ErrNotFound
	}
	b := *m.booking
	return &b, nil
}

func (m *mockStore) CommitTransition(ctx context.Context, c TransitionCommit) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	m.commits = append(m.commits, c)
	return nil
}

type sentMessage struct {
	accountID string
	message   string
	category  string
}

type broadcastMessage struct {
	role     account.Role
	message  string
	category string
}

type mockNotifier struct {
	sends      []sentMessage
	broadcasts []broadcastMessage
}

func (m *mockNotifier) Send(ctx context.Context, accountID, message, category string) {
	m.sends = append(m.sends, sentMessage{accountID, message, category})
}

func (m *mockNotifier) Broadcast(ctx context.Context, role account.Role, message, category string) {
	m.broadcasts = append(m.broadcasts, broadcastMessage{role, message, category})
}

type mockFacilities struct {
	names map[string]string
}

func (m *mockFacilities) Name(ctx context.Context, id string) (string, error) {
	return m.names[id], nil
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

func pendingBooking() *Booking {
	return &Booking{
		ID:                 "bk-1",
		RequesterAccountID: "acct-client",
		Organization:       "Drama Club",
		Purpose:            "Annual Play",
		FacilityID:         "fac-1",
		EventDateStart:     day("2026-09-10"),
		EventDateEnd:       day("2026-09-10"),
		EventWindow:        schedule.Window{Start: clock("09:00"), End: clock("12:00")},
		Status:             StagePending,
	}
}

func president() account.Actor {
	return account.Actor{AccountID: "acct-pres", Role: account.RolePresident, RoleName: "President"}
}

func projectManager() account.Actor {
	return account.Actor{AccountID: "acct-pm", Role: account.RoleProjectManager, RoleName: "Project Manager"}
}

func TestEngineTransition_PresidentApprovesPending(t *testing.T) {
	store := &mockStore{booking: pendingBooking()}
	notifier := &mockNotifier{}
	engine := NewEngine(store, notifier, &mockFacilities{names: map[string]string{"fac-1": "Main Hall"}})

	updated, err := engine.Transition(context.Background(), "bk-1", ActionApprove, president(), "looks fine", nil)
	require.NoError(t, err)
	assert.Equal(t, StagePresidentReviewed, updated.Status)

	require.Len(t, store.commits, 1)
	c := store.commits[0]
	assert.Equal(t, StagePending, c.FromStage)
	assert.Equal(t, StagePresidentReviewed, c.ToStage)
	assert.Equal(t, "acct-pres", c.Approval.ApproverAccountID)
	assert.Equal(t, "President", c.Approval.ApproverRole)
	assert.Equal(t, "President Initial Review", c.Approval.Stage)
	assert.Equal(t, "Approved for Billing", c.Approval.Decision)
	assert.Equal(t, "looks fine", c.Approval.Remarks)

	// The requester hears about the status change by name, not id.
	require.NotEmpty(t, notifier.sends)
	assert.Equal(t, "acct-client", notifier.sends[0].accountID)
	assert.Contains(t, notifier.sends[0].message, "Main Hall")
}

func TestEngineTransition_UnauthorizedRole(t *testing.T) {
	store := &mockStore{booking: pendingBooking()}
	engine := NewEngine(store, &mockNotifier{}, &mockFacilities{})

	_, err := engine.Transition(context.Background(), "bk-1", ActionApprove, projectManager(), "", nil)
	assert.ErrorIs(t, err, ErrUnauthorizedTransition)
	assert.Empty(t, store.commits)
}

func TestEngineTransition_LostRace(t *testing.T) {
	store := &mockStore{booking: pendingBooking(), commitErr: ErrConcurrentModification}
	notifier := &mockNotifier{}
	engine := NewEngine(store, notifier, &mockFacilities{})

	_, err := engine.Transition(context.Background(), "bk-1", ActionApprove, president(), "", nil)
	assert.ErrorIs(t, err, ErrConcurrentModification)

	// Nothing goes out when the commit fails.
	assert.Empty(t, notifier.sends)
	assert.Empty(t, notifier.broadcasts)
}

func TestEngineTransition_NotFound(t *testing.T) {
	engine := NewEngine(&mockStore{}, &mockNotifier{}, &mockFacilities{})

	_, err := engine.Transition(context.Background(), "missing", ActionApprove, president(), "", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngineTransition_RejectRecordsReviewStage(t *testing.T) {
	b := pendingBooking()
	b.Status = StageBillingGenerated
	store := &mockStore{booking: b}
	engine := NewEngine(store, &mockNotifier{}, &mockFacilities{})

	updated, err := engine.Transition(context.Background(), "bk-1", ActionReject, projectManager(), "budget cut", nil)
	require.NoError(t, err)
	assert.Equal(t, StageRejected, updated.Status)

	require.Len(t, store.commits, 1)
	assert.Equal(t, "Billing Signature", store.commits[0].Approval.Stage)
	assert.Equal(t, "Rejected", store.commits[0].Approval.Decision)
}

func TestEngineTransition_RescheduleNotifiesRequester(t *testing.T) {
	store := &mockStore{booking: pendingBooking()}
	notifier := &mockNotifier{}
	engine := NewEngine(store, notifier, &mockFacilities{names: map[string]string{"fac-1": "Main Hall"}})

	newStart := clock("14:00")
	newEnd := clock("17:00")
	updates := &Updates{EventTimeStart: &newStart, EventTimeEnd: &newEnd}

	updated, err := engine.Transition(context.Background(), "bk-1", ActionApprove, president(), "", updates)
	require.NoError(t, err)
	assert.Equal(t, clock("14:00"), updated.EventWindow.Start)

	var rescheduleSent bool
	for _, s := range notifier.sends {
		if s.category == "RESCHEDULE" {
			rescheduleSent = true
			assert.Equal(t, "acct-client", s.accountID)
			assert.Contains(t, s.message, "14:00")
		}
	}
	assert.True(t, rescheduleSent, "expected a reschedule notification")
}

func TestEngineTransition_RelocationNotifiesRequester(t *testing.T) {
	store := &mockStore{booking: pendingBooking()}
	notifier := &mockNotifier{}
	engine := NewEngine(store, notifier, &mockFacilities{names: map[string]string{"fac-2": "Gymnasium"}})

	newFacility := "fac-2"
	updated, err := engine.Transition(context.Background(), "bk-1", ActionApprove, president(), "", &Updates{FacilityID: &newFacility})
	require.NoError(t, err)
	assert.Equal(t, "fac-2", updated.FacilityID)

	var relocated bool
	for _, s := range notifier.sends {
		if s.category == "RELOCATION" {
			relocated = true
			assert.Contains(t, s.message, "Gymnasium")
		}
	}
	assert.True(t, relocated, "expected a relocation notification")
}

func TestEngineTransition_InvalidUpdateWindow(t *testing.T) {
	store := &mockStore{booking: pendingBooking()}
	engine := NewEngine(store, &mockNotifier{}, &mockFacilities{})

	// End before start.
	newStart := clock("15:00")
	newEnd := clock("10:00")
	_, err := engine.Transition(context.Background(), "bk-1", ActionApprove, president(), "", &Updates{
		EventTimeStart: &newStart,
		EventTimeEnd:   &newEnd,
	})
	assert.ErrorIs(t, err, ErrInvalidInterval)
	assert.Empty(t, store.commits)
}

func TestEngineCancel_OwnerOnly(t *testing.T) {
	store := &mockStore{booking: pendingBooking()}
	engine := NewEngine(store, &mockNotifier{}, &mockFacilities{})

	stranger := account.Actor{AccountID: "acct-other", Role: account.RoleClient, RoleName: "Client"}
	_, err := engine.Cancel(context.Background(), "bk-1", stranger, "")
	assert.ErrorIs(t, err, ErrUnauthorizedTransition)

	owner := account.Actor{AccountID: "acct-client", Role: account.RoleClient, RoleName: "Client"}
	updated, err := engine.Cancel(context.Background(), "bk-1", owner, "plans changed")
	require.NoError(t, err)
	assert.Equal(t, StageCancelled, updated.Status)

	require.Len(t, store.commits, 1)
	assert.Equal(t, "Cancelled", store.commits[0].Approval.Decision)
	assert.Equal(t, "President Initial Review", store.commits[0].Approval.Stage)
}

func TestEngineCancel_TerminalBooking(t *testing.T) {
	b := pendingBooking()
	b.Status = StageApproved
	engine := NewEngine(&mockStore{booking: b}, &mockNotifier{}, &mockFacilities{})

	owner := account.Actor{AccountID: "acct-client", Role: account.RoleClient, RoleName: "Client"}
	_, err := engine.Cancel(context.Background(), "bk-1", owner, "")
	assert.ErrorIs(t, err, ErrUnauthorizedTransition)
}
