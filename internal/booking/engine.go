package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"facilitybooking/internal/account"
	"facilitybooking/internal/approval"
	"facilitybooking/internal/notify"
	"facilitybooking/internal/schedule"
)

// Updates are field changes submitted alongside a stage change. They ride in
// the same transaction as the status write but are orthogonal to the state
// machine.
type Updates struct {
	FacilityID     *string
	EventDateStart *time.Time
	EventDateEnd   *time.Time
	EventTimeStart *schedule.ClockTime
	EventTimeEnd   *schedule.ClockTime
}

// Changes describes exactly what a committed transition altered.
type Changes struct {
	StageChanged bool
	Rescheduled  bool
	Relocated    bool
}

// Store is the persistence the engine needs: snapshot reads and the atomic
// conditional commit.
type Store interface {
	GetByID(ctx context.Context, id string) (*Booking, error)
	CommitTransition(ctx context.Context, c TransitionCommit) error
}

// Notifier delivers outbound messages after commit. Implementations swallow
// their own failures; the engine never sees them.
type Notifier interface {
	Send(ctx context.Context, accountID, message, category string)
	Broadcast(ctx context.Context, role account.Role, message, category string)
}

// FacilityNames resolves facility ids to display names for message text.
type FacilityNames interface {
	Name(ctx context.Context, id string) (string, error)
}

// Engine is the role-gated state machine over booking stages. Its only
// concurrency guard is the conditional commit in the store: the status write
// succeeds only if the stage still equals the value read at the start of the
// call, and a lost race surfaces as ErrConcurrentModification.
type Engine struct {
	store      Store
	notifier   Notifier
	facilities FacilityNames
}

func NewEngine(store Store, notifier Notifier, facilities FacilityNames) *Engine {
	return &Engine{store: store, notifier: notifier, facilities: facilities}
}

// Transition advances the booking per the gating table and returns the
// updated snapshot. Notifications go out only after the transaction commits.
func (e *Engine) Transition(ctx context.Context, bookingID string, action Action, actor account.Actor, remarks string, updates *Updates) (*Booking, error) {
	snap, err := e.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	rule, err := ResolveTransition(snap.Status, actor.Role, action)
	if err != nil {
		return nil, err
	}

	if err := validateUpdates(snap, updates); err != nil {
		return nil, err
	}
	changes := detectChanges(snap, updates)
	changes.StageChanged = true

	commit := TransitionCommit{
		BookingID: snap.ID,
		FromStage: snap.Status,
		ToStage:   rule.Next,
		Updates:   updates,
		Approval: approval.Record{
			ID:                uuid.NewString(),
			BookingID:         snap.ID,
			ApproverAccountID: actor.AccountID,
			ApproverRole:      actor.RoleName,
			Stage:             rule.StageLabel,
			Decision:          rule.Decision,
			Remarks:           remarks,
		},
	}
	if err := e.store.CommitTransition(ctx, commit); err != nil {
		return nil, err
	}

	updated := applyToSnapshot(snap, rule.Next, updates)
	e.notifyTransition(ctx, updated, rule, changes)
	return updated, nil
}

// Cancel is the requester's side exit. It rides the same conditional commit
// as approvals, so a cancel racing a transition loses cleanly.
func (e *Engine) Cancel(ctx context.Context, bookingID string, actor account.Actor, remarks string) (*Booking, error) {
	snap, err := e.store.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if snap.RequesterAccountID != actor.AccountID {
		return nil, ErrUnauthorizedTransition
	}
	if snap.Status.Terminal() {
		return nil, ErrUnauthorizedTransition
	}

	commit := TransitionCommit{
		BookingID: snap.ID,
		FromStage: snap.Status,
		ToStage:   StageCancelled,
		Approval: approval.Record{
			ID:                uuid.NewString(),
			BookingID:         snap.ID,
			ApproverAccountID: actor.AccountID,
			ApproverRole:      actor.RoleName,
			Stage:             reviewStageLabels[snap.Status],
			Decision:          "Cancelled",
			Remarks:           remarks,
		},
	}
	if err := e.store.CommitTransition(ctx, commit); err != nil {
		return nil, err
	}

	updated := applyToSnapshot(snap, StageCancelled, nil)
	e.notifier.Broadcast(ctx, account.RoleProjectManager,
		fmt.Sprintf("Booking %s for %s was cancelled by the requester.", updated.ID, updated.Purpose),
		notify.CategoryStatus)
	return updated, nil
}

func (e *Engine) notifyTransition(ctx context.Context, b *Booking, rule Rule, changes Changes) {
	facilityName := e.facilityName(ctx, b.FacilityID)

	e.notifier.Send(ctx, b.RequesterAccountID,
		fmt.Sprintf("Your booking for %s on %s has been %s.", facilityName, b.DateDescription(), b.Status.Human()),
		notify.CategoryStatus)

	e.notifier.Broadcast(ctx, account.RoleProjectManager,
		fmt.Sprintf("Booking %s (%s): %s.", b.ID, b.Purpose, rule.Decision),
		notify.CategoryStatus)

	if rule.Next == StageBillingGenerated {
		e.notifier.Broadcast(ctx, account.RolePresident,
			fmt.Sprintf("Billing for booking %s (%s) is ready for your signature.", b.ID, b.Purpose),
			notify.CategoryStatus)
	}

	if changes.Rescheduled {
		e.notifier.Send(ctx, b.RequesterAccountID,
			fmt.Sprintf("Your booking for %s has been rescheduled to %s.", facilityName, b.DateDescription()),
			notify.CategoryReschedule)
	}
	if changes.Relocated {
		e.notifier.Send(ctx, b.RequesterAccountID,
			fmt.Sprintf("Your booking has been moved to %s %s.", facilityName, b.DateDescription()),
			notify.CategoryRelocation)
	}
}

func (e *Engine) facilityName(ctx context.Context, id string) string {
	name, err := e.facilities.Name(ctx, id)
	if err != nil || name == "" {
		return id
	}
	return name
}

func validateUpdates(snap *Booking, u *Updates) error {
	if u == nil {
		return nil
	}
	dateStart, dateEnd := snap.EventDateStart, snap.EventDateEnd
	if u.EventDateStart != nil {
		dateStart = *u.EventDateStart
	}
	if u.EventDateEnd != nil {
		dateEnd = *u.EventDateEnd
	}
	if dateEnd.Before(dateStart) {
		return ErrInvalidInterval
	}

	w := snap.EventWindow
	if u.EventTimeStart != nil {
		w.Start = *u.EventTimeStart
	}
	if u.EventTimeEnd != nil {
		w.End = *u.EventTimeEnd
	}
	if !w.Valid() {
		return ErrInvalidInterval
	}
	return nil
}

func detectChanges(snap *Booking, u *Updates) Changes {
	var c Changes
	if u == nil {
		return c
	}
	if u.FacilityID != nil && *u.FacilityID != snap.FacilityID {
		c.Relocated = true
	}
	if u.EventDateStart != nil && !schedule.SameDay(*u.EventDateStart, snap.EventDateStart) {
		c.Rescheduled = true
	}
	if u.EventDateEnd != nil && !schedule.SameDay(*u.EventDateEnd, snap.EventDateEnd) {
		c.Rescheduled = true
	}
	if u.EventTimeStart != nil && *u.EventTimeStart != snap.EventWindow.Start {
		c.Rescheduled = true
	}
	if u.EventTimeEnd != nil && *u.EventTimeEnd != snap.EventWindow.End {
		c.Rescheduled = true
	}
	return c
}

// applyToSnapshot produces the post-commit view without another read: the
// snapshot plus the status and field changes the transaction just wrote.
func applyToSnapshot(snap *Booking, next Stage, u *Updates) *Booking {
	b := *snap
	b.Status = next
	if u != nil {
		if u.FacilityID != nil {
			b.FacilityID = *u.FacilityID
		}
		if u.EventDateStart != nil {
			b.EventDateStart = *u.EventDateStart
		}
		if u.EventDateEnd != nil {
			b.EventDateEnd = *u.EventDateEnd
		}
		if u.EventTimeStart != nil {
			b.EventWindow.Start = *u.EventTimeStart
		}
		if u.EventTimeEnd != nil {
			b.EventWindow.End = *u.EventTimeEnd
		}
	}
	return &b
}
