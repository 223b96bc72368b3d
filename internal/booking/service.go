package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"facilitybooking/internal/account"
	"facilitybooking/internal/notify"
	"facilitybooking/internal/schedule"
)

// CreateInput is the wire shape of a booking creation request. Dates are
// "2006-01-02", times "15:04"; fee fields are opaque decimal strings.
type CreateInput struct {
	Organization string `json:"organization"`
	Purpose      string `json:"purpose"`
	FacilityID   string `json:"facilityId"`

	EventDateStart string `json:"eventDateStart"`
	EventDateEnd   string `json:"eventDateEnd"`
	EventTimeStart string `json:"eventTimeStart"`
	EventTimeEnd   string `json:"eventTimeEnd"`

	ScheduleEntries []EntryInput `json:"scheduleEntries,omitempty"`

	SetupDateStart string `json:"setupDateStart,omitempty"`
	SetupDateEnd   string `json:"setupDateEnd,omitempty"`
	SetupTimeStart string `json:"setupTimeStart,omitempty"`
	SetupTimeEnd   string `json:"setupTimeEnd,omitempty"`

	FacilityFee  string `json:"facilityFee,omitempty"`
	EquipmentFee string `json:"equipmentFee,omitempty"`
}

type EntryInput struct {
	Date      string `json:"date"`
	TimeStart string `json:"timeStart"`
	TimeEnd   string `json:"timeEnd"`
}

// Creator is the slice of the store the service needs.
type Creator interface {
	CreateBooking(ctx context.Context, b *Booking) error
}

// AfterCreateHook runs once after a booking is persisted. Used for the
// priority escalation policy; fire and forget.
type AfterCreateHook interface {
	AfterCreate(ctx context.Context, b *Booking, requesterRoleName string)
}

// Service handles booking creation. Creation is deliberately not guarded by
// any overlap lock: two concurrent requests for the same slot both succeed,
// and conflicts surface afterwards through the escalation policy.
type Service struct {
	store       Creator
	notifier    Notifier
	afterCreate AfterCreateHook
}

func NewService(store Creator, notifier Notifier, afterCreate AfterCreateHook) *Service {
	return &Service{store: store, notifier: notifier, afterCreate: afterCreate}
}

func (s *Service) Create(ctx context.Context, actor account.Actor, in CreateInput) (*Booking, error) {
	b, err := decodeCreateInput(actor, in)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateBooking(ctx, b); err != nil {
		return nil, err
	}

	// Post-commit side effects only; a notification or escalation failure
	// must never unwind a persisted booking.
	msg := fmt.Sprintf("New booking request for %s.", b.Purpose)
	s.notifier.Broadcast(ctx, account.RoleProjectManager, msg, notify.CategoryBooking)
	s.notifier.Broadcast(ctx, account.RolePresident, msg, notify.CategoryBooking)

	if s.afterCreate != nil {
		s.afterCreate.AfterCreate(ctx, b, actor.RoleName)
	}
	return b, nil
}

func decodeCreateInput(actor account.Actor, in CreateInput) (*Booking, error) {
	dateStart, err := parseDate(in.EventDateStart)
	if err != nil {
		return nil, err
	}
	dateEnd, err := parseDate(in.EventDateEnd)
	if err != nil {
		return nil, err
	}
	if dateEnd.Before(dateStart) {
		return nil, ErrInvalidInterval
	}

	window, err := parseInputWindow(in.EventTimeStart, in.EventTimeEnd)
	if err != nil {
		return nil, err
	}

	multiDay := !schedule.SameDay(dateStart, dateEnd)
	if multiDay && len(in.ScheduleEntries) == 0 {
		return nil, ErrInvalidInterval
	}

	b := &Booking{
		ID:                 uuid.NewString(),
		RequesterAccountID: actor.AccountID,
		Organization:       in.Organization,
		Purpose:            in.Purpose,
		FacilityID:         in.FacilityID,
		EventDateStart:     dateStart,
		EventDateEnd:       dateEnd,
		EventWindow:        window,
		Status:             StagePending,
		RequestedAt:        time.Now().UTC(),
	}

	for _, e := range in.ScheduleEntries {
		date, err := parseDate(e.Date)
		if err != nil {
			return nil, err
		}
		w, err := parseInputWindow(e.TimeStart, e.TimeEnd)
		if err != nil {
			return nil, err
		}
		b.Entries = append(b.Entries, ScheduleEntry{
			ID:        uuid.NewString(),
			BookingID: b.ID,
			Date:      date,
			Window:    w,
		})
	}

	if in.SetupDateStart != "" || in.SetupDateEnd != "" || in.SetupTimeStart != "" || in.SetupTimeEnd != "" {
		setupStart, err := parseDate(in.SetupDateStart)
		if err != nil {
			return nil, err
		}
		setupEnd, err := parseDate(in.SetupDateEnd)
		if err != nil {
			return nil, err
		}
		w, err := parseInputWindow(in.SetupTimeStart, in.SetupTimeEnd)
		if err != nil {
			return nil, err
		}
		setup := &schedule.SetupWindow{DateStart: setupStart, DateEnd: setupEnd, Window: w}
		if !setup.Valid() {
			return nil, ErrInvalidInterval
		}
		b.Setup = setup
	}

	if b.FacilityFee, err = parseFee(in.FacilityFee); err != nil {
		return nil, err
	}
	if b.EquipmentFee, err = parseFee(in.EquipmentFee); err != nil {
		return nil, err
	}
	return b, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrInvalidInterval, s)
	}
	return t, nil
}

func parseInputWindow(start, end string) (schedule.Window, error) {
	ts, err := schedule.ParseClock(start)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("%w: %v", ErrInvalidInterval, err)
	}
	te, err := schedule.ParseClock(end)
	if err != nil {
		return schedule.Window{}, fmt.Errorf("%w: %v", ErrInvalidInterval, err)
	}
	w := schedule.Window{Start: ts, End: te}
	if !w.Valid() {
		return schedule.Window{}, ErrInvalidInterval
	}
	return w, nil
}

func parseFee(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid fee amount %q", s)
	}
	return d, nil
}
