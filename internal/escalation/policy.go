package escalation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"facilitybooking/internal/account"
	"facilitybooking/internal/booking"
	"facilitybooking/internal/notify"
	"facilitybooking/internal/schedule"
)

// priorityMarkers and protectedMarkers are substring matches against role
// display names, mirroring how the institution labels its roles ("College
// Dean", "Student Council"). Whether roles should instead carry an explicit
// priority flag is an open modelling question; the substring rule is the
// behavior being reproduced.
var priorityMarkers = []string{"dean", "council"}

var protectedMarkers = []string{"admin", "manager", "president", "dean", "council"}

// IsPriorityRole reports whether a requester's bookings escalate over
// ordinary clients.
func IsPriorityRole(name string) bool {
	return containsAny(name, priorityMarkers)
}

// IsProtectedRole reports whether a requester is exempt from being the
// victim of an escalation alert.
func IsProtectedRole(name string) bool {
	return containsAny(name, protectedMarkers)
}

func containsAny(name string, markers []string) bool {
	lower := strings.ToLower(name)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// OverlapFinder is the conflict query the policy runs after creation.
type OverlapFinder interface {
	FindOverlaps(ctx context.Context, facilityID, excludeBookingID string, cand schedule.Candidate) ([]schedule.Hit, error)
}

// Policy raises a human-actionable alert when a priority requester books
// over an ordinary one. It never cancels, rejects, or otherwise mutates the
// conflicting booking, and it caps at one escalation per creation.
type Policy struct {
	detector OverlapFinder
	notifier booking.Notifier
	log      *zap.Logger
}

func NewPolicy(detector OverlapFinder, notifier booking.Notifier, log *zap.Logger) *Policy {
	return &Policy{detector: detector, notifier: notifier, log: log}
}

// AfterCreate runs once, immediately after the booking is persisted. Fire
// and forget: failures are logged, never propagated.
func (p *Policy) AfterCreate(ctx context.Context, b *booking.Booking, requesterRoleName string) {
	if !IsPriorityRole(requesterRoleName) {
		return
	}

	hits, err := p.detector.FindOverlaps(ctx, b.FacilityID, b.ID, b.Candidate())
	if err != nil {
		p.log.Warn("escalation overlap check failed",
			zap.String("booking_id", b.ID),
			zap.Error(err),
		)
		return
	}

	for _, h := range hits {
		if IsProtectedRole(h.RequesterRole) {
			continue
		}
		msg := fmt.Sprintf(
			"PRIORITY ALERT: Priority Booking #%s (by %s) has been booked over Client Booking #%s. Please reschedule the client.",
			b.ID, requesterRoleName, h.BookingID,
		)
		p.notifier.Broadcast(ctx, account.RoleProjectManager, msg, notify.CategoryPriority)
		p.notifier.Broadcast(ctx, account.RolePresident, msg, notify.CategoryPriority)
		return
	}
}
