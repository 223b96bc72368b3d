package notify

import (
	"context"

	"go.uber.org/zap"

	"facilitybooking/internal/account"
)

const (
	CategoryBooking    = "BOOKING"
	CategoryStatus     = "STATUS"
	CategoryReschedule = "RESCHEDULE"
	CategoryRelocation = "RELOCATION"
	CategoryPriority   = "PRIORITY"
)

// Sink is the delivery boundary. The core only produces the message tuples;
// storage and channel are someone else's problem.
type Sink interface {
	Emit(ctx context.Context, n Notification) error
}

// Directory resolves role-targeted broadcasts to account ids.
type Directory interface {
	ListIDsByRole(ctx context.Context, role account.Role) ([]string, error)
}

// Dispatcher fans messages out to the sink. Every failure is logged and
// swallowed: notification delivery must never fail or roll back the
// operation that produced it, so these methods return nothing.
type Dispatcher struct {
	sink      Sink
	directory Directory
	log       *zap.Logger
}

func NewDispatcher(sink Sink, directory Directory, log *zap.Logger) *Dispatcher {
	return &Dispatcher{sink: sink, directory: directory, log: log}
}

func (d *Dispatcher) Send(ctx context.Context, accountID, message, category string) {
	n := Notification{TargetAccountID: accountID, Message: message, Category: category, Status: StatusUnread}
	if err := d.sink.Emit(ctx, n); err != nil {
		d.log.Warn("notification delivery failed",
			zap.String("account_id", accountID),
			zap.String("category", category),
			zap.Error(err),
		)
	}
}

func (d *Dispatcher) Broadcast(ctx context.Context, role account.Role, message, category string) {
	ids, err := d.directory.ListIDsByRole(ctx, role)
	if err != nil {
		d.log.Warn("notification broadcast lookup failed",
			zap.String("role", string(role)),
			zap.String("category", category),
			zap.Error(err),
		)
		return
	}
	for _, id := range ids {
		d.Send(ctx, id, message, category)
	}
}
