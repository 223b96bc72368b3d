package booking

import (
	"fmt"
	"strings"

	"facilitybooking/internal/account"
)

// Stage is the booking's position in the approval chain. A booking starts in
// Pending and moves strictly forward, or exits sideways into Rejected or
// Cancelled. Approved, Rejected and Cancelled are terminal.
type Stage string

const (
	StagePending           Stage = "Pending"
	StagePresidentReviewed Stage = "PresidentReviewed"
	StageBillingGenerated  Stage = "BillingGenerated"
	StageBillingSigned     Stage = "BillingSigned"
	StageApproved          Stage = "Approved"
	StageRejected          Stage = "Rejected"
	StageCancelled         Stage = "Cancelled"
)

func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StagePending, StagePresidentReviewed, StageBillingGenerated,
		StageBillingSigned, StageApproved, StageRejected, StageCancelled:
		return Stage(s), nil
	default:
		return "", fmt.Errorf("unknown stage: %s", s)
	}
}

func (s Stage) Terminal() bool {
	switch s {
	case StageApproved, StageRejected, StageCancelled:
		return true
	}
	return false
}

// Human is the presentation form used in notification text. Display only,
// never compared for control flow.
func (s Stage) Human() string {
	switch s {
	case StagePending:
		return "submitted"
	case StagePresidentReviewed:
		return "reviewed by the President"
	case StageBillingGenerated:
		return "billed"
	case StageBillingSigned:
		return "billing-signed by the President"
	case StageApproved:
		return "approved"
	case StageRejected:
		return "rejected"
	case StageCancelled:
		return "cancelled"
	}
	return string(s)
}

// Action is what the actor asks the state machine to do.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionApprove:
		return ActionApprove, nil
	case ActionReject:
		return ActionReject, nil
	default:
		return "", ErrInvalidAction
	}
}

// Rule is one resolved transition: the target stage plus the labels captured
// on the approval record for this step.
type Rule struct {
	Next       Stage
	StageLabel string
	Decision   string
}

type stageRole struct {
	from Stage
	role account.Role
}

// reviewStageLabels names the review step each non-terminal stage is waiting
// on. Reject records reuse the label of the step the booking was in.
var reviewStageLabels = map[Stage]string{
	StagePending:           "President Initial Review",
	StagePresidentReviewed: "Billing Generation",
	StageBillingGenerated:  "Billing Signature",
	StageBillingSigned:     "Final Approval",
}

var approveRules = map[stageRole]Rule{
	{StagePending, account.RolePresident}:                {StagePresidentReviewed, "President Initial Review", "Approved for Billing"},
	{StagePresidentReviewed, account.RoleProjectManager}: {StageBillingGenerated, "Billing Generation", "Billing Sent to President"},
	{StageBillingGenerated, account.RolePresident}:       {StageBillingSigned, "Billing Signature", "Signed Billing"},
	{StageBillingSigned, account.RoleProjectManager}:     {StageApproved, "Final Approval", "Payment Confirmed & Approved"},
}

// ResolveTransition validates (stage, role, action) against the gating table
// and returns the resolved rule. Every pairing not in the table fails with
// ErrUnauthorizedTransition; terminal stages are absorbing.
func ResolveTransition(from Stage, role account.Role, action Action) (Rule, error) {
	if from.Terminal() {
		return Rule{}, ErrUnauthorizedTransition
	}
	switch action {
	case ActionApprove:
		rule, ok := approveRules[stageRole{from, role}]
		if !ok {
			return Rule{}, ErrUnauthorizedTransition
		}
		return rule, nil
	case ActionReject:
		if role != account.RolePresident && role != account.RoleProjectManager {
			return Rule{}, ErrUnauthorizedTransition
		}
		return Rule{Next: StageRejected, StageLabel: reviewStageLabels[from], Decision: "Rejected"}, nil
	default:
		return Rule{}, ErrInvalidAction
	}
}
