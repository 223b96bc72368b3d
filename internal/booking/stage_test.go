package booking

import (
	"errors"
	"testing"

	"facilitybooking/internal/account"
)

func TestResolveTransition_ApprovalChain(t *testing.T) {
	steps := []struct {
		from     Stage
		role     account.Role
		next     Stage
		stage    string
		decision string
	}{
		{StagePending, account.RolePresident, StagePresidentReviewed, "President Initial Review", "Approved for Billing"},
		{StagePresidentReviewed, account.RoleProjectManager, StageBillingGenerated, "Billing Generation", "Billing Sent to President"},
		{StageBillingGenerated, account.RolePresident, StageBillingSigned, "Billing Signature", "Signed Billing"},
		{StageBillingSigned, account.RoleProjectManager, StageApproved, "Final Approval", "Payment Confirmed & Approved"},
	}

	for _, s := range steps {
		rule, err := ResolveTransition(s.from, s.role, ActionApprove)
		if err != nil {
			t.Fatalf("%s/%s: unexpected error %v", s.from, s.role, err)
		}
		if rule.Next != s.next {
			t.Fatalf("%s/%s: next = %s, want %s", s.from, s.role, rule.Next, s.next)
		}
		if rule.StageLabel != s.stage {
			t.Fatalf("%s/%s: stage label = %q, want %q", s.from, s.role, rule.StageLabel, s.stage)
		}
		if rule.Decision != s.decision {
			t.Fatalf("%s/%s: decision = %q, want %q", s.from, s.role, rule.Decision, s.decision)
		}
	}
}

func TestResolveTransition_WrongRoleApprove(t *testing.T) {
	cases := []struct {
		from Stage
		role account.Role
	}{
		{StagePending, account.RoleProjectManager},
		{StagePending, account.RoleClient},
		{StagePresidentReviewed, account.RolePresident},
		{StagePresidentReviewed, account.RoleClient},
		{StageBillingGenerated, account.RoleProjectManager},
		{StageBillingSigned, account.RolePresident},
		{StageBillingSigned, account.RoleClient},
	}

	for _, c := range cases {
		if _, err := ResolveTransition(c.from, c.role, ActionApprove); !errors.Is(err, ErrUnauthorizedTransition) {
			t.Fatalf("%s/%s: err = %v, want ErrUnauthorizedTransition", c.from, c.role, err)
		}
	}
}

func TestResolveTransition_RejectFromAnyActiveStage(t *testing.T) {
	for _, from := range []Stage{StagePending, StagePresidentReviewed, StageBillingGenerated, StageBillingSigned} {
		for _, role := range []account.Role{account.RolePresident, account.RoleProjectManager} {
			rule, err := ResolveTransition(from, role, ActionReject)
			if err != nil {
				t.Fatalf("%s/%s reject: unexpected error %v", from, role, err)
			}
			if rule.Next != StageRejected {
				t.Fatalf("%s/%s reject: next = %s, want Rejected", from, role, rule.Next)
			}
			if rule.Decision != "Rejected" {
				t.Fatalf("%s/%s reject: decision = %q", from, role, rule.Decision)
			}
			if rule.StageLabel != reviewStageLabels[from] {
				t.Fatalf("%s/%s reject: stage label = %q, want %q", from, role, rule.StageLabel, reviewStageLabels[from])
			}
		}
	}

	if _, err := ResolveTransition(StagePending, account.RoleClient, ActionReject); !errors.Is(err, ErrUnauthorizedTransition) {
		t.Fatalf("client reject: err = %v, want ErrUnauthorizedTransition", err)
	}
}

func TestResolveTransition_TerminalStagesAbsorb(t *testing.T) {
	for _, from := range []Stage{StageApproved, StageRejected, StageCancelled} {
		for _, role := range []account.Role{account.RolePresident, account.RoleProjectManager, account.RoleClient} {
			for _, action := range []Action{ActionApprove, ActionReject} {
				if _, err := ResolveTransition(from, role, action); !errors.Is(err, ErrUnauthorizedTransition) {
					t.Fatalf("%s/%s/%s: err = %v, want ErrUnauthorizedTransition", from, role, action, err)
				}
			}
		}
	}
}

func TestParseAction(t *testing.T) {
	if a, err := ParseAction(" Approve "); err != nil || a != ActionApprove {
		t.Fatalf("got %q, %v", a, err)
	}
	if a, err := ParseAction("REJECT"); err != nil || a != ActionReject {
		t.Fatalf("got %q, %v", a, err)
	}
	if _, err := ParseAction("escalate"); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("err = %v, want ErrInvalidAction", err)
	}
}

func TestParseStage_RejectsUnknown(t *testing.T) {
	if _, err := ParseStage("Reviewing"); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}
