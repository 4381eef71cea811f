package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, status := range OrderStatuses() {
		got, err := ParseOrderStatus(string(status))
		if err != nil || got != status {
			t.Fatalf("ParseOrderStatus(%q) = %q, %v", status, got, err)
		}
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestParseRoleIsCaseInsensitive(t *testing.T) {
	got, err := ParseRole(" Staff ")
	if err != nil || got != RoleStaff {
		t.Fatalf("ParseRole = %q, %v", got, err)
	}
	if Role("admin").IsValid() {
		t.Fatal("admin should not be a valid role")
	}
}

func TestOutboxEnums(t *testing.T) {
	if !EventOrderFlagged.IsValid() || OutboxEventType("media_uploaded").IsValid() {
		t.Fatal("unexpected event type validity")
	}
	if _, err := ParseOutboxAggregateType("order"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseSpinnerRewardType("CASHBACK"); err == nil {
		t.Fatal("expected unknown reward type to fail")
	}
	if !LoyaltyEventEarned.IsValid() {
		t.Fatal("earned should be valid")
	}
}
