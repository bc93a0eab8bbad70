package services

import (
	"strings"
	"testing"
	"time"

	"tracker/internal/core"
)

func recurring(id string, date core.Date, freq core.Frequency, interval int) core.Transaction {
	return core.Transaction{
		ID:          id,
		Type:        core.Expense,
		Amount:      core.MustParseAmount("10"),
		Currency:    "€",
		Date:        date.Time.Add(15 * time.Hour),
		IsRecurring: true,
		Recurrence:  &core.RecurrenceRule{Frequency: freq, Interval: interval},
	}
}

func oneOff(id string, date core.Date) core.Transaction {
	return core.Transaction{
		ID:       id,
		Type:     core.Expense,
		Amount:   core.MustParseAmount("10"),
		Currency: "€",
		Date:     date.Time.Add(9 * time.Hour),
	}
}

func TestBuildNotificationsOneOffToday(t *testing.T) {
	today := core.NewDate(2024, 6, 10)
	txn := oneOff("t1", today)
	txn.MerchantName = "Dentist"
	txn.Amount = core.MustParseAmount("80.5")

	got := BuildNotifications([]core.Transaction{txn}, 3, today)
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	n := got[0]
	if !strings.Contains(n.Message, "today") {
		t.Errorf("message %q does not mention today", n.Message)
	}
	if n.Message != "One-off payment today: Dentist €80.50" {
		t.Errorf("message = %q", n.Message)
	}
	if n.ID != "t1-2024-06-10" {
		t.Errorf("id = %q", n.ID)
	}
	if n.Time != "10/06/2024" {
		t.Errorf("time = %q", n.Time)
	}
}

func TestBuildNotificationsMessages(t *testing.T) {
	today := core.NewDate(2024, 6, 10)

	salary := recurring("s", core.NewDate(2024, 5, 11), core.Monthly, 1)
	salary.Type = core.Income
	salary.Description = "Salary"
	salary.Currency = "$"
	salary.Amount = core.MustParseAmount("2500")

	rent := recurring("r", core.NewDate(2024, 1, 12), core.Monthly, 1)
	rent.Currency = ""

	refund := oneOff("f", core.NewDate(2024, 6, 13))
	refund.Type = core.Income
	refund.MerchantName = "Shop"

	got := BuildNotifications([]core.Transaction{refund, rent, salary}, 3, today)
	want := []string{
		"Upcoming income tomorrow: Salary $2500.00",
		"Upcoming payment in 2 days: Transaction €10.00",
		"One-off income in 3 days: Shop €10.00",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d notifications, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Message != want[i] {
			t.Errorf("[%d] message = %q, want %q", i, got[i].Message, want[i])
		}
	}
}

func TestBuildNotificationsWindow(t *testing.T) {
	today := core.NewDate(2024, 6, 10)
	end := core.NewDate(2024, 5, 1)

	ended := recurring("ended", core.NewDate(2024, 1, 1), core.Monthly, 1)
	ended.Recurrence.EndDate = &end

	endsOnDue := recurring("ends-on-due", core.NewDate(2024, 5, 11), core.Monthly, 1)
	dueEnd := core.NewDate(2024, 6, 11)
	endsOnDue.Recurrence.EndDate = &dueEnd

	tests := []struct {
		name    string
		txn     core.Transaction
		days    int
		wantIDs []string
	}{
		{"past end date", ended, 60, nil},
		{"end date equal to occurrence", endsOnDue, 3, []string{"ends-on-due-2024-06-11"}},
		{"beyond lookahead", recurring("far", core.NewDate(2024, 5, 20), core.Monthly, 1), 3, nil},
		{"on lookahead boundary", recurring("edge", core.NewDate(2024, 5, 13), core.Monthly, 1), 3, []string{"edge-2024-06-13"}},
		{"zero lookahead", recurring("zero", core.NewDate(2024, 6, 3), core.Weekly, 1), 0, []string{"zero-2024-06-10"}},
		{"one-off in the past", oneOff("past", core.NewDate(2024, 6, 9)), 3, nil},
		{"one-off after window", oneOff("late", core.NewDate(2024, 6, 14)), 3, nil},
		{"future anchor inside window", recurring("new", core.NewDate(2024, 6, 12), core.Yearly, 1), 3, []string{"new-2024-06-12"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildNotifications([]core.Transaction{tt.txn}, tt.days, today)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d notifications, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("id = %q, want %q", got[i].ID, id)
				}
			}
		})
	}
}

// Scenario: an end date of 2024-05-01 with a computed next occurrence of
// 2024-06-01 excludes the transaction entirely.
func TestBuildNotificationsEndDateExcludes(t *testing.T) {
	today := core.NewDate(2024, 5, 30)
	end := core.NewDate(2024, 5, 1)
	txn := recurring("gym", core.NewDate(2024, 1, 1), core.Monthly, 1)
	txn.Recurrence.EndDate = &end

	if next, _ := NextOccurrence(txn.Anchor(), core.Monthly, 1, today); next.ISO() != "2024-06-01" {
		t.Fatalf("precondition: next occurrence = %s", next.ISO())
	}
	if got := BuildNotifications([]core.Transaction{txn}, 5, today); len(got) != 0 {
		t.Fatalf("expected no notifications, got %+v", got)
	}
}

func TestScanNotificationsSkipsMalformed(t *testing.T) {
	today := core.NewDate(2024, 6, 10)

	noRule := recurring("no-rule", today, core.Daily, 1)
	noRule.Recurrence = nil
	emptyFreq := recurring("empty", today, "", 1)
	zero := recurring("zero", today, core.Daily, 0)
	unknown := recurring("unknown", today, "hourly", 1)
	good := recurring("good", today, core.Daily, 1)

	scan := ScanNotifications([]core.Transaction{noRule, emptyFreq, zero, unknown, good}, 3, today)
	if scan.Skipped != 4 {
		t.Errorf("Skipped = %d, want 4", scan.Skipped)
	}
	if len(scan.Notifications) != 1 || scan.Notifications[0].TransactionID != "good" {
		t.Errorf("unexpected notifications %+v", scan.Notifications)
	}
}

func TestBuildNotificationsOrdering(t *testing.T) {
	today := core.NewDate(2024, 6, 10)
	txns := []core.Transaction{
		oneOff("c", core.NewDate(2024, 6, 12)),
		oneOff("b", core.NewDate(2024, 6, 11)),
		recurring("a", core.NewDate(2024, 5, 12), core.Monthly, 1),
		oneOff("d", core.NewDate(2024, 6, 10)),
	}
	got := BuildNotifications(txns, 5, today)
	var ids []string
	for _, n := range got {
		ids = append(ids, n.TransactionID)
	}
	if strings.Join(ids, ",") != "d,b,a,c" {
		t.Errorf("order = %v, want [d b a c]", ids)
	}
}

func TestBuildNotificationsCenturiesOldAnchor(t *testing.T) {
	today := core.NewDate(2024, 6, 20)
	rent := recurring("rent", core.NewDate(1700, 1, 1), core.Daily, 1)
	rent.MerchantName = "Rent"

	got := BuildNotifications([]core.Transaction{rent}, 3, today)
	if len(got) != 1 {
		t.Fatalf("got %d notifications, want 1", len(got))
	}
	if got[0].ID != "rent-2024-06-20" {
		t.Errorf("ID = %q, want rent-2024-06-20", got[0].ID)
	}
	if got[0].Message != "Upcoming payment today: Rent €10.00" {
		t.Errorf("Message = %q", got[0].Message)
	}
}

func TestValidateLookahead(t *testing.T) {
	for _, d := range []int{0, 3, 60} {
		if err := ValidateLookahead(d, 0); err != nil {
			t.Errorf("ValidateLookahead(%d) = %v", d, err)
		}
	}
	for _, d := range []int{-1, 61} {
		if err := ValidateLookahead(d, 0); err == nil {
			t.Errorf("ValidateLookahead(%d) expected error", d)
		}
	}
	if err := ValidateLookahead(20, 14); err == nil {
		t.Error("expected configured maximum to apply")
	}
}
