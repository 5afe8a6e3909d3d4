package accounts

import "testing"

func TestScan_MaskNotations(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"Chase Checking ****1234", "1234"},
		{"Account ...5678", "5678"},
		{"xxxx9012 statement", "9012"},
		{"account ending in 4321", "4321"},
		{"Account 7777 summary", "7777"},
		{"no digits here", ""},
	}

	for _, tc := range tests {
		if got := Scan(tc.text).AccountMask; got != tc.expected {
			t.Errorf("Scan(%q).AccountMask = %q, want %q", tc.text, got, tc.expected)
		}
	}
}

func TestScan_FirstMaskPatternWins(t *testing.T) {
	// Both the star and "ending in" notations appear; the star pattern is
	// earlier in the table so it must win.
	got := Scan("card ****1111 ending in 2222").AccountMask
	if got != "1111" {
		t.Errorf("expected first pattern's mask 1111, got %q", got)
	}
}

func TestScan_Institution(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"CHASE BANK statement export", "Chase"},
		{"Bank of America - Business Checking", "Bank of America"},
		{"wells fargo everyday", "Wells Fargo"},
		{"AmEx Gold", "American Express"},
		{"Mercury IO", "Mercury"},
		{"Toast payout report", "Toast"},
		{"Some Local Credit Union", ""},
	}

	for _, tc := range tests {
		if got := Scan(tc.text).InstitutionName; got != tc.expected {
			t.Errorf("Scan(%q).InstitutionName = %q, want %q", tc.text, got, tc.expected)
		}
	}
}

func TestScan_AccountType(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"Business Checking ****1234", TypeChecking},
		{"High Yield Savings", TypeSavings},
		{"Visa Credit Card", TypeCreditCard},
		{"Money Market Account", TypeMoneyMarket},
		{"credit union checking", TypeChecking}, // checking rule precedes credit card
		{"unlabeled export", ""},
	}

	for _, tc := range tests {
		if got := Scan(tc.text).AccountType; got != tc.expected {
			t.Errorf("Scan(%q).AccountType = %q, want %q", tc.text, got, tc.expected)
		}
	}
}

func TestScan_FieldsIndependent(t *testing.T) {
	got := Scan("statement ****4242")
	if got.AccountMask != "4242" {
		t.Errorf("mask = %q, want 4242", got.AccountMask)
	}
	if got.InstitutionName != "" || got.AccountType != "" {
		t.Errorf("expected institution and type absent, got %+v", got)
	}
}

func TestScanFile_MaskFallsBackToFilename(t *testing.T) {
	lines := []string{"Period: Jan 2024", "Opening balance: 1000.00"}
	got := ScanFile(lines, "chase_checking_xx4242_jan.csv")

	if got.AccountMask != "4242" {
		t.Errorf("mask = %q, want 4242 from filename", got.AccountMask)
	}
	if got.InstitutionName != "Chase" {
		t.Errorf("institution = %q, want Chase from filename", got.InstitutionName)
	}
	if got.AccountType != TypeChecking {
		t.Errorf("type = %q, want checking from filename", got.AccountType)
	}
}

func TestScanFile_LinesPreferredOverFilename(t *testing.T) {
	lines := []string{"Wells Fargo Business Checking ****9876"}
	got := ScanFile(lines, "export_x1111.csv")

	if got.AccountMask != "9876" {
		t.Errorf("mask = %q, want the in-file mask 9876", got.AccountMask)
	}
	if got.InstitutionName != "Wells Fargo" {
		t.Errorf("institution = %q, want Wells Fargo", got.InstitutionName)
	}
}
