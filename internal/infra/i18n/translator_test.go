//go:build !integration

package i18n

import "testing"

func TestTranslator(t *testing.T) {
	tr, err := NewTranslator(LocalesFS, "rw")
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	if got := tr.T("insufficient_funds"); got != "Ntamafranga ufite ahagije. Ongera amafranga wishyure!" {
		t.Errorf("insufficient_funds = %q", got)
	}
	// unknown keys echo back instead of failing
	if got := tr.T("no_such_key"); got != "no_such_key" {
		t.Errorf("missing key = %q", got)
	}
}

func TestTranslator_English(t *testing.T) {
	tr, err := NewTranslator(LocalesFS, "en")
	if err != nil {
		t.Fatalf("NewTranslator: %v", err)
	}
	if got := tr.T("payment_failed"); got != "Payment failed. Please try again." {
		t.Errorf("payment_failed = %q", got)
	}
}

func TestTranslator_MissingLocale(t *testing.T) {
	if _, err := NewTranslator(LocalesFS, "fr"); err == nil {
		t.Error("expected error for missing locale file")
	}
}

func TestBalanceRelated(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"Transaction failed. Check users Balance", true},
		{"INSUFFICIENT FUNDS", true},
		{"low balance on wallet", true},
		{"subscriber not found", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := BalanceRelated(tc.msg); got != tc.want {
			t.Errorf("BalanceRelated(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}
