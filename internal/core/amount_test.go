package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  bool
	}{
		{"12", "12", false},
		{"12.34", "12.34", false},
		{"12,5", "12.5", false},
		{" 0.01 ", "0.01", false},
		{".5", "0.5", false},
		{"7.", "7", false},
		{"1000000", "1000000", false},
		{"", "", true},
		{"0", "", true},
		{"0,00", "", true},
		{"-1", "", true},
		{"+1", "", true},
		{"1.2.3", "", true},
		{"1e3", "", true},
		{"abc", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if tc.err {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("expected ErrInvalidAmount, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tc.want {
				t.Fatalf("got %s, want %s", got.String(), tc.want)
			}
		})
	}
}

func TestCategoryColor(t *testing.T) {
	if got := CategoryColor(Expense, "Alimentation"); got != "#ef4444" {
		t.Fatalf("unexpected color %s", got)
	}
	if got := CategoryColor(Income, "Salaire"); got != "#10b981" {
		t.Fatalf("unexpected color %s", got)
	}
	if got := CategoryColor(Expense, "Salaire"); got != DefaultCategoryColor {
		t.Fatalf("income name in expense catalog should fall back, got %s", got)
	}
	if got := CategoryColor(Expense, "Crypto"); got != DefaultCategoryColor {
		t.Fatalf("unknown category should fall back, got %s", got)
	}
	if _, ok := LookupCategory(Income, "Autres"); !ok {
		t.Fatalf("expected income Autres to exist")
	}
}
