package cronexpr

import "testing"

func TestValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want bool
	}{
		{"*/5 * * * *", true},
		{"0 2 * * 1-5", true},
		{"0 0 1 1 *", true},
		{"1-31/7 * * * *", true},
		{"0 0 1 * mon", true},
		{"@reboot", true},
		{"@yearly", true},
		{"@annually", true},
		{"@monthly", true},
		{"@weekly", true},
		{"@daily", true},
		{"@midnight", true},
		{"@hourly", true},
		{"", false},
		{"   ", false},
		{"not a schedule", false},
		{"@bogus", false},
		{"@Daily", false},
		{"@daily ", false},
		{"@every 5m", false},
		{"*/0 * * * *", false},
		{"5-2 * * * *", false},
		{"0 0 * * * *", false},
		{"* * * *", false},
		{"30 0 31 2 *", true},
	}

	for _, tc := range tests {
		if got := Valid(tc.expr); got != tc.want {
			t.Fatalf("Valid(%q) = %v, want %v", tc.expr, got, tc.want)
		}
	}
}
