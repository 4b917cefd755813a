package service

import "testing"

func TestTruncate2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{100.0, 100.0},
		{8.2500, 8.25},
		{8.259, 8.25},
		{8.251, 8.25},
		{-3.019, -3.01},
		{0.004, 0.0},
		{108.25000000000001, 108.25},
	}
	for _, tc := range cases {
		if got := truncate2(tc.in); got != tc.want {
			t.Errorf("truncate2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMoneyOpsStayTruncated(t *testing.T) {
	// Repeated adds of a value with no exact float representation must not
	// accumulate drift.
	total := 0.0
	for i := 0; i < 100; i++ {
		total = addMoney(total, 0.10)
	}
	if total != 10.0 {
		t.Errorf("100 adds of 0.10 = %v, want 10.0", total)
	}
	for i := 0; i < 100; i++ {
		total = subMoney(total, 0.10)
	}
	if total != 0.0 {
		t.Errorf("after symmetric subtracts total = %v, want 0.0", total)
	}
}
