package ingest

import "testing"

func TestParseAmountINR(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"Rs. 5,00,000/-", 500000},
		{"₹ 2.5 lakh", 250000},
		{"1.2 crore", 12000000},
		{"EMD: 25000", 25000},
		{"Rs 10 Lac only", 1000000},
		{"2 Cr. approx", 20000000},
		{"", 0},
		{"Nil", 0},
		{"As per tender document", 0},
	}
	for _, tc := range cases {
		got := parseAmountINR(tc.in)
		if got != tc.want {
			t.Errorf("parseAmountINR(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
