package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 1, true},
		{"250", 250, true},
		{"12,000", 12000, true},
		{"12.000", 12000, true},
		{" 12 000 ", 12000, true},
		{"1_000_000", 1000000, true},
		{"-1", 0, false},
		{"+5", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{",", 0, false},
		{"12.5", 0, false},
		{"9.99", 0, false},
		{"1,5", 0, false},
		{"1,0000", 0, false},
		{"1234,567", 0, false},
		{"1,234.567", 0, false},
		{"12,", 0, false},
		{",123", 0, false},
		{"1,234,567", 1234567, true},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFormat(t *testing.T) {
	cases := map[int64]string{
		0:        "0",
		999:      "999",
		1000:     "1,000",
		12345:    "12,345",
		-12345:   "-12,345",
		1000000:  "1,000,000",
		-100:     "-100",
		12345678: "12,345,678",
	}
	for in, want := range cases {
		if got := (Money{Units: in}).Format(); got != want {
			t.Errorf("Format(%d) = %q, want %q", in, got, want)
		}
	}
}
