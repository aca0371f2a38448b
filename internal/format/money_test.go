package format

import "testing"

func TestParseMoneyOrDefault(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1.234,56", 1234.56},
		{"R$ 1.234,56", 1234.56},
		{"  300.000,00 ", 300000},
		{"0,00", 0},
		{"15", 15},
		{"-10,5", -10.5},
		{"1.000.000", 1000000},
	}
	for _, tc := range cases {
		if got := ParseMoneyOrDefault(tc.in, -1); got != tc.want {
			t.Errorf("ParseMoneyOrDefault(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseMoneyOrDefault_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "R$", "12,3,4", "NaN", "Inf"} {
		if got := ParseMoneyOrDefault(in, 0); got != 0 {
			t.Errorf("ParseMoneyOrDefault(%q) = %v, want default 0", in, got)
		}
	}
	if got := ParseMoneyOrDefault("x", 7.5); got != 7.5 {
		t.Errorf("custom default not returned, got %v", got)
	}
}

func TestCurrency(t *testing.T) {
	cases := map[float64]string{
		0:          "R$ 0,00",
		1:          "R$ 1,00",
		999.5:      "R$ 999,50",
		1234.56:    "R$ 1.234,56",
		1000000:    "R$ 1.000.000,00",
		-2500.1:    "R$ -2.500,10",
		5000000.75: "R$ 5.000.000,75",
	}
	for in, want := range cases {
		if got := Currency(in); got != want {
			t.Errorf("Currency(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestPercent(t *testing.T) {
	cases := map[float64]string{
		0:      "0,00%",
		30:     "30,00%",
		65.456: "65,46%",
		-35:    "-35,00%",
	}
	for in, want := range cases {
		if got := Percent(in); got != want {
			t.Errorf("Percent(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestMillions(t *testing.T) {
	if got := Millions(5000000); got != "R$ 5,00" {
		t.Errorf("Millions(5e6) = %q", got)
	}
	if got := Millions(1234567890); got != "R$ 1.234,57" {
		t.Errorf("Millions(1234567890) = %q", got)
	}
	if got := Millions(0); got != "R$ 0,00" {
		t.Errorf("Millions(0) = %q", got)
	}
}
