package wire

import (
	"math"
	"testing"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{
			name: "plain integer",
			text: "3",
			want: 3,
		},
		{
			name: "plain decimal",
			text: "10.5",
			want: 10.5,
		},
		{
			name: "negative decimal",
			text: "-10.505",
			want: -10.505,
		},
		{
			name: "surrounding whitespace",
			text: "  3.25 ",
			want: 3.25,
		},
		{
			name: "space separated minutes",
			text: "-10 30.3",
			want: -10.505,
		},
		{
			name: "colon separated seconds",
			text: "-10:30:18",
			want: -10.505,
		},
		{
			name: "mixed separators",
			text: "-10 30:18",
			want: -10.505,
		},
		{
			name: "positive minutes",
			text: "1 30",
			want: 1.5,
		},
		{
			name: "negative zero whole part",
			text: "-0 30",
			want: -0.5,
		},
		{
			name: "hours minutes seconds",
			text: "89:59:59.9",
			want: 89.0 + 59.0/60.0 + 59.9/3600.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNumber(tt.text)
			if err != nil {
				t.Fatalf("ParseNumber(%q) failed: %v", tt.text, err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestParseNumberErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "whitespace only", text: "   "},
		{name: "not a number", text: "abc"},
		{name: "bad component", text: "1:x"},
		{name: "empty component", text: "10::30"},
		{name: "trailing separator", text: "1:2:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, err := ParseNumber(tt.text); err == nil {
				t.Errorf("ParseNumber(%q) = %v, want error", tt.text, got)
			}
		})
	}
}

func TestParseNumberNegativeZeroSign(t *testing.T) {
	// The whole part "-0" contributes no magnitude but its sign must
	// still apply to the remaining components.
	got, err := ParseNumber("-0:0:36")
	if err != nil {
		t.Fatalf("ParseNumber failed: %v", err)
	}
	want := -0.01
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("ParseNumber(\"-0:0:36\") = %v, want %v", got, want)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  string
	}{
		{
			name:  "integer",
			value: 3,
			want:  "3",
		},
		{
			name:  "fraction",
			value: 10.5,
			want:  "10.5",
		},
		{
			name:  "negative",
			value: -10.505,
			want:  "-10.505",
		},
		{
			name:  "small value stays decimal",
			value: 0.00001,
			want:  "0.00001",
		},
		{
			name:  "large value stays decimal",
			value: 1e21,
			want:  "1000000000000000000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatNumber(tt.value); got != tt.want {
				t.Errorf("FormatNumber(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	values := []float64{0, 1, -1, 3.14159265358979, -10.505, 86400, 0.000244140625}

	for _, v := range values {
		got, err := ParseNumber(FormatNumber(v))
		if err != nil {
			t.Fatalf("ParseNumber(FormatNumber(%v)) failed: %v", v, err)
		}
		if got != v {
			t.Errorf("round trip of %v = %v", v, got)
		}
	}
}
