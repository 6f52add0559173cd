package increment

import (
	"fmt"
	"strconv"
	"testing"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "1"},
		{"1", "2"},
		{"9", "10"},
		{"99", "100"},
		{"0099", "0100"},
		{"00999", "01000"},
		{"000", "001"},
		{"12345", "12346"},
		{"999999999999999999999999", "1000000000000000000000000"}, // beyond int64
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Number(tt.in)
			if err != nil {
				t.Fatalf("Number(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Number(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNumber_MatchesIntegerArithmetic(t *testing.T) {
	// For every small value, the successor must equal parse+1 and keep the
	// max of the input width and the minimal width of the result.
	for n := 0; n < 2000; n++ {
		for _, width := range []int{1, 4} {
			in := fmt.Sprintf("%0*d", width, n)
			got, err := Number(in)
			if err != nil {
				t.Fatalf("Number(%q) failed: %v", in, err)
			}
			parsed, err := strconv.Atoi(got)
			if err != nil {
				t.Fatalf("Number(%q) produced non-numeric %q", in, got)
			}
			if parsed != n+1 {
				t.Fatalf("Number(%q) = %q, want value %d", in, got, n+1)
			}
			wantWidth := len(in)
			if minimal := len(strconv.Itoa(n + 1)); minimal > wantWidth {
				wantWidth = minimal
			}
			if len(got) != wantWidth {
				t.Fatalf("Number(%q) = %q, want width %d", in, got, wantWidth)
			}
		}
	}
}

func TestNumber_Invalid(t *testing.T) {
	for _, in := range []string{"", "12a", "-1", " 1", "1.0", "AB"} {
		if _, err := Number(in); err == nil {
			t.Errorf("Number(%q) should fail", in)
		}
	}
}

func TestLetter(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"A", "B"},
		{"Y", "Z"},
		{"Z", "AA"},
		{"AA", "AB"},
		{"AZ", "BA"},
		{"ZY", "ZZ"},
		{"ZZ", "AAA"},
		{"AZZ", "BAA"},
		{"ZZZ", "AAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Letter(tt.in)
			if err != nil {
				t.Fatalf("Letter(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Letter(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLetter_Invalid(t *testing.T) {
	for _, in := range []string{"", "a", "A1", "Ab", "A Z", "Ä"} {
		if _, err := Letter(in); err == nil {
			t.Errorf("Letter(%q) should fail", in)
		}
	}
}

func TestLetter_SuccessorIsStrictlyGreater(t *testing.T) {
	v := "A"
	for i := 0; i < 200; i++ {
		next, err := Letter(v)
		if err != nil {
			t.Fatalf("Letter(%q) failed: %v", v, err)
		}
		if Compare(next, v, KindLetter) != 1 {
			t.Fatalf("successor %q does not compare greater than %q", next, v)
		}
		v = next
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		kind Kind
		want int
	}{
		{"1", "2", KindNumber, -1},
		{"0100", "99", KindNumber, 1},
		{"0050", "50", KindNumber, 0},
		{"100", "0099", KindNumber, 1},
		{"000", "0", KindNumber, 0},
		{"A", "B", KindLetter, -1},
		{"Z", "AA", KindLetter, -1}, // length beats lexicographic order
		{"AA", "Z", KindLetter, 1},
		{"AB", "AB", KindLetter, 0},
		{"BA", "AZ", KindLetter, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s_%s", tt.kind, tt.a, tt.b), func(t *testing.T) {
			if got := Compare(tt.a, tt.b, tt.kind); got != tt.want {
				t.Errorf("Compare(%q, %q, %s) = %d, want %d", tt.a, tt.b, tt.kind, got, tt.want)
			}
		})
	}
}

func TestValidValue(t *testing.T) {
	if !ValidValue("0099", KindNumber) || ValidValue("A", KindNumber) {
		t.Error("number validation mismatch")
	}
	if !ValidValue("AZ", KindLetter) || ValidValue("a", KindLetter) {
		t.Error("letter validation mismatch")
	}
	if ValidValue("1", Kind("roman")) {
		t.Error("unknown kind must not validate")
	}
}
