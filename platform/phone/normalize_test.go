package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in, region, want string
	}{
		{"(650) 253-0000", "US", "+16502530000"},
		{"+31 6 12345678", "US", "+31612345678"},
		{"06 12345678", "NL", "+31612345678"},
		{"not a number", "US", "not a number"},
		{"   ", "US", ""},
	}

	for _, tc := range cases {
		if got := NormalizeE164In(tc.in, tc.region); got != tc.want {
			t.Fatalf("NormalizeE164In(%q, %q) = %q, want %q", tc.in, tc.region, got, tc.want)
		}
	}
}
