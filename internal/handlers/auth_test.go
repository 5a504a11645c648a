package handlers

import "testing"

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		valid    bool
	}{
		{"Sup3rsecret", true},
		{"Aa1aaaaa", true},
		{"short1A", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoDigitsAtAll", false},
		{"", false},
	}
	for _, tc := range cases {
		msg := validatePassword(tc.password)
		if tc.valid && msg != "" {
			t.Errorf("%q: expected valid, got %q", tc.password, msg)
		}
		if !tc.valid && msg == "" {
			t.Errorf("%q: expected rejection", tc.password)
		}
	}
}
