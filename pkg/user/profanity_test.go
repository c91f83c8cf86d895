package user

import "testing"

func TestIsProfane(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"arkinsolomon", false},
		{"plainname", false},
		{"fuckthis", true},
		{"ShItHead", true},
		{"clean_name-123", false},
	}

	for _, c := range cases {
		if got := IsProfane(c.name); got != c.want {
			t.Errorf("IsProfane(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}
