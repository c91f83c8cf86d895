package user

import "testing"

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"Foo@Bar.com": "foo@bar.com",
		"already@low": "already@low",
		"MIXED@Case.IO": "mixed@case.io",
	}
	for in, want := range cases {
		if got := normalizeEmail(in); got != want {
			t.Errorf("normalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHashCodeIsDeterministicAndDistinct(t *testing.T) {
	a := hashCode("abc123")
	b := hashCode("abc123")
	c := hashCode("different")

	if a != b {
		t.Errorf("hashCode not deterministic: %q != %q", a, b)
	}
	if a == c {
		t.Errorf("hashCode collided for distinct inputs")
	}
	if len(a) != 64 {
		t.Errorf("hashCode length = %d, want 64 (sha256 hex)", len(a))
	}
}

func TestUserToResponseOmitsPasswordHash(t *testing.T) {
	u := User{
		UserID:       "u1",
		Email:        "a@b.com",
		Name:         "tester",
		PasswordHash: "$2a$12$secret",
		IsDeveloper:  true,
	}
	resp := u.ToResponse()
	if resp.UserID != u.UserID || resp.Email != u.Email || resp.Name != u.Name || resp.IsDeveloper != u.IsDeveloper {
		t.Fatalf("ToResponse did not carry over expected fields: %+v", resp)
	}
}
