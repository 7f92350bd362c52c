package models

import "testing"

func TestNormalizeNumber(t *testing.T) {
	cases := map[string]string{
		"4915551234567@s.whatsapp.net": "4915551234567",
		"+49 1555 123-4567":            "4915551234567",
		"111222333:12@s.whatsapp.net":  "11122233312",
		"@g.us":                        "",
		"":                             "",
	}
	for in, want := range cases {
		if got := NormalizeNumber(in); got != want {
			t.Errorf("NormalizeNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIdentityMatches(t *testing.T) {
	// Device-scoped id with a contact-resolved phone number.
	id := NewIdentity("111222333:12@s.whatsapp.net", "111222333")

	if !id.Matches("111222333:12@s.whatsapp.net") {
		t.Error("exact id should match")
	}
	if !id.Matches("111222333@s.whatsapp.net") {
		t.Error("phone-form roster id should match via the resolved number")
	}
	if id.Matches("444555666@s.whatsapp.net") {
		t.Error("unrelated roster id must not match")
	}
	if id.Matches("") {
		t.Error("empty roster id must not match")
	}
}

func TestIdentityMatchesWithoutPhone(t *testing.T) {
	id := NewIdentity("4915551234567@s.whatsapp.net", "")

	if !id.Matches("4915551234567@c.us") {
		t.Error("digit-equal ids under different suffixes should match")
	}
}

func TestIdentityCandidates(t *testing.T) {
	id := NewIdentity("111@s.whatsapp.net", "111")

	got := id.Candidates()
	if len(got) != 2 {
		t.Fatalf("candidates = %v, want id and digits only", got)
	}
}
