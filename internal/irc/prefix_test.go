package irc

import "testing"

func TestParsePrefix(t *testing.T) {
	tests := []struct {
		in   string
		want Prefix
	}{
		{in: "nick!user@host", want: Prefix{User: "nick", Host: "user@host"}},
		{in: "server.example.com", want: Prefix{Host: "server.example.com"}},
		{in: "", want: Prefix{}},
		{in: "a!b!c", want: Prefix{User: "a", Host: "b!c"}},
	}
	for _, tt := range tests {
		if got := ParsePrefix(tt.in); got != tt.want {
			t.Errorf("ParsePrefix(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestPrefixString(t *testing.T) {
	if s := ParsePrefix("nick!user@host").String(); s != "nick!user@host" {
		t.Fatalf("unexpected prefix string %q", s)
	}
	if s := ParsePrefix("irc.example.net").String(); s != "irc.example.net" {
		t.Fatalf("unexpected prefix string %q", s)
	}
}

func TestFoldAndChannels(t *testing.T) {
	if !EqualFold("Alice[away]", "alice{AWAY}") {
		t.Fatal("expected rfc1459 folding to match brackets")
	}
	if !EqualFold(`nick\~`, "NICK|^") {
		t.Fatal("expected rfc1459 folding to match backslash and tilde")
	}
	if EqualFold("alice", "alicе") { // second uses a Cyrillic e
		t.Fatal("unexpected match across scripts")
	}
	if !IsChannel("#go") || !IsChannel("&local") || IsChannel("bob") || IsChannel("") {
		t.Fatal("IsChannel misclassified a target")
	}
	if got := StripMembership("@+alice"); got != "alice" {
		t.Fatalf("StripMembership = %q", got)
	}
}
