package tag

import "testing"

func TestZeroValueIsAbsent(t *testing.T) {
	var u UID
	if !u.IsAbsent() {
		t.Error("zero UID should be absent")
	}
	if u != Absent {
		t.Error("zero UID should equal Absent")
	}

	u[3] = 1
	if u.IsAbsent() {
		t.Error("non-zero UID reported absent")
	}
}

func TestParseRoundTrip(t *testing.T) {
	u := UID{0x04, 0xa1, 0xb2, 0xc3, 0xd4, 0xe5, 0xf6}
	got, err := Parse(u.String())
	if err != nil {
		t.Fatalf("Parse(%q): %v", u.String(), err)
	}
	if got != u {
		t.Errorf("round trip mismatch: got %s want %s", got, u)
	}
}

func TestParseAbsentForms(t *testing.T) {
	for _, s := range []string{"", "-"} {
		u, err := Parse(s)
		if err != nil {
			t.Errorf("Parse(%q): %v", s, err)
		}
		if !u.IsAbsent() {
			t.Errorf("Parse(%q) should be absent, got %s", s, u)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"zz",             // not hex
		"0102",           // too short
		"0102030405060708", // too long
	}
	for _, s := range cases {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) should fail", s)
		}
	}
}

func TestAbsentString(t *testing.T) {
	if got := Absent.String(); got != "-" {
		t.Errorf("Absent.String() = %q, want %q", got, "-")
	}
}

func TestFromBytes(t *testing.T) {
	u := FromBytes([]byte{1, 2, 3, 4, 5, 6, 7})
	want := UID{1, 2, 3, 4, 5, 6, 7}
	if u != want {
		t.Errorf("FromBytes = %s, want %s", u, want)
	}

	short := FromBytes([]byte{1, 2})
	if short != (UID{1, 2}) {
		t.Errorf("short FromBytes = %s", short)
	}
}
