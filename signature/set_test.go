package signature

import "testing"

func TestSetMatch(t *testing.T) {
	r := NewRegistry()
	r.Register("png", "89504E47")
	r.Register("jpg", "FFD8")
	r.Register("long", "4D5A9000")
	set := r.Snapshot()

	cases := []struct {
		name      string
		prefix    string
		wantLabel string
		wantOK    bool
	}{
		{"exe", "4D5A", "exe", true},
		{"exe with more bytes", "4D5A0000", "exe", true},
		{"longest wins", "4D5A9000", "long", true},
		{"png", "89504E470D0A", "png", true},
		{"png too short", "8950", "", false},
		{"jpg", "FFD8FFE0", "jpg", true},
		{"no match", "0000", "", false},
		{"single byte", "4D", "", false},
		{"empty", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m, ok := set.Match(tc.prefix)
			if ok != tc.wantOK || m.Label != tc.wantLabel {
				t.Fatalf("Match(%q) = %+v, %v; want %q, %v", tc.prefix, m, ok, tc.wantLabel, tc.wantOK)
			}
		})
	}
}

func TestSetTieBreaksOnLabel(t *testing.T) {
	r := NewEmptyRegistry()
	r.Register("zexe", "4D5A")
	r.Register("aexe", "4D5A")
	for range 10 {
		m, ok := r.Snapshot().Match("4D5A")
		if !ok || m.Label != "aexe" {
			t.Fatalf("expected aexe, got %+v", m)
		}
	}
}

func TestSetPrefixLen(t *testing.T) {
	r := NewRegistry()
	if got := r.Snapshot().PrefixLen(); got != MinPrefixLen {
		t.Fatalf("expected %d, got %d", MinPrefixLen, got)
	}
	r.Register("png", "89504E470D0A1A0A")
	if got := r.Snapshot().PrefixLen(); got != 8 {
		t.Fatalf("expected 8, got %d", got)
	}
	r.Register("one", "4D")
	if got := r.Snapshot().PrefixLen(); got != 8 {
		t.Fatalf("short signature changed prefix len: %d", got)
	}
}

func TestSnapshotIsolatedFromRegistry(t *testing.T) {
	r := NewRegistry()
	set := r.Snapshot()
	r.Register("jpg", "FFD8")
	if _, ok := set.Match("FFD8"); ok {
		t.Fatal("snapshot should not see later registrations")
	}
	if _, ok := r.Snapshot().Match("FFD8"); !ok {
		t.Fatal("fresh snapshot should see new registration")
	}
}

func TestNilSet(t *testing.T) {
	var s *Set
	if _, ok := s.Match("4D5A"); ok {
		t.Fatal("nil set should never match")
	}
	if s.PrefixLen() != MinPrefixLen || s.Len() != 0 {
		t.Fatal("unexpected nil set defaults")
	}
}
