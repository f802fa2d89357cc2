package featureflags

import "testing"

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", 1) || !m.Enabled("c", 1) || !m.Enabled("e", 1) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", 1) || m.Enabled("d", 1) || m.Enabled("f", 1) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
	if m.Enabled("missing", 1) {
		t.Fatal("unknown flags are off")
	}
}

func TestEnabled_Rollout(t *testing.T) {
	m := NewManager(CommunityMessagesMembersOnly + "=25%,always=100%,never=0%")

	if !m.Enabled("always", 1) {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", 1) {
		t.Fatal("0% rollout should always be disabled")
	}

	first := m.Enabled(CommunityMessagesMembersOnly, 42)
	for i := 0; i < 5; i++ {
		if got := m.Enabled(CommunityMessagesMembersOnly, 42); got != first {
			t.Fatal("rollout evaluation must be deterministic per user")
		}
	}
	if m.Enabled(CommunityMessagesMembersOnly, 0) {
		t.Fatal("percentage rollout requires non-zero userID")
	}

	enabled := 0
	for uid := uint(1); uid <= 1000; uid++ {
		if m.Enabled(CommunityMessagesMembersOnly, uid) {
			enabled++
		}
	}
	if enabled < 100 || enabled > 400 {
		t.Fatalf("25%% rollout enabled %d of 1000 users", enabled)
	}
}

func TestEnabledOr(t *testing.T) {
	unset := NewManager("")
	if !unset.EnabledOr(SearchEnabled, 0, true) {
		t.Fatal("unset flag should use the fallback")
	}

	off := NewManager("SEARCH_ENABLED=off")
	if off.EnabledOr(SearchEnabled, 0, true) {
		t.Fatal("explicit off must override the fallback")
	}

	var nilManager *Manager
	if !nilManager.EnabledOr(SearchEnabled, 0, true) {
		t.Fatal("nil manager should use the fallback")
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	if len(raw) != 3 {
		t.Fatalf("expected 3 parsed flags, got %d", len(raw))
	}
	if raw["x"] != "on" || raw["y"] != "20%" || raw["z"] != "off" {
		t.Fatalf("unexpected raw flags: %#v", raw)
	}

	snap := m.Snapshot(123)
	if len(snap) != 3 || !snap["x"] || snap["z"] {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}
