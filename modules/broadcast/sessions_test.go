package broadcast

import "testing"

func TestSessionStore_BindAndLookup(t *testing.T) {
	store := NewSessionStore()

	store.Bind("conn-1", "token-a")

	token, ok := store.Lookup("conn-1")
	if !ok {
		t.Fatal("Lookup() returned false for bound connection")
	}
	if token != "token-a" {
		t.Errorf("Lookup() = %q, want %q", token, "token-a")
	}

	if _, ok := store.Lookup("conn-2"); ok {
		t.Error("Lookup() returned true for unknown connection")
	}
}

func TestSessionStore_BindOverwrites(t *testing.T) {
	store := NewSessionStore()

	store.Bind("conn-1", "token-a")
	store.Bind("conn-1", "token-b")

	token, _ := store.Lookup("conn-1")
	if token != "token-b" {
		t.Errorf("Lookup() = %q, want the rebound token %q", token, "token-b")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestSessionStore_Unbind(t *testing.T) {
	store := NewSessionStore()

	store.Bind("conn-1", "token-a")
	store.Unbind("conn-1")

	if _, ok := store.Lookup("conn-1"); ok {
		t.Error("Lookup() returned true after Unbind()")
	}

	// Unbinding an unknown connection is a no-op
	store.Unbind("conn-2")
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
}
