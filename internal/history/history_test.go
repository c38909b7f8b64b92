package history

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_AppendAndRecent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Append(KindSearch, "payment flow"); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(KindImport, "https://docs.google.com/document/d/abc"); err != nil {
		t.Fatal(err)
	}
	if err := store.Append(KindSearch, "auth design"); err != nil {
		t.Fatal(err)
	}

	searches, err := store.Recent(KindSearch, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(searches) != 2 {
		t.Fatalf("got %d search entries, want 2", len(searches))
	}
	// Newest first.
	if searches[0].Value != "auth design" || searches[1].Value != "payment flow" {
		t.Errorf("unexpected order: %q, %q", searches[0].Value, searches[1].Value)
	}
	for _, e := range searches {
		if e.ID == "" || e.CreatedAt.IsZero() {
			t.Errorf("entry missing id or timestamp: %+v", e)
		}
	}

	all, err := store.Recent("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("got %d entries for all kinds, want 3", len(all))
	}
}

func TestStore_RecentLimit(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, v := range []string{"one", "two", "three"} {
		if err := store.Append(KindSearch, v); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := store.Recent(KindSearch, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d entries, want 2", len(recent))
	}
	if recent[0].Value != "three" {
		t.Errorf("newest entry = %q, want %q", recent[0].Value, "three")
	}
}

func TestStore_CorruptFileTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "history.json"), []byte("{garbage"), 0o600); err != nil {
		t.Fatal(err)
	}

	recent, err := store.Recent("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 0 {
		t.Errorf("corrupt file should read as empty, got %d entries", len(recent))
	}

	// Appending over a corrupt file starts fresh instead of failing.
	if err := store.Append(KindSearch, "fresh"); err != nil {
		t.Fatal(err)
	}
	recent, err = store.Recent(KindSearch, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].Value != "fresh" {
		t.Errorf("unexpected entries after recovery: %+v", recent)
	}
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	recent, err := store.Recent("", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 0 {
		t.Errorf("got %d entries from a missing file, want 0", len(recent))
	}
}
