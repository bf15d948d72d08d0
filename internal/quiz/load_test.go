package quiz

import (
	"os"
	"path/filepath"
	"testing"
)

func writeBank(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write bank %s: %v", name, err)
	}
	return path
}

const sampleBank = `[
  {"題別": "單", "題號": "1", "題目": "下列何者正確？\n請選一項", "選項": ["甲\n說明", "乙", "丙", "丁", "戊"], "答案": "Ｂ", "出處": "113年專技"},
  {"題別": "複", "題號": "2", "題目": "複選題", "選項": ["A1", "A2", "A3", "A4", "A5"], "答案": "ac", "出處": ""}
]`

func TestLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := writeBank(t, dir, "bank113.json", sampleBank)

	store, errs := Load([]string{path})
	if len(errs) != 0 {
		t.Fatalf("unexpected load errors: %v", errs)
	}
	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}

	q, ok := store.ByID("bank113_1")
	if !ok {
		t.Fatal("bank113_1 not found")
	}
	if q.Body != "下列何者正確？ 請選一項" {
		t.Errorf("Body = %q, newline not collapsed", q.Body)
	}
	if q.Options[0] != "甲 說明" {
		t.Errorf("Options[0] = %q, newline not collapsed", q.Options[0])
	}
	if q.Answer != "B" {
		t.Errorf("Answer = %q, want fullwidth folded to B", q.Answer)
	}
	if q.Kind != KindSingle {
		t.Errorf("Kind = %v, want single", q.Kind)
	}

	multi, _ := store.ByID("bank113_2")
	if multi.Kind != KindMulti {
		t.Errorf("Kind = %v, want multi", multi.Kind)
	}
	if multi.Answer != "AC" {
		t.Errorf("Answer = %q, want AC", multi.Answer)
	}
}

func TestLoadPrefixIdempotent(t *testing.T) {
	dir := t.TempDir()
	// Bank whose ids already carry the stem prefix, as re-exported banks do.
	path := writeBank(t, dir, "bank.json", `[
	  {"題號": "bank_7", "題目": "q", "選項": ["a","b","c","d","e"], "答案": "A"}
	]`)

	store, errs := Load([]string{path})
	if len(errs) != 0 {
		t.Fatalf("unexpected load errors: %v", errs)
	}
	if _, ok := store.ByID("bank_7"); !ok {
		t.Errorf("want id bank_7 untouched, got %v", store.IDs())
	}
}

func TestLoadSkipsBadSource(t *testing.T) {
	dir := t.TempDir()
	good := writeBank(t, dir, "good.json", sampleBank)
	bad := writeBank(t, dir, "bad.json", `{"not": "an array"}`)
	missing := filepath.Join(dir, "missing.json")

	store, errs := Load([]string{good, bad, missing})
	if len(errs) != 2 {
		t.Fatalf("got %d load errors, want 2: %v", len(errs), errs)
	}
	if store.Len() != 2 {
		t.Errorf("Len = %d, want 2 questions from the good bank", store.Len())
	}
}

func TestLoadSchemaRejectsMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := writeBank(t, dir, "broken.json", `[{"題號": "1", "題目": "no options"}]`)

	_, errs := Load([]string{path})
	if len(errs) != 1 {
		t.Fatalf("got %d load errors, want 1", len(errs))
	}
}

func TestLoadInFileCollisionRenames(t *testing.T) {
	dir := t.TempDir()
	path := writeBank(t, dir, "dup.json", `[
	  {"題號": "1", "題目": "first", "選項": ["a","b","c","d","e"], "答案": "A"},
	  {"題號": "1", "題目": "second", "選項": ["a","b","c","d","e"], "答案": "B"},
	  {"題號": "1", "題目": "third", "選項": ["a","b","c","d","e"], "答案": "C"}
	]`)

	store, errs := Load([]string{path})
	if len(errs) != 0 {
		t.Fatalf("unexpected load errors: %v", errs)
	}
	if store.Len() != 3 {
		t.Fatalf("Len = %d, want 3", store.Len())
	}
	for _, id := range []string{"dup_1", "dup_1_1", "dup_1_2"} {
		if _, ok := store.ByID(id); !ok {
			t.Errorf("%s missing, ids = %v", id, store.IDs())
		}
	}
}

func TestLoadCrossFileCollisionRejectsSource(t *testing.T) {
	// Same file name in two directories shares a stem, so both files
	// namespace their first row to bank_1.
	a := writeBank(t, t.TempDir(), "bank.json", `[
	  {"題號": "1", "題目": "q", "選項": ["a","b","c","d","e"], "答案": "A"}
	]`)
	b := writeBank(t, t.TempDir(), "bank.json", `[
	  {"題號": "1", "題目": "q", "選項": ["a","b","c","d","e"], "答案": "A"}
	]`)

	store, errs := Load([]string{a, b})
	if len(errs) != 1 {
		t.Fatalf("got %d load errors, want 1: %v", len(errs), errs)
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
}

// Every identifier returned by All is distinct and resolvable via ByID.
func TestAllInverseOfByID(t *testing.T) {
	dir := t.TempDir()
	path := writeBank(t, dir, "bank.json", sampleBank)
	store, _ := Load([]string{path})

	seen := make(map[string]bool)
	for _, q := range store.All() {
		if seen[q.ID] {
			t.Fatalf("duplicate id %q in All()", q.ID)
		}
		seen[q.ID] = true

		got, ok := store.ByID(q.ID)
		if !ok {
			t.Fatalf("ByID(%q) not found", q.ID)
		}
		if got.Body != q.Body {
			t.Errorf("ByID(%q) returned a different question", q.ID)
		}
	}
}
