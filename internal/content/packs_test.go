package content_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/revisehub/revisehub/internal/content"
)

const samplePack = `grade: Year6
term: Autumn
items:
  - id: content_pack_1
    topic: Geography
    difficulty: Medium
    question_text: What is the longest river in the UK?
    answer_text: River Severn
    alternate_answers:
      - the Severn
  - id: content_pack_2
    grade: Year5
    topic: Maths
    difficulty: Low
    question_text: What is 9 x 6?
    answer_text: "54"
`

func TestLoadPacks(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "year6-autumn.yaml"), []byte(samplePack), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-YAML and invalid files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("# notes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(":::"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := content.NewMemoryStore()
	n, err := content.LoadPacks(t.Context(), dir, store)
	if err != nil {
		t.Fatalf("LoadPacks() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("LoadPacks() loaded %d items, want 2", n)
	}

	item, err := store.Get(t.Context(), "content_pack_1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if item.Grade != "Year6" || item.Term != "Autumn" {
		t.Errorf("pack defaults not inherited: grade=%q term=%q", item.Grade, item.Term)
	}

	// Per-item grade overrides the pack default.
	item2, _ := store.Get(t.Context(), "content_pack_2")
	if item2.Grade != "Year5" {
		t.Errorf("item grade = %q, want Year5", item2.Grade)
	}
}

func TestLoadPacks_SkipsIncompleteItems(t *testing.T) {
	dir := t.TempDir()
	pack := "grade: Year6\nterm: Autumn\nitems:\n  - topic: Maths\n    question_text: incomplete\n"
	if err := os.WriteFile(filepath.Join(dir, "partial.yaml"), []byte(pack), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := content.LoadPacks(t.Context(), dir, content.NewMemoryStore())
	if err != nil {
		t.Fatalf("LoadPacks() error = %v", err)
	}
	if n != 0 {
		t.Errorf("LoadPacks() loaded %d items, want 0", n)
	}
}
