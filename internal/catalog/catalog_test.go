package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/akuzmina/ripeto/internal/progress"
	"github.com/akuzmina/ripeto/internal/store"
)

func openTestRepo(t *testing.T) *Repo {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st.DB())
}

func TestImportAndGet(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	words := []Word{
		{ID: "w1", Russian: "дом", Italian: "casa", Category: "nouns"},
		{ID: "w2", Russian: "идти", Italian: "andare", Category: "verbs"},
	}
	if err := repo.Import(ctx, words); err != nil {
		t.Fatalf("Import: %v", err)
	}

	got, err := repo.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Italian != "casa" {
		t.Errorf("Get(w1) = %+v, want casa", got)
	}

	missing, err := repo.Get(ctx, "nope")
	if err != nil {
		t.Fatalf("Get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("Get(nope) = %+v, want nil", missing)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
}

func TestImportIsUpsert(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	if err := repo.Import(ctx, []Word{{ID: "w1", Russian: "кот", Italian: "gato"}}); err != nil {
		t.Fatalf("Import: %v", err)
	}
	// fix the typo on re-import
	if err := repo.Import(ctx, []Word{{ID: "w1", Russian: "кот", Italian: "gatto"}}); err != nil {
		t.Fatalf("re-Import: %v", err)
	}

	got, err := repo.Get(ctx, "w1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Italian != "gatto" {
		t.Errorf("Italian = %q, want gatto", got.Italian)
	}

	n, _ := repo.Count(ctx)
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestImportRejectsEmptyID(t *testing.T) {
	repo := openTestRepo(t)
	err := repo.Import(context.Background(), []Word{{Russian: "дом", Italian: "casa"}})
	if err == nil {
		t.Fatal("Import with empty id should fail")
	}
}

func TestByCategory(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	words := []Word{
		{ID: "w1", Russian: "дом", Italian: "casa", Category: "nouns"},
		{ID: "w2", Russian: "идти", Italian: "andare", Category: "verbs"},
		{ID: "w3", Russian: "кот", Italian: "gatto", Category: "nouns"},
	}
	if err := repo.Import(ctx, words); err != nil {
		t.Fatalf("Import: %v", err)
	}

	nouns, err := repo.ByCategory(ctx, "nouns")
	if err != nil {
		t.Fatalf("ByCategory: %v", err)
	}
	if len(nouns) != 2 {
		t.Fatalf("ByCategory(nouns) returned %d words, want 2", len(nouns))
	}
	if nouns[0].ID != "w1" || nouns[1].ID != "w3" {
		t.Errorf("ByCategory order = [%s %s], want [w1 w3]", nouns[0].ID, nouns[1].ID)
	}
}

func TestPromptAnswerSides(t *testing.T) {
	w := Word{ID: "w1", Russian: "дом", Italian: "casa"}

	if got := w.Prompt(progress.DirectionRuIt); got != "дом" {
		t.Errorf("Prompt(ru-it) = %q, want дом", got)
	}
	if got := w.Answer(progress.DirectionRuIt); got != "casa" {
		t.Errorf("Answer(ru-it) = %q, want casa", got)
	}
	if got := w.Prompt(progress.DirectionItRu); got != "casa" {
		t.Errorf("Prompt(it-ru) = %q, want casa", got)
	}
	if got := w.Answer(progress.DirectionItRu); got != "дом" {
		t.Errorf("Answer(it-ru) = %q, want дом", got)
	}
}
