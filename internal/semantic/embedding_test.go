package semantic

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFixtureEmbeddings(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectors.txt")
	content := "3 2\n" +
		"covid 1.0 0.0\n" +
		"virus 0.99 0.14\n" +
		"cat 0.0 1.0\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadDisabledOnMissingFile(t *testing.T) {
	idx := Load(filepath.Join(t.TempDir(), "does-not-exist.txt"), map[string]struct{}{"covid": {}})
	if idx.Enabled() {
		t.Error("Enabled() = true for a missing embeddings file, want false")
	}
}

func TestLoadRestrictsToNeededVocab(t *testing.T) {
	path := writeFixtureEmbeddings(t)
	idx := Load(path, map[string]struct{}{"covid": {}, "virus": {}})
	if !idx.Enabled() {
		t.Fatal("Enabled() = false, want true")
	}
	if len(idx.terms) != 2 {
		t.Errorf("loaded %d terms, want 2 (cat excluded by needed set)", len(idx.terms))
	}
	for _, term := range idx.terms {
		if term == "cat" {
			t.Errorf("loaded term %q that was not in the needed vocab", term)
		}
	}
}

func TestExpandDisabledReturnsOriginalOnly(t *testing.T) {
	idx := Load(filepath.Join(t.TempDir(), "missing.txt"), nil)
	out := idx.Expand([]string{"covid", "spike"}, 5, 5, 0.5, 0.5, 10)
	if len(out) != 2 {
		t.Fatalf("Expand on disabled index returned %d terms, want 2", len(out))
	}
	for _, wt := range out {
		if wt.Weight != 1.0 {
			t.Errorf("term %q weight = %v, want 1.0", wt.Term, wt.Weight)
		}
	}
}

func TestExpandAddsSimilarNeighbor(t *testing.T) {
	path := writeFixtureEmbeddings(t)
	needed := map[string]struct{}{"covid": {}, "virus": {}, "cat": {}}
	idx := Load(path, needed)

	out := idx.Expand([]string{"covid"}, 5, 5, 0.5, 0.5, 10)
	if len(out) < 1 || out[0].Term != "covid" || out[0].Weight != 1.0 {
		t.Fatalf("Expand(covid)[0] = %+v, want {covid 1.0}", out[0])
	}

	foundVirus, foundCat := false, false
	for _, wt := range out[1:] {
		switch wt.Term {
		case "virus":
			foundVirus = true
			if wt.Weight <= 0 || wt.Weight >= 1.0 {
				t.Errorf("virus weight = %v, want in (0, 1)", wt.Weight)
			}
		case "cat":
			foundCat = true
		}
	}
	if !foundVirus {
		t.Error("expected 'virus' (cosine-similar to 'covid') in expansion")
	}
	if foundCat {
		t.Error("did not expect 'cat' (orthogonal to 'covid', below minSim) in expansion")
	}
}

func TestExpandTruncatesToMaxTotalTerms(t *testing.T) {
	path := writeFixtureEmbeddings(t)
	needed := map[string]struct{}{"covid": {}, "virus": {}, "cat": {}}
	idx := Load(path, needed)

	out := idx.Expand([]string{"covid"}, 5, 5, 0.0, 0.5, 1)
	if len(out) != 1 {
		t.Fatalf("Expand with maxTotalTerms=1 returned %d terms, want 1", len(out))
	}
	if out[0].Term != "covid" {
		t.Errorf("Expand[0] = %q, want original term preserved ahead of any expansion", out[0].Term)
	}
}

func TestExpandDeduplicatesQueryTerms(t *testing.T) {
	idx := Load(filepath.Join(t.TempDir(), "missing.txt"), nil)
	out := idx.Expand([]string{"covid", "covid"}, 5, 5, 0.5, 0.5, 10)
	if len(out) != 1 {
		t.Errorf("Expand with duplicate query terms returned %d terms, want 1", len(out))
	}
}
