package images

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rag-tutor-backend/models"
)

type keywordEmbedder struct {
	axes []string
}

func (f keywordEmbedder) Embed(_ context.Context, text string) []float32 {
	vec := make([]float32, len(f.axes))
	lower := strings.ToLower(text)
	for i, w := range f.axes {
		vec[i] = float32(strings.Count(lower, w))
	}
	return vec
}

func writeCatalog(t *testing.T, assets []models.ImageAsset) string {
	t.Helper()
	raw, err := json.Marshal(assets)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "images.json")
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testCatalog() []models.ImageAsset {
	return []models.ImageAsset{
		{ID: "img1", Title: "Sound waves", Description: "Compression waves in air", Keywords: []string{"wave", "frequency"}, TopicID: "sound", Filename: "waves.png"},
		{ID: "img2", Title: "Human ear", Description: "Anatomy of the ear", Keywords: []string{"ear", "hearing"}, TopicID: "sound", Filename: "ear.png"},
		{ID: "img3", Title: "Leaf cross-section", Description: "Photosynthesis in a leaf", Keywords: []string{"leaf", "chloroplast"}, TopicID: "plants", Filename: "leaf.png"},
	}
}

func TestInitMissingCatalogStaysNotReady(t *testing.T) {
	store := NewStore(keywordEmbedder{axes: []string{"wave"}})
	if err := store.Init(context.Background(), filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Fatalf("missing catalog should not error: %v", err)
	}
	if store.Ready() {
		t.Errorf("store should stay not-ready without a catalog")
	}
	if got := store.ByTopic("sound"); len(got) != 0 {
		t.Errorf("not-ready ByTopic = %v, want empty", got)
	}
	if got := store.BestMatch(context.Background(), "anything", ""); got != nil {
		t.Errorf("not-ready BestMatch = %v, want nil", got)
	}
}

func TestInitInvalidCatalogErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "images.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	store := NewStore(keywordEmbedder{axes: []string{"wave"}})
	if err := store.Init(context.Background(), path); err == nil {
		t.Fatalf("malformed catalog should error")
	}
}

func TestByTopicExactMatch(t *testing.T) {
	store := NewStore(keywordEmbedder{axes: []string{"wave", "ear", "leaf"}})
	if err := store.Init(context.Background(), writeCatalog(t, testCatalog())); err != nil {
		t.Fatal(err)
	}

	sound := store.ByTopic("sound")
	if len(sound) != 2 {
		t.Fatalf("ByTopic(sound) returned %d assets, want 2", len(sound))
	}
	for _, a := range sound {
		if a.TopicID != "sound" {
			t.Errorf("asset %s has topic %q", a.ID, a.TopicID)
		}
	}
	if got := store.ByTopic("chemistry"); len(got) != 0 {
		t.Errorf("unknown topic returned %v", got)
	}
}

func TestBestMatchScopedToTopic(t *testing.T) {
	store := NewStore(keywordEmbedder{axes: []string{"wave", "ear", "leaf"}})
	if err := store.Init(context.Background(), writeCatalog(t, testCatalog())); err != nil {
		t.Fatal(err)
	}

	// Even for a leaf-flavored query, a "sound"-scoped match must never
	// leave the sound category.
	got := store.BestMatch(context.Background(), "leaf leaf leaf chloroplast", "sound")
	if got == nil {
		t.Fatalf("non-empty candidate set must yield a match")
	}
	if got.TopicID != "sound" {
		t.Errorf("scoped match returned topic %q", got.TopicID)
	}
}

func TestBestMatchUnscopedPicksHighestScore(t *testing.T) {
	store := NewStore(keywordEmbedder{axes: []string{"wave", "ear", "leaf"}})
	if err := store.Init(context.Background(), writeCatalog(t, testCatalog())); err != nil {
		t.Fatal(err)
	}

	got := store.BestMatch(context.Background(), "how does the ear perceive hearing", "")
	if got == nil || got.ID != "img2" {
		t.Errorf("BestMatch = %+v, want the ear asset", got)
	}
}

// opposingEmbedder gives catalog entries and queries exactly opposite
// vectors, driving every similarity to -1.
type opposingEmbedder struct{}

func (opposingEmbedder) Embed(_ context.Context, text string) []float32 {
	if strings.Contains(text, "question") {
		return []float32{1, 0}
	}
	return []float32{-1, 0}
}

func TestBestMatchAllScoresMinusOne(t *testing.T) {
	store := NewStore(opposingEmbedder{})
	if err := store.Init(context.Background(), writeCatalog(t, testCatalog())); err != nil {
		t.Fatal(err)
	}

	// Every candidate scores exactly -1; a non-empty candidate set must
	// still yield an asset.
	got := store.BestMatch(context.Background(), "some question", "")
	if got == nil {
		t.Fatalf("BestMatch returned nil for a non-empty candidate set")
	}
	if got.ID != "img1" {
		t.Errorf("BestMatch = %+v, want the first candidate on a full tie", got)
	}
}

func TestBestMatchEmptyCandidates(t *testing.T) {
	store := NewStore(keywordEmbedder{axes: []string{"wave"}})
	if err := store.Init(context.Background(), writeCatalog(t, testCatalog())); err != nil {
		t.Fatal(err)
	}
	if got := store.BestMatch(context.Background(), "anything", "chemistry"); got != nil {
		t.Errorf("empty candidate set should return nil, got %+v", got)
	}
}
