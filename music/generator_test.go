package music

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"auto-video-pipeline/logsink"
	"auto-video-pipeline/types"
)

func TestGenerateSynthesizesWithoutLibrary(t *testing.T) {
	g := New(nil, t.TempDir(), logsink.NewNop())

	asset, err := g.Generate(context.Background(), "History", 5)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if asset.Kind != types.AssetMusic {
		t.Errorf("asset kind = %s", asset.Kind)
	}
	if asset.Source != types.SourceFallback {
		t.Errorf("synthesized bed should be marked fallback, got %s", asset.Source)
	}
	fi, err := os.Stat(asset.Path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Size() <= 44 {
		t.Errorf("WAV is header-only (%d bytes)", fi.Size())
	}
}

func writeTags(t *testing.T, dir string, tags map[string][]string) string {
	t.Helper()
	data, _ := json.Marshal(tags)
	path := filepath.Join(dir, "tags.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLibraryPicksTagMatch(t *testing.T) {
	dir := t.TempDir()
	tagsFile := writeTags(t, dir, map[string][]string{
		"epic_drums.mp3": {"history", "epic", "drums"},
		"soft_piano.mp3": {"calm", "piano"},
		"_instructions":  nil,
	})
	lib, err := NewLibrary(dir, tagsFile)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}

	path, err := lib.Pick("History documentary")
	if err != nil {
		t.Fatalf("Pick: %v", err)
	}
	if filepath.Base(path) == "_instructions" {
		t.Error("underscore keys must be skipped")
	}
}

func TestLibraryNeverRepeatsInRun(t *testing.T) {
	dir := t.TempDir()
	tagsFile := writeTags(t, dir, map[string][]string{
		"a.mp3": {"history"},
		"b.mp3": {"history"},
	})
	lib, err := NewLibrary(dir, tagsFile)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}

	first, err := lib.Pick("history")
	if err != nil {
		t.Fatalf("first Pick: %v", err)
	}
	second, err := lib.Pick("history")
	if err != nil {
		t.Fatalf("second Pick: %v", err)
	}
	if first == second {
		t.Errorf("picked %q twice in one run", first)
	}
	if _, err := lib.Pick("history"); err == nil {
		t.Error("exhausted library should refuse a third pick")
	}
}

func TestLibraryMissingTagsFileIsEmpty(t *testing.T) {
	lib, err := NewLibrary(t.TempDir(), "/nonexistent/tags.json")
	if err != nil {
		t.Fatalf("missing tags file should not error: %v", err)
	}
	if _, err := lib.Pick("anything"); err == nil {
		t.Error("empty library should fail the pick and defer to the next tier")
	}
}
