package upload

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"

	"auto-video-pipeline/config"
	"auto-video-pipeline/logsink"
	"auto-video-pipeline/types"
)

type stubGen struct {
	response string
	err      error
}

func (g stubGen) Generate(context.Context, string, string, float64) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func uploadConfig() *config.Config {
	return &config.Config{
		Idea: config.IdeaConfig{Model: "llama3"},
		Upload: config.UploadConfig{
			Visibility: "private",
			CategoryID: "27",
		},
	}
}

func uploadJob() *types.ProductionJob {
	job := types.NewProductionJob("up-test", types.Channel{Name: "CKLegends", Topic: "History"}, types.KindShort)
	job.Idea = &types.VideoIdea{
		Title:         "The Lost Legion That Vanished Twice",
		ScriptOutline: "Open with the disappearance. Trace the theories.",
	}
	job.Script = &types.Script{Intro: "An entire legion, gone.", Body: "The records stop mid-sentence."}
	job.Script.CountWords()
	job.Rendered = &types.RenderedVideo{Path: "/out/up-test/final_short.mp4", Channel: "CKLegends"}
	return job
}

func TestOAuthClientRequiresCredentials(t *testing.T) {
	t.Setenv("YOUTUBE_CLIENT_ID", "")
	t.Setenv("YOUTUBE_CLIENT_SECRET", "")
	t.Setenv("YOUTUBE_REFRESH_TOKEN", "")

	if _, err := oauthClient(context.Background()); err == nil {
		t.Error("missing credentials must error, not produce a client")
	}
}

func TestOAuthClientBuildsHTTPClient(t *testing.T) {
	t.Setenv("YOUTUBE_CLIENT_ID", "id")
	t.Setenv("YOUTUBE_CLIENT_SECRET", "secret")
	t.Setenv("YOUTUBE_REFRESH_TOKEN", "refresh")

	client, err := oauthClient(context.Background())
	if err != nil {
		t.Fatalf("oauthClient: %v", err)
	}
	// The YouTube service constructor takes an *http.Client; make sure
	// that is what comes back, with the refreshing transport installed.
	var _ *http.Client = client
	if client.Transport == nil {
		t.Error("client has no token-refreshing transport")
	}
}

func TestMetadataTruncatesTitleOnRunes(t *testing.T) {
	longTitle := strings.Repeat("Ü", 120)
	resp := fmt.Sprintf(`{"title":%q,"description":"d","tags":["a"]}`, longTitle)
	p := NewPreparer(uploadConfig(), stubGen{response: resp}, logsink.NewNop())

	meta := p.metadataFor(context.Background(), uploadJob())

	if !utf8.ValidString(meta.Title) {
		t.Fatalf("truncated title is not valid UTF-8: %q", meta.Title)
	}
	if got := utf8.RuneCountInString(meta.Title); got > titleMaxChars {
		t.Errorf("title is %d runes, want at most %d", got, titleMaxChars)
	}
	if !strings.HasSuffix(meta.Title, "...") {
		t.Errorf("truncated title should end with an ellipsis: %q", meta.Title)
	}
}

func TestMetadataFallsBackToTemplate(t *testing.T) {
	p := NewPreparer(uploadConfig(), stubGen{err: fmt.Errorf("connection refused")}, logsink.NewNop())

	meta := p.metadataFor(context.Background(), uploadJob())
	if meta.Title == "" || meta.Description == "" {
		t.Fatal("template fallback produced empty metadata")
	}
	if meta.CategoryID != "27" || meta.Visibility != "private" {
		t.Errorf("config fields not applied: %+v", meta)
	}
	if len(meta.Tags) == 0 {
		t.Error("template metadata has no tags")
	}
}

func TestMetadataCapsTags(t *testing.T) {
	tags := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		tags = append(tags, fmt.Sprintf("\"tag%d\"", i))
	}
	resp := fmt.Sprintf(`{"title":"Fine Title","description":"d","tags":[%s]}`, strings.Join(tags, ","))
	p := NewPreparer(uploadConfig(), stubGen{response: resp}, logsink.NewNop())

	meta := p.metadataFor(context.Background(), uploadJob())
	if len(meta.Tags) > 30 {
		t.Errorf("got %d tags, want at most 30", len(meta.Tags))
	}
}
