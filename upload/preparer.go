// Package upload pushes finished videos to YouTube via the Data API v3.
// It hangs off the producer's completion hook and is disabled unless
// explicitly enabled in config; a failed upload never fails the job.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"auto-video-pipeline/config"
	"auto-video-pipeline/llm"
	"auto-video-pipeline/logsink"
	"auto-video-pipeline/types"
)

// Preparer generates listing metadata and uploads rendered videos.
type Preparer struct {
	cfg *config.Config
	gen llm.TextGenerator
	log *logsink.Logger
}

// NewPreparer creates a Preparer.
func NewPreparer(cfg *config.Config, gen llm.TextGenerator, log *logsink.Logger) *Preparer {
	return &Preparer{cfg: cfg, gen: gen, log: log}
}

// Handle processes one finished job: builds metadata and, when upload is
// enabled, pushes the video. Shaped to fit pipeline.Producer.OnDone.
func (p *Preparer) Handle(job *types.ProductionJob) {
	if job.Rendered == nil || job.Script == nil || job.Idea == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	meta := p.metadataFor(ctx, job)

	if !p.cfg.Upload.Enabled {
		p.log.Printf("[upload] upload disabled — metadata prepared for %q, video stays at %s",
			meta.Title, job.Rendered.Path)
		p.writeResult(job, &types.UploadResult{Title: meta.Title})
		return
	}

	result, err := p.upload(ctx, job.Rendered.Path, meta)
	if err != nil {
		p.log.Printf("[upload] ⚠️  upload failed for job %s: %v", job.ID, err)
		return
	}
	p.writeResult(job, result)
}

// upload pushes one video file with the given metadata.
func (p *Preparer) upload(ctx context.Context, videoFile string, meta *Metadata) (*types.UploadResult, error) {
	p.log.Printf("[upload] authenticating with YouTube API...")

	client, err := oauthClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("youtube auth: %w", err)
	}

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryId:           meta.CategoryID,
			DefaultLanguage:      p.cfg.Upload.DefaultLanguage,
			DefaultAudioLanguage: p.cfg.Upload.DefaultLanguage,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           meta.Visibility,
			SelfDeclaredMadeForKids: p.cfg.Upload.MadeForKids,
		},
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return nil, fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		p.log.Printf("[upload] uploading %q (%.1f MB)...", meta.Title, float64(fi.Size())/1024/1024)
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.Media(f)
	call.NotifySubscribers(p.cfg.Upload.NotifySubscribers)

	uploaded, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("youtube upload: %w", err)
	}

	result := &types.UploadResult{
		VideoID:    uploaded.Id,
		VideoURL:   fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id),
		Title:      meta.Title,
		UploadedAt: time.Now().UTC().Format(time.RFC3339),
	}
	p.log.Printf("[upload] ✅ uploaded: %s", result.VideoURL)
	return result, nil
}

// oauthClient builds a token-refreshing HTTP client from env credentials.
func oauthClient(ctx context.Context) (*http.Client, error) {
	clientID := os.Getenv("YOUTUBE_CLIENT_ID")
	clientSecret := os.Getenv("YOUTUBE_CLIENT_SECRET")
	refreshToken := os.Getenv("YOUTUBE_REFRESH_TOKEN")
	if clientID == "" || clientSecret == "" || refreshToken == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope, youtube.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-time.Hour), // force refresh
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token)), nil
}

// writeResult drops an upload record next to the video for bookkeeping.
func (p *Preparer) writeResult(job *types.ProductionJob, result *types.UploadResult) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return
	}
	file := filepath.Join(filepath.Dir(job.Rendered.Path), "upload_result.json")
	if err := os.WriteFile(file, data, 0644); err != nil {
		p.log.Printf("[upload] ⚠️  could not write upload record: %v", err)
		return
	}
	p.log.Printf("[upload] upload record saved: %s", file)
}
