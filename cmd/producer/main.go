// Command producer runs the automated video production pipeline: it loads
// config, wires the generators, starts the control API and produces the
// configured daily output for every channel.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"auto-video-pipeline/api"
	"auto-video-pipeline/archive"
	"auto-video-pipeline/assemble"
	"auto-video-pipeline/audience"
	"auto-video-pipeline/config"
	"auto-video-pipeline/idea"
	"auto-video-pipeline/llm"
	"auto-video-pipeline/logsink"
	"auto-video-pipeline/monitor"
	"auto-video-pipeline/music"
	"auto-video-pipeline/pipeline"
	"auto-video-pipeline/quality"
	"auto-video-pipeline/script"
	"auto-video-pipeline/translate"
	"auto-video-pipeline/upload"
	"auto-video-pipeline/visuals"
	"auto-video-pipeline/voiceover"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	for _, dir := range []string{cfg.Paths.Assets, cfg.Paths.Output, cfg.Paths.Logs} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("create %s: %v", dir, err)
		}
	}

	logger, err := logsink.New(cfg.Paths.Logs)
	if err != nil {
		log.Fatalf("open log sink: %v", err)
	}
	defer logger.Close()

	logger.Printf("[main] auto video pipeline starting: %d channel(s), %d long + %d short(s) daily",
		len(cfg.Channels), cfg.Daily.Long, cfg.Daily.Shorts)

	ollama := llm.New("")
	simulator := audience.New(cfg.Script.WordsPerMinute)
	assessor := quality.New(ollama, cfg.Idea.Model, simulator)

	// Trend lookups are a nice-to-have; a failed client just means prompts
	// go out unseeded.
	var trends idea.TrendSource
	if t, err := idea.NewRedditTrends(cfg.Idea.TrendSubreddits); err != nil {
		logger.Printf("[main] ⚠️  reddit trends disabled: %v", err)
	} else {
		trends = t
	}

	var musicLib *music.Library
	if cfg.Music.LibraryDir != "" {
		if lib, err := music.NewLibrary(cfg.Music.LibraryDir, cfg.Music.TagsFile); err != nil {
			logger.Printf("[main] ⚠️  music library disabled: %v", err)
		} else {
			musicLib = lib
		}
	}

	stages := pipeline.Stages{
		Setup:  pipeline.SetupFunc(ollama.Ping),
		Idea:   idea.New(cfg, ollama, assessor, trends, logger),
		Script: script.New(cfg, ollama, assessor, logger),
		Voiceover: voiceover.New(
			voiceover.DefaultEngines(cfg.Voiceover.Command, cfg.Voiceover.Voice, cfg.Voiceover.Format, cfg.Script.WordsPerMinute),
			cfg.Paths.Assets, logger),
		Visuals: visuals.New(
			[]visuals.Source{
				visuals.NewDiffusionSource(cfg.Visuals.DiffusionEndpoint, cfg.Visuals.Width, cfg.Visuals.Height),
				visuals.NewStockSource(cfg.Visuals.StockEndpoint, cfg.Visuals.Width, cfg.Visuals.Height),
				&visuals.CardSource{Width: cfg.Visuals.Width, Height: cfg.Visuals.Height},
			},
			cfg.Paths.Assets, cfg.Visuals.CountLong, cfg.Visuals.CountShort, logger),
		Music: music.New(musicLib, cfg.Paths.Assets, logger),
		Assembler: assemble.New(cfg, assemble.ExecRunner{}, assemble.ExecProber{},
			translate.New(cfg.Assemble.TranslateURL), logger),
		Feedback: simulator,
	}

	gate := monitor.NewGate(monitor.SystemSampler{},
		cfg.Resources.RAMCeilingPercent,
		cfg.Resources.CPUCeilingPercent,
		time.Duration(cfg.Resources.SampleIntervalSec)*time.Second)

	store, err := archive.Open(cfg.Paths.ArchiveDB)
	if err != nil {
		log.Fatalf("open archive: %v", err)
	}
	defer store.Close()

	seq := pipeline.NewSequencer(cfg, stages, logger)
	producer := pipeline.NewProducer(cfg, seq, gate, store, logger)
	producer.OnDone = upload.NewPreparer(cfg, ollama, logger).Handle

	if cfg.API.Listen != "" {
		srv := api.NewServer(producer, store, logger)
		go func() {
			if err := srv.ListenAndServe(cfg.API.Listen); err != nil {
				logger.Printf("[main] ⚠️  control API stopped: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Printf("[main] 🛑 shutdown signal received — stopping jobs...")
		cancel()
		producer.StopAll()
	}()

	if err := producer.RunDaily(ctx); err != nil {
		logger.Printf("[main] daily run aborted: %v", err)
		os.Exit(1)
	}
}
