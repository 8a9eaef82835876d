package initialization

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"stremio2m3u/pkg/apperr"
	"stremio2m3u/pkg/config"
	"stremio2m3u/pkg/logger"
	"stremio2m3u/pkg/metrics"
	"stremio2m3u/pkg/playlist"
	"stremio2m3u/pkg/stremio"
)

// Components holds everything a conversion run needs, built from config.
type Components struct {
	Config *config.Config
	Client *stremio.Client
	Writer *playlist.Writer
}

// Exit logs err, prints the failed stage to stderr and terminates the process
// with the stage's exit status. A nil err exits 0.
func Exit(err error) {
	code := apperr.ExitCode(err)
	if err != nil {
		stage, ok := apperr.StageOf(err)
		if !ok {
			stage = "unknown"
		}
		logger.Error("Conversion failed", "stage", stage, "exit_code", code, "err", err)
		if ok {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	logger.Close()
	os.Exit(code)
}

// Bootstrap builds the components. fs is where the playlist goes; nil means the OS filesystem.
func Bootstrap(cfg *config.Config, fs afero.Fs) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := stremio.NewClient(stremio.Options{
		BaseURL:        cfg.AddonURL,
		Timeout:        time.Duration(cfg.HTTPTimeoutSeconds) * time.Second,
		Proxy:          cfg.AddonProxy,
		UserAgent:      cfg.UserAgent,
		ResolveStreams: cfg.ResolveStreams,
		PreferBest:     cfg.StreamPreference == config.PreferBest,
		Fields: stremio.Fields{
			Name: cfg.Fields.Name,
			URL:  cfg.Fields.URL,
			Logo: cfg.Fields.Logo,
		},
	})
	if err != nil {
		return nil, err
	}
	if cfg.AddonProxy != "" {
		logger.Info("Using proxy for addon requests", "proxy", cfg.AddonProxy)
	}

	return &Components{
		Config: cfg,
		Client: client,
		Writer: playlist.NewWriter(fs),
	}, nil
}

// Run performs one conversion: fetch the addon, render, replace the output file.
// Either a complete playlist is written or the previous file is left as it was.
func (c *Components) Run(ctx context.Context) (err error) {
	cfg := c.Config
	log := logger.With("run_id", uuid.NewString())
	run := metrics.NewRun()
	defer func() {
		run.Finish(err)
		if cfg.MetricsFile == "" {
			return
		}
		if werr := run.WriteFile(cfg.MetricsFile); werr != nil {
			log.Warn("Failed to write metrics file", "path", cfg.MetricsFile, "err", werr)
		}
	}()

	log.Info("Starting conversion", "addon", c.Client.BaseURL(), "output", cfg.OutputFile)

	res, err := c.Client.Fetch(ctx)
	if err != nil {
		return err
	}
	run.CatalogsFetched.Set(float64(res.Stats.Catalogs))
	run.CatalogsFailed.Set(float64(res.Stats.CatalogsFailed))
	run.ItemsSkipped.Set(float64(res.Stats.Skipped))

	entries := Entries(res.Descriptors)
	doc := playlist.Render(entries, playlist.Options{Attributes: cfg.M3UAttributes})
	if err := c.Writer.Write(cfg.OutputFile, doc); err != nil {
		return err
	}

	written := playlist.Count(entries)
	run.ChannelsWritten.Set(float64(written))
	if written == 0 {
		log.Warn("Addon returned no playable channels, wrote empty playlist", "output", cfg.OutputFile)
	}
	log.Info("Playlist saved",
		"output", cfg.OutputFile,
		"channels", written,
		"catalogs", res.Stats.Catalogs,
		"catalogs_failed", res.Stats.CatalogsFailed,
		"skipped", res.Stats.Skipped,
	)
	return nil
}

// Entries maps addon descriptors to playlist entries, keeping order.
func Entries(descs []stremio.StreamDescriptor) []playlist.Entry {
	entries := make([]playlist.Entry, 0, len(descs))
	for _, d := range descs {
		entries = append(entries, playlist.Entry{
			Name:  d.Name,
			URL:   d.URL,
			Logo:  d.Logo,
			Group: d.Group,
		})
	}
	return entries
}
