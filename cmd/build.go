package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/sitebot/internal/chatbot"
)

var buildFile string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build chatbots for every company in a YAML manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		targets, err := loadManifest(buildFile)
		if err != nil {
			return err
		}

		env, err := initApp(ctx, cfg, "build")
		if err != nil {
			return err
		}
		defer env.Close()

		_, err = processBuild(ctx, targets, cfg.Batch.MaxConcurrent, env.Service.CreateChatbot)
		return err
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildFile, "file", "companies.yaml", "YAML list of {name, url} entries")
	rootCmd.AddCommand(buildCmd)
}

// buildTarget is one manifest entry.
type buildTarget struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// buildSummary counts the outcome of a batch build.
type buildSummary struct {
	Succeeded int64
	Failed    int64
}

// createFunc is the callback signature for building one chatbot.
type createFunc func(ctx context.Context, name, websiteURL string) (*chatbot.CreateResult, error)

func loadManifest(path string) ([]buildTarget, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read manifest %s", path)
	}
	var targets []buildTarget
	if err := yaml.Unmarshal(raw, &targets); err != nil {
		return nil, eris.Wrapf(err, "parse manifest %s", path)
	}
	out := targets[:0]
	for _, t := range targets {
		t.Name = strings.TrimSpace(t.Name)
		t.URL = strings.TrimSpace(t.URL)
		if t.Name == "" || t.URL == "" {
			zap.L().Warn("skipping manifest entry without name or url", zap.String("name", t.Name), zap.String("url", t.URL))
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// processBuild builds chatbots concurrently. Individual failures are logged
// and counted but never abort the batch.
func processBuild(ctx context.Context, targets []buildTarget, concurrency int, create createFunc) (buildSummary, error) {
	if len(targets) == 0 {
		zap.L().Info("no companies to build")
		return buildSummary{}, nil
	}
	if concurrency < 1 {
		concurrency = 1
	}

	zap.L().Info("building chatbots",
		zap.Int("companies", len(targets)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, target := range targets {
		g.Go(func() error {
			log := zap.L().With(zap.String("company", target.Name), zap.String("url", target.URL))

			res, err := create(gctx, target.Name, target.URL)
			if err != nil {
				failed.Add(1)
				log.Error("build failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			log.Info("build complete",
				zap.String("company_id", res.Session.CompanyID),
				zap.Int("services", res.ServicesCount),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return buildSummary{}, eris.Wrap(err, "build batch")
	}

	summary := buildSummary{Succeeded: succeeded.Load(), Failed: failed.Load()}
	zap.L().Info("build finished",
		zap.Int64("succeeded", summary.Succeeded),
		zap.Int64("failed", summary.Failed),
	)
	return summary, nil
}
