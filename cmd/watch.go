package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/glassbox/internal/pipeline"
)

// watchDebounce collapses the burst of events editors emit on save.
const watchDebounce = 250 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the pipeline whenever the feed file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline("watch")
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		report := func(res *pipeline.Result) {
			fmt.Fprintln(out, pipeline.FormatReport(res))
		}

		res, err := env.Run(ctx)
		if err != nil {
			return err
		}
		report(res)

		return watchFeed(ctx, env, report)
	},
}

// watchFeed re-runs env each time its feed file is written or replaced and
// passes each result to onRun. It blocks until ctx is done. Run errors are
// logged and the previous result stays in the session.
func watchFeed(ctx context.Context, env *pipelineEnv, onRun func(*pipeline.Result)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "create watcher")
	}
	defer w.Close() //nolint:errcheck

	target, err := filepath.Abs(env.Feed)
	if err != nil {
		return eris.Wrap(err, "resolve feed path")
	}
	// Watch the directory so that atomic renames are seen.
	if err := w.Add(filepath.Dir(target)); err != nil {
		return eris.Wrapf(err, "watch %s", filepath.Dir(target))
	}

	log := zap.L().With(zap.String("component", "watch"), zap.String("feed", target))
	log.Info("watching feed")

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("watch stopped")
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isFeedChange(ev, target) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		case <-fire:
			res, err := env.Run(ctx)
			if err != nil {
				log.Error("re-run failed, keeping previous result", zap.Error(err))
				continue
			}
			log.Info("feed re-processed",
				zap.Int("leads", len(res.Leads)),
				zap.Int("rejections", len(res.Rejections)),
			)
			if onRun != nil {
				onRun(res)
			}
		}
	}
}

// isFeedChange reports whether ev writes or replaces the file at target.
func isFeedChange(ev fsnotify.Event, target string) bool {
	name, err := filepath.Abs(ev.Name)
	if err != nil || name != target {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
