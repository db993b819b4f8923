package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nvali/chronotap/internal/engine"
	"github.com/nvali/chronotap/internal/identity"
	"github.com/nvali/chronotap/internal/logger"
	"github.com/nvali/chronotap/internal/track"
	"github.com/nvali/chronotap/internal/watch"
)

var startCmd = &cobra.Command{
	Use:   "start [dir]",
	Short: "Run the tracking agent in the foreground",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workDir, err := os.Getwd()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			if workDir, err = resolveAbs(args[0]); err != nil {
				return err
			}
		}

		st, err := openStore()
		if err != nil {
			return err
		}

		// Expired records are pruned once per run, on the way in.
		clock := track.SystemClock{}
		if n, err := st.Cleanup(clock.Now(), cfg.RetentionDays); err == nil && n > 0 {
			logger.Infof("removed %d expired day records", n)
		}

		eng := engine.New(clock, identity.NewGitResolver(clock), st, engine.Options{
			HeartbeatInterval: cfg.HeartbeatInterval(),
			IdleThreshold:     cfg.IdleThreshold(),
			WorkDir:           workDir,
		})
		eng.Start()

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		w := &watch.Watcher{WorkDir: workDir, IgnorePatterns: cfg.IgnorePatterns}
		go func() {
			if err := w.Run(ctx, eng); err != nil {
				logger.Warnf("file watcher unavailable: %v", err)
			}
		}()

		cmd.Printf("Tracking %s. Press Ctrl-C to stop.\n", workDir)
		// Run blocks until the signal context is cancelled, then performs
		// the final synchronous flush inside Stop.
		eng.Run(ctx)
		cmd.Println("Tracking stopped.")
		return nil
	},
}

func resolveAbs(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", os.ErrInvalid
	}
	return filepath.Abs(path)
}

func init() {
	rootCmd.AddCommand(startCmd)
}
