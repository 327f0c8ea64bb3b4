// Command present runs the engagement deck in a terminal against a running
// deck server.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/deck/internal/adapters/client"
	"github.com/okian/deck/internal/adapters/tui"
	"github.com/okian/deck/internal/domain/gate"
	"github.com/okian/deck/pkg/logger"
)

const (
	defaultURL     = "http://localhost:9080"
	defaultFrame   = 16 * time.Millisecond
	defaultTimeout = 10 * time.Second
)

type presentFlags struct {
	url       string
	noAnimate bool
	logFile   string
	logLevel  string
	frame     time.Duration
	timeout   time.Duration
}

func newRootCmd() *cobra.Command {
	var f presentFlags

	root := &cobra.Command{
		Use:   "present",
		Short: "Present an engagement deck in the terminal",
		Long: `Connects to a deck server, unlocks it with the shared password and
presents the slides full-screen.

Keys: arrows/space/enter navigate, 1-9 jump, home/end, tab cycles hover
targets, o opens row details, q quits. The mouse hovers and clicks.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPresent(cmd.Context(), f)
		},
	}

	root.Flags().StringVar(&f.url, "url", defaultURL, "Deck server base URL")
	root.Flags().BoolVar(&f.noAnimate, "no-animate", false, "Disable counters and live tickers")
	root.Flags().StringVar(&f.logFile, "log", "", "Write logs to this file (discarded when empty)")
	root.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	root.Flags().DurationVar(&f.frame, "frame", defaultFrame, "Animation frame interval")
	root.Flags().DurationVar(&f.timeout, "timeout", defaultTimeout, "HTTP request timeout")

	root.AddCommand(newHashCmd())
	return root
}

func newHashCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash <password>",
		Short: "Print a bcrypt hash to use as DECK_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := gate.HashSecret(args[0], cost)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
	cmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost (0 uses the library default)")
	return cmd
}

func runPresent(ctx context.Context, f presentFlags) error {
	// The terminal belongs to the presenter, so logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if f.logFile != "" {
		file, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer file.Close()
		out = file
	}
	if err := logger.Init(logger.WithWriter(out)); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := logger.SetLevelString(f.logLevel); err != nil {
		return err
	}
	log := logger.Named("present")

	c, err := client.New(f.url,
		client.WithTimeout(f.timeout),
		client.WithLogger(log.Named("client")),
	)
	if err != nil {
		return err
	}

	log.Info(ctx, "presenting", logger.String("url", f.url), logger.Bool("animate", !f.noAnimate))
	return tui.Run(ctx, c, tui.Options{
		Animate: !f.noAnimate,
		Frame:   f.frame,
		Logger:  log.Named("tui"),
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
