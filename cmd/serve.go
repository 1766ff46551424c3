package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vatsalai/vatsal/internal/container"
)

var (
	servePort      int
	serveNoDesktop bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge, desktop backend and web server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Web port (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoDesktop, "no-desktop", false, "Do not start the built-in desktop backend")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Web.Port = servePort
	}
	if serveNoDesktop {
		cfg.Desktop.Enabled = false
	}

	c, err := container.New(cfg)
	if err != nil {
		return fmt.Errorf("wire services: %w", err)
	}

	fmt.Printf("%s Starting vatsal on http://%s ...\n", logo, cfg.Web.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := c.Bridge()
	b.Start()
	defer b.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Server().Start(gctx) })

	if r := c.Runner(); r != nil {
		fmt.Println("✓ Desktop backend enabled")
		g.Go(func() error { return r.Run(gctx) })
	} else {
		fmt.Println("Warning: no built-in desktop backend; commands wait for an external one")
	}
	if rep := c.Reporter(); rep != nil {
		g.Go(func() error { return rep.Start(gctx) })
	}
	if n := c.Notifier(); n != nil {
		fmt.Printf("✓ Slack notifications to %s\n", cfg.Slack.Channel)
		g.Go(func() error { return n.Run(gctx) })
	}

	fmt.Printf("%s Bridge running. Press Ctrl+C to stop.\n", logo)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "serve error: %v\n", err)
		return err
	}
	fmt.Println("\nShutdown complete.")
	return nil
}
