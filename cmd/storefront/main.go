package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-storefront/internal/commands/rendercmd"
	"github.com/goliatone/go-storefront/internal/commands/themescmd"
	"github.com/goliatone/go-storefront/internal/di"
	"github.com/goliatone/go-storefront/internal/render"
	"github.com/goliatone/go-storefront/internal/runtimeconfig"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(context.Background(), os.Args); err != nil {
		slog.Error("storefront error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "storefront",
		Usage: "Render storefront themes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (defaults are used when empty)",
				Sources: cli.EnvVars("STOREFRONT_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve routed stores over HTTP",
				Action: runServe,
			},
			{
				Name:  "render",
				Usage: "Render a single page to stdout",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "store", Usage: "Store id", Required: true},
					&cli.StringFlag{Name: "theme", Usage: "Theme id", Required: true},
					&cli.StringFlag{Name: "path", Usage: "Request path", Value: "/"},
					&cli.StringFlag{Name: "query", Usage: "Raw query string, e.g. view=alternate"},
					&cli.StringFlag{Name: "locale", Usage: "Locale code"},
					&cli.StringFlag{Name: "variant", Usage: "Theme manifest variant"},
					&cli.StringFlag{Name: "out", Usage: "Write markup to a file instead of stdout"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runRender(ctx, cmd, stdout, stderr)
				},
			},
			{
				Name:  "import",
				Usage: "Import a theme directory into the configured theme store",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "store", Usage: "Store id", Required: true},
					&cli.StringFlag{Name: "theme", Usage: "Theme id", Required: true},
					&cli.StringFlag{Name: "dir", Usage: "Theme directory", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Display name"},
					&cli.StringFlag{Name: "version", Usage: "Theme version"},
					&cli.StringFlag{Name: "role", Usage: "main, unpublished or development", Value: "unpublished"},
					&cli.IntFlag{Name: "retries", Usage: "Retries on failure", Value: 0},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runImport(ctx, cmd, stdout)
				},
			},
		},
	}
}

func loadContainer(cmd *cli.Command) (*di.Container, error) {
	cfg, err := runtimeconfig.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	container, err := di.NewContainer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build container: %w", err)
	}
	return container, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	container, err := loadContainer(cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := container.Server()
	g, gCtx := errgroup.WithContext(ctx)
	if watcher := container.Watcher(); watcher != nil {
		g.Go(func() error {
			return watcher.Run(gCtx)
		})
	}
	g.Go(func() error {
		slog.Info("storefront listening", slog.String("address", server.Addr()))
		return server.Run(gCtx)
	})
	return g.Wait()
}

func runRender(ctx context.Context, cmd *cli.Command, stdout, stderr io.Writer) error {
	container, err := loadContainer(cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	query, err := url.ParseQuery(cmd.String("query"))
	if err != nil {
		return fmt.Errorf("parse query: %w", err)
	}

	sub := dispatcher.SubscribeCommand(container.RenderPageHandler())
	defer sub.Unsubscribe()

	var page *render.Page
	err = dispatcher.Dispatch(ctx, rendercmd.RenderPageCommand{
		StoreID: cmd.String("store"),
		ThemeID: cmd.String("theme"),
		Path:    cmd.String("path"),
		Query:   query,
		Locale:  cmd.String("locale"),
		Variant: cmd.String("variant"),
		ResultCallback: func(result *render.Page) {
			page = result
		},
	})
	if err != nil {
		return err
	}
	if page == nil {
		return fmt.Errorf("render produced no page")
	}

	for _, diagnostic := range page.Diagnostics {
		fmt.Fprintln(stderr, diagnostic.String())
	}

	if out := strings.TrimSpace(cmd.String("out")); out != "" {
		return os.WriteFile(out, []byte(page.HTML), 0o644)
	}
	_, err = io.WriteString(stdout, page.HTML)
	return err
}

func runImport(ctx context.Context, cmd *cli.Command, stdout io.Writer) error {
	container, err := loadContainer(cmd)
	if err != nil {
		return err
	}
	defer container.Close()

	handler := container.ImportThemeHandler()
	if handler == nil {
		return fmt.Errorf("themes provider %q does not accept imports", container.Config.Themes.Provider)
	}

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(int(cmd.Int("retries"))))
	defer sub.Unsubscribe()

	imported := 0
	err = dispatcher.Dispatch(ctx, themescmd.ImportThemeCommand{
		StoreID: cmd.String("store"),
		ThemeID: cmd.String("theme"),
		Name:    cmd.String("name"),
		Version: cmd.String("version"),
		Role:    cmd.String("role"),
		Dir:     cmd.String("dir"),
		Imported: func(count int) {
			imported = count
		},
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "imported %d files into %s/%s\n", imported, cmd.String("store"), cmd.String("theme"))
	return err
}
