package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/urfave/cli/v2"

	"github.com/GriffinCanCode/webdesk/internal/domain/registry"
	"github.com/GriffinCanCode/webdesk/internal/domain/session"
	"github.com/GriffinCanCode/webdesk/internal/infrastructure/config"
	"github.com/GriffinCanCode/webdesk/internal/infrastructure/logging"
	"github.com/GriffinCanCode/webdesk/internal/infrastructure/server"
	"github.com/GriffinCanCode/webdesk/internal/providers/storage"
	"github.com/GriffinCanCode/webdesk/internal/shared/types"
)

// newCLIApp creates the CLI application with all commands. Output goes to w.
func newCLIApp(cfg *config.Config, w io.Writer) *cli.App {
	app := &cli.App{
		Name:           "webdesk",
		Usage:          "Window manager backend for the webdesk shell",
		Version:        Version,
		Writer:         w,
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			serveCmd(cfg),
			appsCmd(cfg),
			sessionCmd(cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// storageFlags select the session store
func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "storage-driver", Usage: "Session store driver: memory|sqlite"},
		&cli.StringFlag{Name: "storage-path", Usage: "Directory holding the session database"},
	}
}

// serveCmd creates the serve command.
func serveCmd(cfg *config.Config) *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Usage: "Server port"},
		&cli.StringFlag{Name: "host", Usage: "Bind address"},
		&cli.BoolFlag{Name: "dev", Usage: "Development logging (console, debug level)"},
		&cli.StringFlag{Name: "apps-dir", Usage: "Directory scanned for app manifests"},
	}

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP and websocket server",
		Flags: append(flags, storageFlags()...),
		Action: func(c *cli.Context) error {
			cfg := applyFlags(c, cfg)
			if err := cfg.Validate(); err != nil {
				return cli.Exit(err.Error(), 1)
			}

			logCfg := logging.Config{Level: cfg.Logging.Level, Development: cfg.Logging.Development}
			if cfg.Logging.Development {
				logCfg = logging.DevelopmentConfig()
			}
			logger, err := logging.New(logCfg)
			if err != nil {
				return outputError(err)
			}

			srv, err := server.NewServer(cfg, server.WithLogger(logger))
			if err != nil {
				return outputError(err)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.Run(ctx); err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// appsCmd creates the apps command.
func appsCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "apps",
		Usage: "Inspect the app catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List built-in and manifest apps",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "apps-dir", Usage: "Directory scanned for app manifests"},
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only apps in this category"},
				},
				Action: func(c *cli.Context) error {
					cfg := applyFlags(c, cfg)

					apps := registry.NewManager()
					result, err := registry.NewSeeder(apps, cfg.Apps.Dir, nil).Seed()
					if err != nil {
						return outputError(err)
					}

					var category *string
					if c.IsSet("category") {
						cat := c.String("category")
						category = &cat
					}

					list := apps.ListApps(category)
					return outputJSON(c.App.Writer, map[string]interface{}{
						"apps":             list,
						"count":            len(list),
						"manifests_loaded": result.Loaded,
						"manifests_failed": result.Failed,
					})
				},
			},
		},
	}
}

// sessionOutput is the saved session as printed by session show
type sessionOutput struct {
	Found        bool                   `json:"found"`
	OpenWindows  []string               `json:"open_windows"`
	WindowStates []types.GeometryRecord `json:"window_states"`
}

// sessionCmd creates the session command.
func sessionCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Inspect or clear the saved session",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the saved open windows and geometry records",
				Flags: storageFlags(),
				Action: func(c *cli.Context) error {
					store, err := openStore(c, cfg)
					if err != nil {
						return outputError(err)
					}
					defer store.Close()

					bridge := session.NewBridge(store, nil)
					defer bridge.Close()

					snapshot, found, err := bridge.Load(c.Context)
					if err != nil {
						return outputError(err)
					}

					out := sessionOutput{Found: found, OpenWindows: snapshot.OpenWindows, WindowStates: snapshot.WindowStates}
					if out.OpenWindows == nil {
						out.OpenWindows = []string{}
					}
					if out.WindowStates == nil {
						out.WindowStates = []types.GeometryRecord{}
					}
					return outputJSON(c.App.Writer, out)
				},
			},
			{
				Name:  "clear",
				Usage: "Forget the saved session",
				Flags: storageFlags(),
				Action: func(c *cli.Context) error {
					store, err := openStore(c, cfg)
					if err != nil {
						return outputError(err)
					}
					defer store.Close()

					if err := clearSession(c.Context, store); err != nil {
						return outputError(err)
					}
					return outputJSON(c.App.Writer, map[string]bool{"cleared": true})
				},
			},
		},
	}
}

// applyFlags returns a copy of cfg with every set flag applied
func applyFlags(c *cli.Context, cfg *config.Config) *config.Config {
	out := *cfg

	if c.IsSet("port") {
		out.Server.Port = c.String("port")
	}
	if c.IsSet("host") {
		out.Server.Host = c.String("host")
	}
	if c.IsSet("dev") {
		out.Logging.Development = c.Bool("dev")
	}
	if c.IsSet("apps-dir") {
		out.Apps.Dir = c.String("apps-dir")
	}
	if c.IsSet("storage-driver") {
		out.Storage.Driver = c.String("storage-driver")
	}
	if c.IsSet("storage-path") {
		out.Storage.Path = c.String("storage-path")
	}
	return &out
}

// openStore opens the durable session store named by flags and config
func openStore(c *cli.Context, cfg *config.Config) (storage.Store, error) {
	cfg = applyFlags(c, cfg)
	if cfg.Storage.Driver == storage.DriverMemory {
		return nil, fmt.Errorf("the %q driver keeps no saved session; use --storage-driver=%s", storage.DriverMemory, storage.DriverSQLite)
	}
	return storage.Open(storage.Config{Driver: cfg.Storage.Driver, Path: cfg.Storage.Path})
}

func clearSession(ctx context.Context, store storage.Store) error {
	for _, key := range []string{session.KeyOpenWindows, session.KeyWindowStates} {
		if err := store.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return outputError(err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// outputError formats error for CLI.
func outputError(err error) error {
	return cli.Exit(err.Error(), 1)
}
