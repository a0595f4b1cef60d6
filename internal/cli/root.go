// Package cli implements the quillmesh command line interface.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/quillmesh/config"
	"github.com/hupe1980/quillmesh/logging"
	"github.com/hupe1980/quillmesh/telemetry"
)

type appKey struct{}

// app is the per-invocation state shared by subcommands.
type app struct {
	cfg      config.Config
	logger   logging.Logger
	shutdown telemetry.Shutdown
}

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

func appFrom(ctx context.Context) (*app, error) {
	a, ok := ctx.Value(appKey{}).(*app)
	if !ok {
		return nil, errors.New("cli: configuration not loaded")
	}
	return a, nil
}

// NewRootCmd builds the quillmesh command tree.
func NewRootCmd(version string) *cobra.Command {
	var (
		configFile string
		envFiles   []string
		logLevel   string
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:          "quillmesh",
		Short:        "quillmesh researches, drafts and edits blog posts with a pipeline of agents",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(func(o *config.LoadOptions) {
				o.File = configFile
				if len(envFiles) > 0 {
					o.EnvFiles = envFiles
				}
			})
			if err != nil {
				return err
			}

			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if logFormat != "" {
				cfg.LogFormat = logFormat
			}
			cfg.ServiceVersion = cmd.Root().Version
			if err := cfg.Validate(); err != nil {
				return err
			}

			lc := cfg.LoggingConfig()
			lc.Output = cmd.ErrOrStderr()

			shutdown, err := telemetry.Init(cmd.Context(), func(o *telemetry.Options) {
				o.Endpoint = cfg.OTELEndpoint
				o.ServiceName = cfg.ServiceName
				o.ServiceVersion = cfg.ServiceVersion
			})
			if err != nil {
				return err
			}
			if err := telemetry.InitMetrics(); err != nil {
				return err
			}

			cmd.SetContext(withApp(cmd.Context(), &app{
				cfg:      cfg,
				logger:   logging.New(lc),
				shutdown: shutdown,
			}))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFrom(cmd.Context())
			if err != nil {
				return nil
			}
			return a.shutdown(context.WithoutCancel(cmd.Context()))
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file")
	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default: .env)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (env: QUILLMESH_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: json or text (env: QUILLMESH_LOG_FORMAT)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newBatchCmd())
	cmd.AddCommand(newConfigCmd())

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.SetVersionTemplate("{{.Version}}\n")
	if version != "" {
		cmd.Version = version
	} else {
		cmd.Version = "dev"
	}

	return cmd
}
