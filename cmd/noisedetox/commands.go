package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/noisedetox/internal/analysis"
	"github.com/HendryAvila/noisedetox/internal/config"
	"github.com/HendryAvila/noisedetox/internal/logging"
	"github.com/HendryAvila/noisedetox/internal/notify"
	"github.com/HendryAvila/noisedetox/internal/records"
	"github.com/HendryAvila/noisedetox/internal/server"
	"github.com/HendryAvila/noisedetox/internal/tools"
	"github.com/HendryAvila/noisedetox/internal/transfer"
)

// app holds the persistent flag values and the output streams.
type app struct {
	overrides config.Overrides
	stdout    io.Writer
	stderr    io.Writer
}

// setup resolves the configuration and the logger. Logs always go to
// stderr; stdout is reserved for command output and the MCP protocol.
func (a *app) setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(a.overrides)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger, err := logging.Setup(cfg.LogLevel, a.stderr)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// withStore runs fn against an opened store and closes it afterwards.
func (a *app) withStore(fn func(cfg *config.Config, store *records.Store, logger zerolog.Logger) error) error {
	cfg, logger, err := a.setup()
	if err != nil {
		return err
	}
	store, cleanup, err := server.OpenStore(cfg, logger)
	defer cleanup()
	if err != nil {
		return err
	}
	return fn(cfg, store, logger)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "noisedetox",
		Short:         "Noise exposure and wellbeing tracker with an MCP server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&a.overrides.DataDir, "data-dir", "d", "", "Data directory (default ~/.noisedetox)")
	root.PersistentFlags().StringVarP(&a.overrides.Backend, "backend", "b", "", "Storage backend: sqlite, file or memory")
	root.PersistentFlags().StringVar(&a.overrides.LogLevel, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		a.serveCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.clearCmd(),
		a.statsCmd(),
		a.configCmd(),
		a.versionCmd(),
	)
	return root
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.setup()
			if err != nil {
				return err
			}
			s, cleanup, err := server.New(cfg, logger)
			defer cleanup()
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			return mcpserver.ServeStdio(s)
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every section to noise-detox-data-<date>.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(cfg *config.Config, store *records.Store, logger zerolog.Logger) error {
				dir := out
				if dir == "" {
					dir = cfg.ExportDir
				}
				path, err := transfer.Export(store, dir, notify.NewLog(logger))
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Directory to write into (default: configured export directory)")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Restore the sections present in an export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(_ *config.Config, store *records.Store, logger zerolog.Logger) error {
				res, err := transfer.ImportFile(store, args[0], notify.NewLog(logger))
				if err != nil {
					return err
				}
				sections := res.Sections()
				if len(sections) == 0 {
					fmt.Fprintln(a.stdout, "nothing imported")
					return nil
				}
				for _, s := range sections {
					fmt.Fprintln(a.stdout, "imported", s)
				}
				return nil
			})
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all diary entries, hearing tests and settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to clear data without --yes")
			}
			return a.withStore(func(_ *config.Config, store *records.Store, logger zerolog.Logger) error {
				if err := store.Clear(); err != nil {
					return err
				}
				logger.Info().Msg("all data cleared")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	var (
		days   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the summary report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days > analysis.MaxDays {
				return fmt.Errorf("--days must be at most %d", analysis.MaxDays)
			}
			return a.withStore(func(_ *config.Config, store *records.Store, _ zerolog.Logger) error {
				s, err := tools.Summary(store, days)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(a.stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(s)
				}
				_, err = fmt.Fprint(a.stdout, analysis.Markdown(s))
				return err
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", analysis.DefaultDays, "Trailing window in calendar days")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of markdown")
	return cmd
}

func (a *app) configCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.overrides)
			if err != nil {
				return err
			}
			if write {
				if err := cfg.Save(); err != nil {
					return err
				}
				fmt.Fprintf(a.stderr, "wrote %s\n", config.Path(cfg.DataDir))
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "# data_dir: %s\n%s", cfg.DataDir, data)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Also save it to <data-dir>/config.yaml")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "noisedetox v%s\n", server.Version)
		},
	}
}
