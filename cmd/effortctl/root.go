package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"reading-effort/internal/common/config"
	"reading-effort/internal/common/database"
	"reading-effort/internal/common/logger"
	"reading-effort/internal/correlation"
	"reading-effort/internal/dataset"
)

// version is stamped at build time with -ldflags.
var version = "dev"

// app carries the persistent flags shared by every command.
type app struct {
	configPath string
	datasetArg string
	source     string
	table      string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "effortctl",
		Short: "Score reading effort and correlate it with reading behavior",
		Long: `effortctl runs the reading-effort analyses locally.

It scores per-token effort from an attention matrix, aligns word sequences and
correlates effort with the eye-tracking measurements of a reference corpus.
The corpus comes from --dataset or from the dataset section of the config.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("effortctl version {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default: configs/config.yaml lookup)")
	flags.StringVar(&a.datasetArg, "dataset", "", "Corpus file; overrides the configured dataset")
	flags.StringVar(&a.source, "source", "", "Corpus source for --dataset: csv or sqlite (default: by extension)")
	flags.StringVar(&a.table, "table", "", "Table to read for sqlite corpora")
	flags.StringVar(&a.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newScoreCmd(),
		newAlignCmd(),
		newCorrelateCmd(a),
		newSeriesCmd(a),
		newParagraphsCmd(a),
		newParagraphCmd(a),
		newMetricsCmd(a),
		newRegistryCmd(),
	)
	return root
}

func (a *app) logger() logger.Logger {
	return logger.NewStructured(a.logLevel, "console")
}

// datasetConfig resolves where the corpus lives. Postgres corpora also return
// the open connection, which the caller closes.
func (a *app) datasetConfig(ctx context.Context) (config.DatasetConfig, *database.PostgresClient, error) {
	if a.datasetArg != "" {
		source := a.source
		if source == "" {
			source = sourceFromPath(a.datasetArg)
		}
		return config.DatasetConfig{Source: source, Path: a.datasetArg, Table: a.table}, nil, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFromFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.DatasetConfig{}, nil, err
	}
	if !cfg.IsPostgresSource() {
		return cfg.Dataset, nil, nil
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return config.DatasetConfig{}, nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		return config.DatasetConfig{}, nil, err
	}
	return cfg.Dataset, pg, nil
}

// service builds a correlation service over the resolved corpus. The returned
// func releases any database connection.
func (a *app) service(ctx context.Context) (*correlation.Service, func(), error) {
	dcfg, pg, err := a.datasetConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if pg != nil {
			pg.Close()
		}
	}

	log := a.logger()
	provider, err := dataset.NewFromConfig(dcfg, postgresDB(pg), log)
	if err != nil {
		release()
		return nil, nil, err
	}
	return correlation.NewService(provider, log), release, nil
}

func postgresDB(pg *database.PostgresClient) *sql.DB {
	if pg == nil {
		return nil
	}
	return pg.DB
}

func sourceFromPath(path string) string {
	lower := strings.ToLower(path)
	for _, ext := range []string{".sqlite", ".sqlite3", ".db"} {
		if strings.HasSuffix(lower, ext) {
			return config.SourceSQLite
		}
	}
	return config.SourceCSV
}

// readInput reads a JSON request from path, or stdin for "-".
func readInput(cmd *cobra.Command, path string, dst interface{}) error {
	var r io.Reader
	if path == "" || path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseGroup turns repeated key=value flags into a group filter.
func parseGroup(pairs []string) (correlation.Group, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	g := make(correlation.Group, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("group filter %q is not key=value", p)
		}
		g[strings.TrimSpace(k)] = v
	}
	return g, nil
}
