package main

import (
	"github.com/spf13/cobra"

	"reading-effort/internal/correlation"
)

func newCorrelateCmd(a *app) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "correlate",
		Short: "Correlate per-word effort with the corpus measurements",
		Long: `Correlate reads {"words": [...], "effort": [...]} (or "attention" and
"knownness" in place of "effort"), aligns the words onto the corpus and prints
the Pearson correlation of effort with every measurement column.

Examples:
  effortctl correlate --dataset corpus.csv --input request.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req correlation.CorrelateRequest
			if err := readInput(cmd, input, &req); err != nil {
				return err
			}
			svc, release, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			res, err := svc.Correlate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON input file, - for stdin")
	return cmd
}

func newSeriesCmd(a *app) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Print corpus measurements aligned to query words",
		Long: `Series reads {"words": [...], "metrics": [...]} and prints one value per
query word for each metric, null where the word has no aligned measurement.

Examples:
  effortctl series --dataset corpus.csv --input words.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req correlation.SeriesRequest
			if err := readInput(cmd, input, &req); err != nil {
				return err
			}
			svc, release, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			res, err := svc.AlignedSeries(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON input file, - for stdin")
	return cmd
}

func newParagraphsCmd(a *app) *cobra.Command {
	var wordColumn string

	cmd := &cobra.Command{
		Use:   "paragraphs",
		Short: "List corpus groups and browsable columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, release, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			res, err := svc.Paragraphs(cmd.Context(), wordColumn)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVar(&wordColumn, "word-column", "", "Column to show as words")
	return cmd
}

func newParagraphCmd(a *app) *cobra.Command {
	var (
		groups     []string
		wordColumn string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "paragraph",
		Short: "Print the ordered words of one corpus group",
		Long: `Paragraph selects the rows matching every --group filter and prints their
words in reading order.

Examples:
  effortctl paragraph --dataset corpus.csv --group TextID=t2
  effortctl paragraph --group TextID=t2 --group Paragraph=3 --limit 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			group, err := parseGroup(groups)
			if err != nil {
				return err
			}
			svc, release, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			res, err := svc.Paragraph(cmd.Context(), correlation.ParagraphRequest{
				Group:      group,
				WordColumn: wordColumn,
				Limit:      limit,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringArrayVar(&groups, "group", nil, "Group filter as column=value (repeatable)")
	cmd.Flags().StringVar(&wordColumn, "word-column", "", "Column to show as words")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum words to print (0 for all)")
	return cmd
}

func newMetricsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "List the measurement columns present in the corpus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, release, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			res, err := svc.Metrics(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, map[string][]string{"metrics": res})
		},
	}
}
