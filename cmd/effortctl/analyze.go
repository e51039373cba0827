package main

import (
	"github.com/spf13/cobra"

	"reading-effort/internal/alignment"
	"reading-effort/internal/effort"
)

type scoreInput struct {
	Tokens    []string    `json:"tokens,omitempty"`
	Attention [][]float64 `json:"attention"`
	Knownness []float64   `json:"knownness,omitempty"`
}

func newScoreCmd() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score per-token effort from an attention matrix",
		Long: `Score reads {"attention": [[...]], "knownness": [...], "tokens": [...]}
and prints integration, contribution and effort per token. When tokens are
given, special tokens are trimmed from both the tokens and the matrix first.

Examples:
  effortctl score --input attention.json
  cat attention.json | effortctl score`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in scoreInput
			if err := readInput(cmd, input, &in); err != nil {
				return err
			}
			res, err := effort.Analyze(in.Tokens, in.Attention, in.Knownness)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON input file, - for stdin")
	return cmd
}

type alignOutput struct {
	Indices      []int `json:"indices"`
	MatchedCount int   `json:"matched_count"`
}

func newAlignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "align <query> <reference>",
		Short: "Align query words onto reference words",
		Long: `Align splits both texts into words and prints, for each query word, the
index of its reference word or -1.

Examples:
  effortctl align "Dogs bark." "the dogs bark loudly"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx := alignment.Align(alignment.SplitWords(args[0]), alignment.SplitWords(args[1]))
			return printJSON(cmd, alignOutput{Indices: idx, MatchedCount: alignment.MatchCount(idx)})
		},
	}
	return cmd
}
