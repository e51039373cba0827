package effort

import (
	"fmt"

	"reading-effort/internal/common/errors"
)

const (
	ClassToken     = "[CLS]"
	SeparatorToken = "[SEP]"
)

// TrimSpecialTokens drops a leading [CLS] and a trailing [SEP] from the
// model's token list together with the matching matrix rows and columns.
// The full matrix must be square before trimming. The inputs are not
// modified.
func TrimSpecialTokens(tokens []string, matrix [][]float64) ([]string, [][]float64, error) {
	if len(tokens) != len(matrix) {
		return nil, nil, errors.NewShapeError("tokens",
			fmt.Sprintf("%d tokens for a %d-row attention matrix", len(tokens), len(matrix)))
	}
	if len(tokens) > MaxSequenceLength {
		return nil, nil, errors.NewShapeError("tokens",
			fmt.Sprintf("%d tokens exceeds the model limit of %d", len(tokens), MaxSequenceLength))
	}

	if _, err := checkShape(matrix, nil); err != nil {
		return nil, nil, err
	}

	lo, hi := 0, len(tokens)
	if hi > 0 && tokens[0] == ClassToken {
		lo++
	}
	if hi > lo && tokens[hi-1] == SeparatorToken {
		hi--
	}

	trimmed := make([][]float64, 0, hi-lo)
	for i := lo; i < hi; i++ {
		row := make([]float64, hi-lo)
		copy(row, matrix[i][lo:hi])
		trimmed = append(trimmed, row)
	}

	out := make([]string, hi-lo)
	copy(out, tokens[lo:hi])
	return out, trimmed, nil
}

// Analysis is a Result together with the tokens it was computed for.
type Analysis struct {
	Tokens []string `json:"tokens,omitempty"`
	Result
}

// Analyze scores raw model output. Special tokens are trimmed first when
// tokens are given; knownness refers to the trimmed sequence.
func Analyze(tokens []string, matrix [][]float64, knownness []float64) (*Analysis, error) {
	if tokens != nil {
		var err error
		if tokens, matrix, err = TrimSpecialTokens(tokens, matrix); err != nil {
			return nil, err
		}
	} else if len(matrix) > MaxSequenceLength {
		return nil, errors.NewShapeError("attention_matrix",
			fmt.Sprintf("%d rows exceeds the model limit of %d", len(matrix), MaxSequenceLength))
	}

	res, err := Score(matrix, knownness)
	if err != nil {
		return nil, err
	}
	return &Analysis{Tokens: tokens, Result: *res}, nil
}
