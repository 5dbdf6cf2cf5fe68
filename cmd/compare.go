package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zinc-sig/grader/cmd/helpers"
	"github.com/zinc-sig/grader/internal/grader"
	"github.com/zinc-sig/grader/internal/output"
)

func newCompareCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "compare <reference-file>",
		Short: "Score stdin against a reference output",
		Long: `Read stdin to the end and score it against <reference-file> with the same
fixed-offset comparison grade uses. Prints the Output sub-score.`,
		Example: `  ./lab1 < lab1.in | grader compare lab1.out
  grader compare lab1.out --format json < actual.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}

			res, err := helpers.NewComparator(a.settings).CompareFile(cmd.InOrStdin(), args[0])
			if err != nil {
				return &grader.InfraError{Stage: grader.StageCompare, Err: err}
			}

			if f == output.FormatJSON {
				data, err := json.Marshal(output.Comparison{
					Matched:        res.Matched,
					StreamBytes:    res.StreamBytes,
					ReferenceBytes: res.ReferenceBytes,
					Ratio:          output.Ratio(res),
				})
				if err != nil {
					return grader.ReportError(err)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "{\"output\":%d,\"comparison\":%s}\n", res.Percent, data)
				return grader.ReportError(err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "\nOutput: %d\n", res.Percent)
			return grader.ReportError(err)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}
