package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zinc-sig/grader/cmd/helpers"
	"github.com/zinc-sig/grader/internal/compiler"
	"github.com/zinc-sig/grader/internal/grader"
	"github.com/zinc-sig/grader/internal/output"
)

type compileReport struct {
	Compilation int `json:"compilation"`
	output.Compile
}

func newCompileCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "compile <source>",
		Short: "Compile a submission and print the Compilation sub-score",
		Long: `Run the configured compiler on <source>, write its diagnostics to the side
file next to the program and print the Compilation sub-score with the
warning and error counts.`,
		Example: `  grader compile lab1.c
  GRADER_COMPILER="clang -Wall {src} -o {bin}" grader compile lab1.c --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			if _, err := compiler.ProgramName(args[0]); err != nil {
				return err
			}
			stage, err := helpers.NewStage(a.settings)
			if err != nil {
				return err
			}

			res, err := stage.Compile(cmd.Context(), args[0])
			if err != nil {
				return &grader.InfraError{Stage: grader.StageCompile, Err: err}
			}

			if f == output.FormatJSON {
				data, err := json.Marshal(compileReport{
					Compilation: res.Score(),
					Compile: output.Compile{
						Warnings:    res.Warnings,
						Errors:      res.Errors,
						Diagnostics: res.DiagnosticsPath,
						DurationMs:  res.Duration.Milliseconds(),
					},
				})
				if err != nil {
					return grader.ReportError(err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return grader.ReportError(err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "\nCompilation: %d\n\nWarnings: %d\nErrors: %d\n",
				res.Score(), res.Warnings, res.Errors)
			return grader.ReportError(err)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}
