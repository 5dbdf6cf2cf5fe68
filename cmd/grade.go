package cmd

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zinc-sig/grader/cmd/config"
	"github.com/zinc-sig/grader/cmd/helpers"
	"github.com/zinc-sig/grader/internal/fixture"
	"github.com/zinc-sig/grader/internal/grader"
	"github.com/zinc-sig/grader/internal/logger"
	"github.com/zinc-sig/grader/internal/output"
	"github.com/zinc-sig/grader/internal/upload"
)

func newGradeCmd(a *app) *cobra.Command {
	var flags config.GradeFlags

	cmd := &cobra.Command{
		Use:   "grade <source> <args-file> <input-file> <reference-file> <deadline>",
		Short: "Compile, run and score one submission",
		Long: `Compile <source>, run the program with the whitespace-separated tokens of
<args-file> as arguments and <input-file> as stdin, and compare its stdout
against <reference-file> while it runs.

<deadline> is whole seconds ("2") or a duration ("1500ms"). A program still
running at the deadline is killed with its whole process group.

Exit status is 0 when a report was produced (whatever the score), 1 for
usage errors and 255 when the grader itself failed.`,
		Example: `  grader grade lab1.c lab1.args lab1.in lab1.out 2
  grader grade lab1.c lab1.args lab1.in lab1.out 500ms --format json --meta-kv student=s123
  grader grade lab1.c lab1.args lab1.in lab1.out 2 --upload-provider minio --upload-config-file upload.toml`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.grade(cmd, args, &flags)
		},
	}

	helpers.SetupOutputFlags(cmd, &flags)
	helpers.SetupMetaFlags(cmd, &flags.Meta)
	helpers.SetupUploadFlags(cmd, &flags.Upload)
	helpers.SetupWebhookFlags(cmd, &flags.Webhook)
	return cmd
}

func (a *app) grade(cmd *cobra.Command, args []string, flags *config.GradeFlags) error {
	format, err := output.ParseFormat(flags.Format)
	if err != nil {
		return err
	}
	deadline, err := helpers.ParseDeadline(args[4])
	if err != nil {
		return err
	}

	req := grader.Request{
		SourcePath:    args[0],
		ArgsPath:      args[1],
		InputPath:     args[2],
		ReferencePath: args[3],
		Deadline:      deadline,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	metadata, err := helpers.BuildMetadata(&flags.Meta)
	if err != nil {
		return err
	}
	stage, err := helpers.NewStage(a.settings)
	if err != nil {
		return err
	}

	if flags.DryRun {
		tokens, err := fixture.LoadArgs(req.ArgsPath, helpers.ArgLimits(a.settings))
		if err != nil {
			return err
		}
		return helpers.PrintDryRun(cmd.OutOrStdout(), stage, req, tokens, metadata)
	}

	hook, err := helpers.NewWebhookClient(&flags.Webhook)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	ctx := logger.WithRunID(cmd.Context(), runID)

	provider, uploadConf, err := helpers.SetupUploadProvider(ctx, &flags.Upload)
	if err != nil {
		return err
	}

	g := grader.New(grader.Options{
		Compiler:      stage,
		Comparator:    helpers.NewComparator(a.settings),
		ArgLimits:     helpers.ArgLimits(a.settings),
		ProgramStderr: a.diagnostics(cmd),
		Trace:         a.diagnostics(cmd),
	})

	rep, err := g.Grade(ctx, req)
	if err != nil {
		return err
	}

	delivery := helpers.Delivery{Webhook: hook}
	if provider != nil {
		if a.flags.Verbose {
			helpers.PrintUploadInfo(cmd.ErrOrStderr(), provider, uploadConf, runID)
		}
		delivery.Artifacts = upload.NewArtifacts(provider, runID, uploadConf)
		delivery.DiagnosticsPath = rep.Compile.DiagnosticsPath
	}

	return helpers.Deliver(ctx, cmd.OutOrStdout(), format, output.New(runID, req, rep, metadata), delivery)
}
