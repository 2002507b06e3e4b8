package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/getfnative/errors"
	"github.com/kbukum/getfnative/logger"
)

// RootCmd is the root Cobra command that gets called from the main func.
// The root command itself runs a sweep; other sub-commands are registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "getfnative [flags] <input>",
		Short: "Find the native fractional resolution of upscaled material",
		Long: `getfnative descales one frame at a range of candidate source heights and
plots the rescale error of each. The engine that computes the error of one
candidate is an external command configured by engine.command and engine.args.`,
		Args:          exactlyOneInput,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, args[0])
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.InvalidInput("flags", err.Error()).WithCause(err)
	})

	addSweepFlags(cmd)

	cmd.AddCommand(
		versionCmd(),
		historyCmd(),
	)

	return cmd
}

func exactlyOneInput(_ *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.InvalidInput("input", fmt.Sprintf("expected one input file, got %d arguments", len(args)))
	}
	return nil
}

// Execute runs the command line and returns the process exit status.
func Execute() int {
	return execute(context.Background(), RootCmd(), os.Args[1:])
}

func execute(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	code := errors.CodeOf(err)
	logger.Get(logger.ComponentCLI).Error("getfnative failed", logger.Fields(
		"code", string(code),
		logger.FieldError, err.Error(),
	))
	if code == errors.ErrCodeInvalidInput {
		fmt.Fprintf(cmd.ErrOrStderr(), "Run '%s --help' for usage.\n", cmd.Name())
	}
	return errors.ExitCode(code)
}
