package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tillfalko/interpolation-engine/internal/analyzer"
	"github.com/tillfalko/interpolation-engine/internal/loadctx"
	"github.com/tillfalko/interpolation-engine/internal/program"
)

func checkCmd() *cobra.Command {
	var insertsDir string

	cmd := &cobra.Command{
		Use:   "check <program>",
		Short: "Validate a program without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := program.Load(args[0])
			if err != nil {
				return fmt.Errorf("load program: %w", err)
			}

			ctx, err := loadctx.New(programDirOf(args[0]), insertsDir)
			if err != nil {
				return fmt.Errorf("load inserts context: %w", err)
			}

			diags := analyzer.Analyze(p, ctx)
			if len(diags) == 0 {
				fmt.Println("ok: no diagnostics")
				return nil
			}
			for _, d := range diags {
				fmt.Println(d.String())
			}
			return fmt.Errorf("%d diagnostic(s)", len(diags))
		},
	}
	cmd.Flags().StringVar(&insertsDir, "inserts-dir", "", "directory backing the inserts map")
	return cmd
}
