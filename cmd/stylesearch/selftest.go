package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	healthuc "github.com/kailas-cloud/stylesearch/internal/usecase/health"
)

var errSelftestFailed = errors.New("selftest failed")

func newSelftestCmd(env *string) *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Check connectivity to the embedding provider, vector index and catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), *env, false)
			if err != nil {
				return err
			}
			defer a.close()
			return runSelftest(cmd.Context(), cmd.OutOrStdout(), a.health)
		},
	}
}

type healthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

func runSelftest(ctx context.Context, out io.Writer, checker healthChecker) error {
	fmt.Fprintln(out, "Testing service connections...")

	report := checker.Check(ctx)
	for _, name := range healthuc.Components {
		c, ok := report.Checks[name]
		if !ok {
			continue
		}
		if c.Result == healthuc.CheckOK {
			if c.Detail != "" {
				fmt.Fprintf(out, "PASS %s: %s\n", name, c.Detail)
			} else {
				fmt.Fprintf(out, "PASS %s\n", name)
			}
			continue
		}
		fmt.Fprintf(out, "FAIL %s: %v\n", name, c.Err)
	}

	if report.Failed() {
		return errSelftestFailed
	}
	fmt.Fprintln(out, "Connection tests completed!")
	return nil
}
