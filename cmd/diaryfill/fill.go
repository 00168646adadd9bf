package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javajack/diaryfill"
	"github.com/javajack/diaryfill/internal/logging"
)

type fillFlags struct {
	output string
	today  string
	dryRun bool
	json   bool
}

func (a *app) newFillCmd() *cobra.Command {
	var flags fillFlags
	cmd := &cobra.Command{
		Use:   "fill <file.xlsx>",
		Short: "Fill the diary in place (or into --output)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFill(cmd.OutOrStdout(), args[0], flags)
		},
	}
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write the result here instead of saving in place")
	cmd.Flags().StringVar(&flags.today, "today", "", "Treat this date (YYYY-MM-DD, JST) as today")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Report what would be filled without writing")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print the run summary as JSON")
	return cmd
}

func (a *app) runFill(out io.Writer, path string, flags fillFlags) error {
	opts, err := a.fillOptions(flags.today)
	if err != nil {
		return err
	}
	opts = append(opts, diaryfill.WithDryRun(flags.dryRun))
	filler := diaryfill.NewFiller(opts...)

	var sum *diaryfill.Summary
	if flags.output != "" && !flags.dryRun {
		sum, err = fillTo(filler, path, flags.output)
	} else {
		sum, err = filler.FillFile(path)
	}
	if err != nil {
		a.log.Error("process_error", zap.String("file", path), zap.Error(err))
		return err
	}
	a.log.Info("process_done", append(logging.SummaryFields(sum), zap.String("file", path))...)

	if flags.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sum); err != nil {
			return err
		}
	} else {
		verb := "filled"
		if sum.DryRun {
			verb = "to fill"
		}
		fmt.Fprintf(out, "%s (%s, today %s): %d cells %s, %d rows evaluated, %d holidays skipped\n",
			sum.Sheet, sum.SelectedBy, sum.Today, sum.ModifiedCount, verb, sum.RowsEvaluated, sum.HolidaysSkipped)
	}
	if sum.NoOp() {
		return errNothingFilled
	}
	return nil
}

// fillTo reads src and writes the filled workbook to dst. dst is only
// written once the run has succeeded.
func fillTo(filler *diaryfill.Filler, src, dst string) (*diaryfill.Summary, error) {
	in, err := os.Open(src)
	if err != nil {
		return nil, &diaryfill.StorageError{Op: "open", Path: src, Err: err}
	}
	defer in.Close()

	var out bytes.Buffer
	sum, err := filler.FillWriter(in, &out)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(dst, out.Bytes(), 0o644); err != nil {
		return nil, &diaryfill.StorageError{Op: "save", Path: dst, Err: err}
	}
	return sum, nil
}

// fillOptions returns the configured engine options plus the reference date
// from --today and the debug fill logger.
func (a *app) fillOptions(today string) ([]diaryfill.Option, error) {
	opts := a.cfg.FillOptions()
	if today != "" {
		d, err := time.ParseInLocation(time.DateOnly, today, diaryfill.JST)
		if err != nil {
			return nil, fmt.Errorf("invalid --today %q: want YYYY-MM-DD", today)
		}
		opts = append(opts, diaryfill.WithReferenceDate(d))
	}
	return append(opts, diaryfill.WithFillListener(logging.NewFillLogger(a.log))), nil
}

func (a *app) newDescribeCmd() *cobra.Command {
	var today string
	cmd := &cobra.Command{
		Use:   "describe <file.xlsx>",
		Short: "Explain what fill would do, row by row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.fillOptions(today)
			if err != nil {
				return err
			}
			report, err := diaryfill.Describe(args[0], opts...)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), report)
			return err
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "Treat this date (YYYY-MM-DD, JST) as today")
	return cmd
}

func (a *app) newValidateCmd() *cobra.Command {
	var today string
	cmd := &cobra.Command{
		Use:   "validate [file.xlsx]",
		Short: "Check the configuration, and optionally a workbook against it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.fillOptions(today)
			if err != nil {
				return err
			}
			var issues []diaryfill.ValidationIssue
			if len(args) == 1 {
				issues, err = diaryfill.ValidateFile(args[0], opts...)
				if err != nil {
					return err
				}
			} else {
				issues = diaryfill.Validate(opts...)
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, issue := range issues {
				fmt.Fprintln(out, issue)
				if issue.Severity == diaryfill.SeverityError {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d configuration error(s)", failed)
			}
			if len(issues) == 0 {
				fmt.Fprintln(out, "OK")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "Treat this date (YYYY-MM-DD, JST) as today")
	return cmd
}
