package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qshape/internal/compiler"
	"github.com/roach88/qshape/internal/dialect/sqlite"
	"github.com/roach88/qshape/internal/harness"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/store"
)

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	Database string // SQLite database for the plan cache and execution
	Exec     bool   // execute the query against Database
}

// TranslateResult is the outcome of translating one scenario.
type TranslateResult struct {
	Report *harness.Report `json:"report"`
	Errors []string        `json:"errors,omitempty"`
	Cached bool            `json:"cached,omitempty"`
	Rows   *int            `json:"rows,omitempty"`
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <scenario.yaml>",
		Short: "Translate one scenario to SQL and a client shape",
		Long: `Translate one scenario: bind its shape over its model, generate SQL
for the scenario's dialect and print the report.

With --db the compiled plan is stored in the plan cache under the
query fingerprint. With --exec the model's tables are created in the
database and the query is executed; the row count is reported.

Examples:
  qshape translate ./scenarios/entity_paging.yaml
  qshape translate ./scenarios/entity_paging.yaml --db ./plans.db
  qshape translate ./scenarios/entity_paging.yaml --db ./shop.db --exec --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for the plan cache")
	cmd.Flags().BoolVar(&opts.Exec, "exec", false, "execute the query against the --db database")

	return cmd
}

func runTranslate(opts *TranslateOptions, scenarioFile string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Exec && opts.Database == "" {
		return outputCommandError(formatter, ErrCodeDatabase, "--exec requires --db")
	}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return outputCommandError(formatter, ErrCodeScenario, err.Error())
	}
	if opts.Exec && scenario.Dialect != "" && scenario.Dialect != sqlite.Name {
		return outputCommandError(formatter, ErrCodeDatabase,
			fmt.Sprintf("--exec needs the %s dialect, scenario uses %s", sqlite.Name, scenario.Dialect))
	}

	run, err := harness.RunContext(ctx, scenario)
	if err != nil {
		return outputCommandError(formatter, ErrCodeScenario, err.Error())
	}
	report := run.Report
	formatter.VerboseLog("Translated %s in %s mode", scenario.Name, report.Mode)

	result := &TranslateResult{Report: report, Errors: run.Errors}
	if opts.Database != "" && report.Error == "" {
		if err := persistPlan(ctx, opts, scenario, result); err != nil {
			var checkErr *store.CheckError
			if errors.As(err, &checkErr) {
				_ = formatter.Error(ErrCodeRejected, checkErr.Error(), nil)
				return WrapExitError(ExitFailure, "query rejected", err)
			}
			return outputCommandError(formatter, ErrCodeDatabase, err.Error())
		}
	}

	if err := outputTranslate(formatter, result); err != nil {
		return err
	}
	if !run.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%d expectation(s) failed", len(run.Errors)))
	}
	return nil
}

// persistPlan caches the compiled plan and, with --exec, runs the query.
func persistPlan(ctx context.Context, opts *TranslateOptions, scenario *harness.Scenario, result *TranslateResult) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	report := result.Report
	params, err := store.MarshalParams(report.Params)
	if err != nil {
		return err
	}
	data, err := harness.MarshalReport(report)
	if err != nil {
		return err
	}

	_, err = st.ReadPlan(ctx, report.Fingerprint)
	switch {
	case err == nil:
		result.Cached = true
	case errors.Is(err, store.ErrPlanNotFound):
		if err := st.WritePlan(ctx, store.Plan{
			Fingerprint: report.Fingerprint,
			Dialect:     report.Dialect,
			Mode:        report.Mode,
			SQL:         report.SQL,
			Params:      params,
			Report:      string(data),
		}); err != nil {
			return err
		}
	default:
		return err
	}

	if !opts.Exec {
		return nil
	}
	rows, err := executePlan(ctx, st, scenario.Model, report)
	if err != nil {
		return err
	}
	result.Rows = &rows
	return nil
}

// executePlan creates the model's tables and runs the query, returning
// the number of rows read.
func executePlan(ctx context.Context, st *store.Store, modelDir string, report *harness.Report) (int, error) {
	loaded, err := compiler.LoadModel(modelDir)
	if err != nil {
		return 0, err
	}
	if err := st.ApplyModel(ctx, loaded.Model); err != nil {
		return 0, err
	}
	if err := st.Check(ctx, report.SQL); err != nil {
		return 0, err
	}

	rows, err := st.Query(ctx, report.SQL, report.Params...)
	if err != nil {
		return 0, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		n++
	}
	return n, rows.Err()
}

// outputTranslate prints the report in the configured format.
func outputTranslate(formatter *OutputFormatter, result *TranslateResult) error {
	report := result.Report
	if formatter.Format == "json" {
		return formatter.encode(CLIResponse{Status: "ok", Data: result, Fingerprint: report.Fingerprint})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Scenario: %s (%s)\n", report.Scenario, report.Dialect)
	if report.Error != "" {
		fmt.Fprintf(w, "Binding failed: %s\n", report.Error)
		printErrors(formatter, result.Errors)
		return nil
	}

	fmt.Fprintf(w, "Mode: %s (passes: %s)\n", report.Mode, strings.Join(report.Passes, ", "))
	if report.Fallback != "" {
		fmt.Fprintf(w, "Client-evaluated: %s\n", report.Fallback)
	}
	fmt.Fprintf(w, "\nSQL:\n  %s\n", report.SQL)
	if len(report.Params) > 0 {
		fmt.Fprintln(w, "Params:")
		for i, p := range report.Params {
			fmt.Fprintf(w, "  %d: %s\n", i+1, formatParam(p))
		}
	}
	fmt.Fprintf(w, "\nShape:\n  %s\n", report.Shape)
	for _, s := range report.Slots {
		fmt.Fprintf(w, "  %s -> %v\n", s.Slot, s.Columns)
	}
	for _, e := range report.Entities {
		fmt.Fprintf(w, "  entity %s (%s)", e.Entity, e.Table)
		if len(e.Includes) > 0 {
			fmt.Fprintf(w, " includes %s", strings.Join(e.Includes, ", "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nFingerprint: %s\n", report.Fingerprint)
	if result.Cached {
		fmt.Fprintln(w, "Plan already cached")
	}
	if result.Rows != nil {
		fmt.Fprintf(w, "Rows: %d\n", *result.Rows)
	}
	printErrors(formatter, result.Errors)
	return nil
}

// formatParam renders a bound value the way shapes print constants.
func formatParam(p any) string {
	v, err := ir.FromGo(p)
	if err != nil {
		return fmt.Sprint(p)
	}
	return ir.Format(v)
}

func printErrors(formatter *OutputFormatter, errs []string) {
	if len(errs) == 0 {
		return
	}
	fmt.Fprintln(formatter.Writer, "\n✗ Expectations failed")
	for _, e := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", e)
	}
}
