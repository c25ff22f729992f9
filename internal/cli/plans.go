package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/qshape/internal/store"
)

// PlansOptions holds flags for the plans command.
type PlansOptions struct {
	*RootOptions
	Database    string
	Fingerprint string // optional - show a single plan
}

// PlanView is the JSON form of a cached plan.
type PlanView struct {
	Fingerprint string          `json:"fingerprint"`
	Seq         int64           `json:"seq"`
	Dialect     string          `json:"dialect"`
	Mode        string          `json:"mode"`
	SQL         string          `json:"sql"`
	Params      json.RawMessage `json:"params"`
	Report      json.RawMessage `json:"report,omitempty"`
}

// NewPlansCommand creates the plans command.
func NewPlansCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlansOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "List cached query plans",
		Long: `List the query plans cached by translate --db, in the order they
were first compiled. With --fingerprint, show one plan including its
full compilation report.

Examples:
  qshape plans --db ./plans.db
  qshape plans --db ./plans.db --fingerprint 3f2a...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlans(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "show the plan with this fingerprint")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runPlans(opts *PlansOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Reading must not create an empty database.
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return outputCommandError(formatter, ErrCodeDatabase, fmt.Sprintf("database not found: %s", opts.Database))
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err))
	}
	defer st.Close()

	if opts.Fingerprint != "" {
		plan, err := st.ReadPlan(ctx, opts.Fingerprint)
		if errors.Is(err, store.ErrPlanNotFound) {
			_ = formatter.Error(ErrCodePlanMissing, fmt.Sprintf("no plan with fingerprint %s", opts.Fingerprint), nil)
			return NewExitError(ExitFailure, "plan not found")
		}
		if err != nil {
			return outputCommandError(formatter, ErrCodeDatabase, err.Error())
		}
		return outputPlan(formatter, plan)
	}

	plans, err := st.ListPlans(ctx)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, err.Error())
	}
	return outputPlanList(formatter, plans)
}

func planView(p store.Plan, withReport bool) PlanView {
	v := PlanView{
		Fingerprint: p.Fingerprint,
		Seq:         p.Seq,
		Dialect:     p.Dialect,
		Mode:        p.Mode,
		SQL:         p.SQL,
		Params:      json.RawMessage(p.Params),
	}
	if withReport && p.Report != "" {
		v.Report = json.RawMessage(p.Report)
	}
	return v
}

func outputPlan(formatter *OutputFormatter, p store.Plan) error {
	if formatter.Format == "json" {
		return formatter.encode(CLIResponse{Status: "ok", Data: planView(p, true), Fingerprint: p.Fingerprint})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Plan #%d %s\n", p.Seq, p.Fingerprint)
	fmt.Fprintf(w, "  dialect: %s\n", p.Dialect)
	fmt.Fprintf(w, "  mode:    %s\n", p.Mode)
	fmt.Fprintf(w, "  sql:     %s\n", p.SQL)
	fmt.Fprintf(w, "  params:  %s\n", p.Params)
	fmt.Fprintf(w, "  report:  %s\n", p.Report)
	return nil
}

func outputPlanList(formatter *OutputFormatter, plans []store.Plan) error {
	if formatter.Format == "json" {
		views := make([]PlanView, len(plans))
		for i, p := range plans {
			views[i] = planView(p, false)
		}
		return formatter.Success(views)
	}

	w := formatter.Writer
	if len(plans) == 0 {
		fmt.Fprintln(w, "No plans cached.")
		return nil
	}
	for _, p := range plans {
		fmt.Fprintf(w, "#%d %s [%s, %s]\n  %s\n", p.Seq, shortFingerprint(p.Fingerprint), p.Dialect, p.Mode, p.SQL)
	}
	fmt.Fprintf(w, "\n%d plan(s)\n", len(plans))
	return nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
