package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qshape/internal/compiler"
	"github.com/roach88/qshape/internal/ir"
	"github.com/roach88/qshape/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // output file path
	Database string // SQLite database to create tables in
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	EntityCount     int `json:"entities"`
	PropertyCount   int `json:"properties"`
	NavigationCount int `json:"navigations"`
}

// CompilationResult is the compiled model with its statistics.
type CompilationResult struct {
	Model *ir.Model        `json:"model"`
	Stats CompilationStats `json:"stats"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <model-dir>",
		Short: "Compile a CUE entity model",
		Long: `Compile a CUE entity model to its JSON form.

The compiler parses the CUE files, validates entities and navigations,
and prints the compiled model. With --db, a table is created in the
SQLite database for every entity so generated queries can be checked
and executed against it.

Examples:
  qshape compile ./models/shop
  qshape compile ./models/shop -o shop.json
  qshape compile ./models/shop --db ./shop.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Database, "db", "", "create entity tables in this SQLite database")

	return cmd
}

func runCompile(opts *CompileOptions, modelDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	loaded, err := compiler.LoadModel(modelDir)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, modelDir)

	if len(loaded.Problems) > 0 {
		return outputValidationErrors(formatter, loaded.Problems)
	}

	result := &CompilationResult{Model: loaded.Model, Stats: calculateStats(loaded.Model)}
	for _, e := range loaded.Model.Entities {
		formatter.VerboseLog("Compiled entity: %s (table %s)", e.Name, e.Table)
	}

	if opts.Output != "" {
		if err := writeModelToFile(loaded.Model, opts.Output); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	if opts.Database != "" {
		if err := applyModel(cmd.Context(), opts.Database, loaded.Model); err != nil {
			return outputCommandError(formatter, ErrCodeDatabase, err.Error())
		}
		formatter.VerboseLog("Created %d table(s) in %s", len(loaded.Model.Entities), opts.Database)
	}

	return outputCompileSuccess(formatter, result, opts)
}

// calculateStats computes summary statistics for a model.
func calculateStats(m *ir.Model) CompilationStats {
	stats := CompilationStats{EntityCount: len(m.Entities)}
	for _, e := range m.Entities {
		stats.PropertyCount += len(e.Properties)
		stats.NavigationCount += len(e.Navigations)
	}
	return stats
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, opts *CompileOptions) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d entit%s in context %s\n\n",
		result.Stats.EntityCount, plural(result.Stats.EntityCount, "y", "ies"), result.Model.Context)

	fmt.Fprintln(w, "Entities:")
	for _, e := range result.Model.Entities {
		fmt.Fprintf(w, "  %s -> %s: %d propert%s, key (%s)\n",
			e.Name, e.Table, len(e.Properties), plural(len(e.Properties), "y", "ies"), strings.Join(e.Key, ", "))
		for _, nav := range e.Navigations {
			arrow := "->"
			if nav.Collection {
				arrow = "->>"
			}
			fmt.Fprintf(w, "    %s %s %s (%s)\n", nav.Name, arrow, nav.Target, strings.Join(nav.ForeignKey, ", "))
		}
	}
	fmt.Fprintln(w)

	if opts.Output != "" {
		fmt.Fprintf(w, "Wrote model to %s\n", opts.Output)
	}
	if opts.Database != "" {
		fmt.Fprintf(w, "Created tables in %s\n", opts.Database)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// applyModel creates the model's tables in the database at path.
func applyModel(ctx context.Context, path string, m *ir.Model) error {
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()
	return st.ApplyModel(ctx, m)
}

// outputLoadError reports a model that could not be loaded. Load errors
// are command-level errors (exit code 2).
func outputLoadError(formatter *OutputFormatter, err error) error {
	code, message := compiler.ErrCodeGeneric, err.Error()
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		code, message = loadErr.Code, loadErr.Message
		if formatter.Format != "json" && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
	}
	return outputCommandError(formatter, code, message)
}

// outputCommandError outputs a single error and returns exit code 2.
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// writeModelToFile writes the compiled model as indented JSON.
func writeModelToFile(m *ir.Model, filename string) error {
	// Indented for readability; canonical JSON is used only for hashing.
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling model: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
