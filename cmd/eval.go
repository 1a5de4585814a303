package cmd

import (
	"fmt"
	"go/token"
	"io"
	"log/slog"
	"strings"

	"github.com/cottand/narrow/frontend/flow"
	"github.com/cottand/narrow/frontend/guard"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/narrowing"
	"github.com/cottand/narrow/frontend/parser"
	"github.com/cottand/narrow/frontend/types"
	"github.com/cottand/narrow/internal/log"
	"github.com/spf13/cobra"
)

var EvalCmd = &cobra.Command{
	Use:   "eval --type T --guard G",
	Short: "Print the type of a variable on each branch of a condition",
	Example: `  narrow eval --type 'string | number' --guard 'typeof x === "string"'
  narrow eval --classes animals.yaml --var pet --type 'Fish | Bird' --guard 'pet instanceof Fish'`,
	RunE:         runEval,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
}

var (
	evalType     *string
	evalGuard    *string
	evalVar      *string
	evalClasses  *string
	evalLogLevel *int
)

func init() {
	evalType = EvalCmd.Flags().StringP("type", "t", "", "declared type of the variable")
	evalGuard = EvalCmd.Flags().StringP("guard", "g", "", "condition to narrow with")
	evalVar = EvalCmd.Flags().String("var", "x", "name of the variable the condition tests")
	evalClasses = EvalCmd.Flags().StringP("classes", "c", "", "program whose classes, aliases and predicates are in scope")
	evalLogLevel = EvalCmd.Flags().IntP("log-level", "l", int(slog.LevelWarn), "log level")
	_ = EvalCmd.MarkFlagRequired("type")
	_ = EvalCmd.MarkFlagRequired("guard")
}

func runEval(cmd *cobra.Command, _ []string) error {
	log.SetLevel(slog.Level(*evalLogLevel))

	universe := types.NewUniverse()
	if *evalClasses != "" {
		programs, err := loadTarget(*evalClasses)
		if err != nil {
			return fmt.Errorf("could not load classes: %w", err)
		}
		if len(programs) != 1 {
			return fmt.Errorf("expected a single program in %s, found %d", *evalClasses, len(programs))
		}
		if errs := programs[0].Errors(); errs.HasError() {
			return diagnosticsError("errors found in "+programs[0].Path, errs, programs[0])
		}
		universe = programs[0].Universe
	}

	typeAST, parseErr := parser.ParseType(*evalType, token.NoPos)
	if parseErr != nil {
		return fmt.Errorf("could not parse type: %w", parseErr)
	}
	declared, errs := universe.FromAST(typeAST)
	if errs.HasError() {
		return diagnosticsError("invalid type", errs, nil)
	}
	guardAST, parseErr := parser.ParseExpr(*evalGuard, token.NoPos)
	if parseErr != nil {
		return fmt.Errorf("could not parse guard: %w", parseErr)
	}
	cond, errs := guard.NewRecognizer(universe).FromExpr(guardAST)
	if !errs.HasError() && !narrows(guard.Subjects(cond).Slice(), *evalVar) {
		return fmt.Errorf("guard '%s' does not test %s", *evalGuard, *evalVar)
	}

	n := narrowing.New(universe)
	env := flow.NewEnv().Declare(*evalVar, declared, declared, false)
	whenTrue, trueErrs := flow.Refine(n, env, cond, true)
	whenFalse, falseErrs := flow.Refine(n, env, cond, false)
	errs = errs.Merge(trueErrs).Merge(falseErrs).Merge(n.Errors())

	out := cmd.OutOrStdout()
	if err := printBranches(out, *evalVar, declared, whenTrue, whenFalse); err != nil {
		return fmt.Errorf("could not write result: %w", err)
	}
	if errs.HasError() {
		return diagnosticsError("errors found in guard", errs, nil)
	}
	return nil
}

// narrows reports whether name or one of its properties is among subjects
func narrows(subjects []string, name string) bool {
	for _, s := range subjects {
		if s == name || strings.HasPrefix(s, name+".") {
			return true
		}
	}
	return false
}

func printBranches(w io.Writer, name string, declared types.Type, whenTrue, whenFalse flow.Env) error {
	typeIn := func(env flow.Env) types.Type {
		if t, ok := env.Lookup(name); ok && !env.IsUnreachable() {
			return t
		}
		return types.Never
	}
	_, err := fmt.Fprintf(w, "%s: %v\ntrue:  %s: %v\nfalse: %s: %v\n",
		name, declared, name, typeIn(whenTrue), name, typeIn(whenFalse))
	return err
}

func diagnosticsError(msg string, errs *ilerr.Errors, source ilerr.FileSetter) error {
	sb := &strings.Builder{}
	for _, ileError := range errs.Sorted() {
		sb.WriteString("\n")
		sb.WriteString(ilerr.FormatWithCodeAndSource(ileError, source))
	}
	return fmt.Errorf("%s:%s", msg, sb.String())
}
