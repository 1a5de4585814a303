package program

import (
	"errors"
	"fmt"
	"io"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/flow"
	"github.com/cottand/narrow/frontend/guard"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/narrowing"
	"github.com/cottand/narrow/frontend/witness"
	pkgerrors "github.com/pkg/errors"
)

// Report is the outcome of analysing a Program
type Report struct {
	Program *Program
	Results []*flow.Result
	Checks  []CheckResult
	// Errors are the diagnostics of loading, analysing and checking the
	// program, ordered by position
	Errors *ilerr.Errors
	// Failures are internal errors of the analysis
	Failures []error
}

// CheckResult holds the outcome of each witness of a Check. Witnesses for
// which the guard throws take neither branch and are Skipped
type CheckResult struct {
	Check    *Check
	Outcomes []witness.Outcome
	Skipped  []witness.Value
}

// OK reports whether the program has neither diagnostics nor failures
func (r *Report) OK() bool {
	return !r.Errors.HasError() && len(r.Failures) == 0
}

// Analyze runs the flow analysis over every function of p, and every
// soundness check
func (p *Program) Analyze() (*Report, error) {
	report := &Report{Program: p}
	errs := (&ilerr.Errors{}).Merge(p.errors)

	analyzer := flow.New(p.Universe)
	for _, fn := range p.Functions {
		res := analyzer.Analyze(fn)
		report.Results = append(report.Results, res)
		errs = errs.Merge(res.Errors)
		for _, failure := range res.Failures {
			report.Failures = append(report.Failures, fmt.Errorf("%s: %w", fn.Name, failure))
		}
	}

	if len(p.Checks) > 0 {
		evaluator, err := witness.NewEvaluator(p.Universe)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "could not start witness evaluator")
		}
		c := &checker{
			program:   p,
			evaluator: evaluator,
			narrower:  narrowing.New(p.Universe).Silenced(),
			rec:       guard.NewRecognizer(p.Universe),
		}
		for _, check := range p.Checks {
			report.Checks = append(report.Checks, c.run(check))
		}
		errs = errs.Merge(c.errs)
	}
	report.Errors = (&ilerr.Errors{}).With(errs.Sorted()...)
	logger.Debug("analysed program", "path", p.Path, "errors", report.Errors, "failures", len(report.Failures))
	return report, nil
}

type checker struct {
	program   *Program
	evaluator *witness.Evaluator
	narrower  *narrowing.Narrower
	rec       *guard.Recognizer
	errs      *ilerr.Errors
}

func (c *checker) run(check *Check) CheckResult {
	res := CheckResult{Check: check}
	declared, errs := c.program.Universe.FromAST(check.Type)
	c.errs = c.errs.Merge(errs)
	cond, errs := c.rec.FromExpr(check.Guard)
	c.errs = c.errs.Merge(errs)
	if errs.HasError() {
		return res
	}

	g, negated, ok := guard.Single(cond)
	if !ok {
		c.errs = c.errs.With(ilerr.New(ilerr.NewInvalidGuard{
			Positioner: ast.RangeOf(check.Guard),
			Guard:      check.Guard.String(),
			Reason:     "a check takes a single type guard",
		}))
		return res
	}
	if _, ok := g.(*guard.SameValueGuard); ok {
		c.errs = c.errs.With(ilerr.New(ilerr.NewInvalidGuard{
			Positioner: ast.RangeOf(check.Guard),
			Guard:      check.Guard.String(),
			Reason:     "comparisons between two references cannot be checked against a single witness",
		}))
		return res
	}

	for _, w := range check.Witnesses {
		v, err := c.evaluator.Eval(w.Src)
		if err != nil {
			c.invalid(w, err)
			continue
		}
		outcome, err := witness.Check(c.narrower, declared, g, v)
		var throws *witness.ThrowsError
		switch {
		case errors.As(err, &throws):
			res.Skipped = append(res.Skipped, v)
			continue
		case err != nil:
			c.invalid(w, err)
			continue
		}
		res.Outcomes = append(res.Outcomes, outcome)
		if !outcome.Sound {
			c.errs = c.errs.With(ilerr.New(ilerr.NewUnsoundNarrowing{
				Positioner: w.Range,
				Guard:      check.Guard.String(),
				Witness:    v.String(),
				Branch:     outcome.Branch != negated,
				Narrowed:   outcome.Narrowed,
			}))
		}
	}
	return res
}

func (c *checker) invalid(w Witness, err error) {
	c.errs = c.errs.With(ilerr.New(ilerr.NewInvalidWitness{
		Positioner: w.Range,
		Witness:    w.Src,
		Reason:     err.Error(),
	}))
}

// Print writes the probes of every function, a summary of every check,
// and then the diagnostics
func (r *Report) Print(w io.Writer) error {
	if err := r.PrintProbes(w); err != nil {
		return err
	}
	if err := r.PrintChecks(w); err != nil {
		return err
	}
	return r.PrintDiagnostics(w)
}

// PrintProbes writes one line per probe, prefixed by its position in the
// program file and the name of its function
func (r *Report) PrintProbes(w io.Writer) error {
	fset := r.Program.FileSet()
	for _, res := range r.Results {
		for _, probe := range res.Probes {
			if _, err := fmt.Fprintf(w, "%s: %s: %v\n", fset.Position(probe.Pos()), res.Func.Name, probe); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Report) PrintChecks(w io.Writer) error {
	fset := r.Program.FileSet()
	for _, c := range r.Checks {
		sound := 0
		for _, o := range c.Outcomes {
			if o.Sound {
				sound++
			}
		}
		_, err := fmt.Fprintf(w, "%s: check %v on %v: %d/%d witnesses sound, %d skipped\n",
			fset.Position(c.Check.Pos()), c.Check.Guard, c.Check.Type, sound, len(c.Outcomes), len(c.Skipped))
		if err != nil {
			return err
		}
	}
	return nil
}

// PrintDiagnostics writes the diagnostics and the failures of r
func (r *Report) PrintDiagnostics(w io.Writer) error {
	for _, e := range r.Errors.Errors() {
		if _, err := fmt.Fprintln(w, ilerr.FormatWithCodeAndSource(e, r.Program)); err != nil {
			return err
		}
	}
	for _, failure := range r.Failures {
		if _, err := fmt.Fprintf(w, "%s: internal error: %v\n", r.Program.Path, failure); err != nil {
			return err
		}
	}
	return nil
}
