// Package validation runs the startup checks that must pass before the
// server binds its port, printing colored progress to the console.
package validation

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
)

// StepStatus represents the status of a validation step.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepPassed
	StepFailed
	StepWarning
	StepSkipped
)

// String returns the string representation of a step status.
func (s StepStatus) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepPassed:
		return "passed"
	case StepFailed:
		return "failed"
	case StepWarning:
		return "warning"
	case StepSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Check is one named startup check. Run returns a short message for the
// console and an error when the check did not pass.
type Check struct {
	Name string
	Run  func(ctx context.Context) (string, error)

	// Warning marks a check whose failure is reported but does not fail the suite.
	Warning bool

	// Skip, when it returns a non-empty reason, skips the check.
	Skip func() string
}

// ValidationStep is the outcome of one Check.
type ValidationStep struct {
	Name    string
	Status  StepStatus
	Message string
	Error   error
	Latency time.Duration
}

// SuiteResult represents the complete result of a suite run.
type SuiteResult struct {
	Steps       []ValidationStep
	TotalSteps  int
	PassedSteps int
	FailedSteps int
	Warnings    int
	Duration    time.Duration
	Success     bool
}

// Errors returns the errors of all failed steps.
func (r SuiteResult) Errors() []error {
	var errs []error
	for _, step := range r.Steps {
		if step.Status == StepFailed && step.Error != nil {
			errs = append(errs, step.Error)
		}
	}
	return errs
}

// Suite runs checks in order.
type Suite struct {
	title        string
	checks       []Check
	output       io.Writer
	showProgress bool
	failFast     bool
}

// NewSuite creates a suite that prints to stdout.
func NewSuite(title string) *Suite {
	return &Suite{
		title:        title,
		output:       os.Stdout,
		showProgress: true,
	}
}

// WithOutput sets the writer for progress messages.
func (s *Suite) WithOutput(w io.Writer) *Suite {
	s.output = w
	return s
}

// WithShowProgress enables or disables progress output.
func (s *Suite) WithShowProgress(show bool) *Suite {
	s.showProgress = show
	return s
}

// WithFailFast stops at the first failed check.
func (s *Suite) WithFailFast(failFast bool) *Suite {
	s.failFast = failFast
	return s
}

// Add appends checks to the suite.
func (s *Suite) Add(checks ...Check) *Suite {
	s.checks = append(s.checks, checks...)
	return s
}

// Run executes every check and returns the aggregated result.
func (s *Suite) Run(ctx context.Context) SuiteResult {
	start := time.Now()
	steps := make([]ValidationStep, 0, len(s.checks))

	if s.showProgress {
		s.printHeader(s.title)
	}

	for _, check := range s.checks {
		step := s.runCheck(ctx, check)
		steps = append(steps, step)
		if s.failFast && step.Status == StepFailed {
			break
		}
	}

	result := buildResult(steps, start)
	if s.showProgress {
		s.printSummary(result)
	}
	return result
}

func (s *Suite) runCheck(ctx context.Context, check Check) ValidationStep {
	step := ValidationStep{Name: check.Name, Status: StepPending}

	if check.Skip != nil {
		if reason := check.Skip(); reason != "" {
			step.Status = StepSkipped
			step.Message = reason
			s.printStep(step)
			return step
		}
	}

	if s.showProgress {
		fmt.Fprintf(s.output, "  ◌ %s...", check.Name)
	}

	start := time.Now()
	message, err := check.Run(ctx)
	step.Latency = time.Since(start)
	step.Message = message
	step.Error = err

	switch {
	case err == nil:
		step.Status = StepPassed
	case check.Warning:
		step.Status = StepWarning
	default:
		step.Status = StepFailed
	}

	s.printStep(step)
	return step
}

func buildResult(steps []ValidationStep, start time.Time) SuiteResult {
	result := SuiteResult{
		Steps:      steps,
		TotalSteps: len(steps),
		Duration:   time.Since(start),
		Success:    true,
	}
	for _, step := range steps {
		switch step.Status {
		case StepPassed:
			result.PassedSteps++
		case StepFailed:
			result.FailedSteps++
			result.Success = false
		case StepWarning:
			result.Warnings++
		}
	}
	return result
}

func (s *Suite) printHeader(title string) {
	fmt.Fprintln(s.output)
	color.New(color.FgCyan, color.Bold).Fprintf(s.output, "━━━ %s ━━━\n", title)
	fmt.Fprintln(s.output)
}

func (s *Suite) printStep(step ValidationStep) {
	if !s.showProgress {
		return
	}

	var icon string
	var clr *color.Color
	switch step.Status {
	case StepPassed:
		icon, clr = "✓", color.New(color.FgGreen)
	case StepFailed:
		icon, clr = "✗", color.New(color.FgRed)
	case StepWarning:
		icon, clr = "!", color.New(color.FgYellow)
	case StepSkipped:
		icon, clr = "○", color.New(color.FgHiBlack)
	default:
		icon, clr = "?", color.New(color.FgWhite)
	}

	fmt.Fprint(s.output, "\r")
	clr.Fprintf(s.output, "  %s %s", icon, step.Name)
	if step.Message != "" {
		color.New(color.FgHiBlack).Fprintf(s.output, " - %s", step.Message)
	}
	fmt.Fprintln(s.output)

	if step.Status != StepPassed && step.Error != nil {
		clr.Fprintf(s.output, "    └─ %s\n", step.Error.Error())
	}
}

func (s *Suite) printSummary(result SuiteResult) {
	fmt.Fprintln(s.output)
	dim := color.New(color.FgHiBlack)

	if result.Success {
		ok := color.New(color.FgGreen, color.Bold)
		ok.Fprint(s.output, "━━━ Validation Passed ")
		dim.Fprintf(s.output, "(%d/%d checks passed in %v)",
			result.PassedSteps, result.TotalSteps, result.Duration.Round(time.Millisecond))
		ok.Fprintln(s.output, " ━━━")
	} else {
		fail := color.New(color.FgRed, color.Bold)
		fail.Fprint(s.output, "━━━ Validation Failed ")
		dim.Fprintf(s.output, "(%d passed, %d failed)", result.PassedSteps, result.FailedSteps)
		fail.Fprintln(s.output, " ━━━")
	}
	fmt.Fprintln(s.output)
}
