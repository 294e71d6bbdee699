package validation

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"ruserwation/core"
)

func passing(name string) Check {
	return Check{Name: name, Run: func(ctx context.Context) (string, error) { return "ok", nil }}
}

func failing(name string) Check {
	return Check{Name: name, Run: func(ctx context.Context) (string, error) { return "", errors.New("boom") }}
}

func TestSuite_AllPass(t *testing.T) {
	var out bytes.Buffer
	result := NewSuite("Test").WithOutput(&out).Add(passing("a"), passing("b")).Run(context.Background())

	if !result.Success {
		t.Fatal("Success = false, want true")
	}
	if result.PassedSteps != 2 || result.TotalSteps != 2 {
		t.Errorf("PassedSteps/TotalSteps = %d/%d, want 2/2", result.PassedSteps, result.TotalSteps)
	}
	if !strings.Contains(out.String(), "Validation Passed") {
		t.Errorf("output missing summary: %q", out.String())
	}
}

func TestSuite_FailureAndWarning(t *testing.T) {
	warn := failing("warn")
	warn.Warning = true

	result := NewSuite("Test").WithShowProgress(false).
		Add(passing("a"), warn, failing("b")).
		Run(context.Background())

	if result.Success {
		t.Error("Success = true, want false")
	}
	if result.Warnings != 1 {
		t.Errorf("Warnings = %d, want 1", result.Warnings)
	}
	if result.FailedSteps != 1 {
		t.Errorf("FailedSteps = %d, want 1", result.FailedSteps)
	}
	if errs := result.Errors(); len(errs) != 1 {
		t.Errorf("Errors() returned %d errors, want 1", len(errs))
	}
}

func TestSuite_FailFast(t *testing.T) {
	result := NewSuite("Test").WithShowProgress(false).WithFailFast(true).
		Add(failing("a"), passing("b")).
		Run(context.Background())

	if result.TotalSteps != 1 {
		t.Errorf("TotalSteps = %d, want 1 with fail-fast", result.TotalSteps)
	}
}

func TestSessionStoreCheck_SkipsMemory(t *testing.T) {
	check := SessionStoreCheck(core.SessionStoreMemory, nil)
	result := NewSuite("Test").WithShowProgress(false).Add(check).Run(context.Background())

	if result.Steps[0].Status != StepSkipped {
		t.Errorf("Status = %v, want skipped", result.Steps[0].Status)
	}
	if !result.Success {
		t.Error("a skipped check must not fail the suite")
	}
}

func TestSessionStoreCheck_ReportsPingFailure(t *testing.T) {
	check := SessionStoreCheck(core.SessionStoreRedis, func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	result := NewSuite("Test").WithShowProgress(false).Add(check).Run(context.Background())

	if result.Steps[0].Status != StepFailed {
		t.Errorf("Status = %v, want failed", result.Steps[0].Status)
	}
}

func TestRefCheckSecretCheck(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		generated bool
		want      StepStatus
	}{
		{"configured", "a-long-enough-secret-value", false, StepPassed},
		{"generated", "whatever", true, StepWarning},
		{"too short", "short", false, StepWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewSuite("Test").WithShowProgress(false).
				Add(RefCheckSecretCheck(tt.secret, tt.generated)).
				Run(context.Background())
			if got := result.Steps[0].Status; got != tt.want {
				t.Errorf("Status = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDatabaseDirCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.db")
	result := NewSuite("Test").WithShowProgress(false).Add(DatabaseDirCheck(path)).Run(context.Background())

	if !result.Success {
		t.Fatalf("DatabaseDirCheck failed: %v", result.Errors())
	}
}
