package core

import "testing"

func TestExitCodeName(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{ExitCodeSuccess, "success"},
		{ExitCodeError, "error"},
		{ExitCodeConfig, "configuration error"},
		{ExitCodeSIGINT, "interrupted (SIGINT)"},
		{ExitCodeSIGTERM, "terminated (SIGTERM)"},
		{42, "unknown"},
	}
	for _, tt := range tests {
		if got := ExitCodeName(tt.code); got != tt.want {
			t.Errorf("ExitCodeName(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
