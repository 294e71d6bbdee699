package core

// Process exit codes.
const (
	ExitCodeSuccess = 0

	ExitCodeError = 1

	// ExitCodeConfig signals that startup stopped on a configuration problem.
	ExitCodeConfig = 2

	ExitCodeSIGINT = 130

	ExitCodeSIGTERM = 143
)

// ExitCodeName returns a short description of an exit code for log output.
func ExitCodeName(code int) string {
	switch code {
	case ExitCodeSuccess:
		return "success"
	case ExitCodeError:
		return "error"
	case ExitCodeConfig:
		return "configuration error"
	case ExitCodeSIGINT:
		return "interrupted (SIGINT)"
	case ExitCodeSIGTERM:
		return "terminated (SIGTERM)"
	default:
		return "unknown"
	}
}
