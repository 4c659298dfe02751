package threshold

// Severity is the state of a check result, its value is the plugin exit code.
type Severity int64

const (
	// OK is used when no threshold matched.
	OK Severity = iota

	// Warning is used when the warning threshold matched.
	Warning

	// Critical is used when the critical threshold matched.
	Critical

	// Unknown is used when the check could not evaluate any value.
	Unknown
)

// Result is the outcome of a threshold evaluation.
type Result struct {
	State       Severity
	Description string
}

func (s Severity) String() string {
	switch s {
	case OK:
		return "OK"
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	}

	return "UNKNOWN"
}

// Evaluate classifies value against the critical and the warning range.
// A nil range is not checked. Critical takes precedence over warning.
func Evaluate(critical, warning *Range, value float64) Result {
	if critical != nil && critical.Alerts(value) {
		return Result{State: Critical, Description: "Service is in a critical state."}
	}

	if warning != nil && warning.Alerts(value) {
		return Result{State: Warning, Description: "Service is in a warning state."}
	}

	return Result{State: OK, Description: "Everything is good."}
}
