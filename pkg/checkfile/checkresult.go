package checkfile

import (
	"strings"

	"github.com/consol-monitoring/check_file/pkg/threshold"
)

const (
	// CheckExitOK is used for normal exits.
	CheckExitOK = int64(threshold.OK)

	// CheckExitWarning is used for warnings.
	CheckExitWarning = int64(threshold.Warning)

	// CheckExitCritical is used for critical errors.
	CheckExitCritical = int64(threshold.Critical)

	// CheckExitUnknown is used for when the check runs into a problem itself.
	CheckExitUnknown = int64(threshold.Unknown)
)

// CheckResult is the result of a single check run.
type CheckResult struct {
	State   int64
	Output  string
	Metrics []*CheckMetric
}

// NewCheckResult creates the result for an evaluated metric.
func NewCheckResult(eval threshold.Result, metric *CheckMetric) *CheckResult {
	return &CheckResult{
		State:   int64(eval.State),
		Output:  eval.Description,
		Metrics: []*CheckMetric{metric},
	}
}

// UnknownResult creates an unknown result from an error.
func UnknownResult(err error) *CheckResult {
	return &CheckResult{
		State:  CheckExitUnknown,
		Output: err.Error(),
	}
}

func (cr *CheckResult) StateString() string {
	return threshold.Severity(cr.State).String()
}

// ExitCode returns the process exit code for this result.
func (cr *CheckResult) ExitCode() int {
	if cr.State < CheckExitOK || cr.State > CheckExitUnknown {
		return ExitCodeUnknown
	}

	return int(cr.State)
}

// BuildPluginOutput returns the output followed by the performance data.
func (cr *CheckResult) BuildPluginOutput() []byte {
	output := []byte(cr.Output)
	if len(cr.Metrics) > 0 {
		perf := make([]string, 0, len(cr.Metrics))
		for _, m := range cr.Metrics {
			perf = append(perf, m.String())
		}
		output = append(output, []byte(" | ")...)
		output = append(output, []byte(strings.Join(perf, " "))...)
	}

	return output
}

// BuildStatusLine returns the full plugin status line: "<STATE> - <output> | <perf>".
func (cr *CheckResult) BuildStatusLine() string {
	return cr.StateString() + " - " + string(cr.BuildPluginOutput())
}
