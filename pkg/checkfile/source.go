package checkfile

import (
	"context"
	"strings"

	"github.com/consol-monitoring/check_file/pkg/convert"
)

// Source retrieves the raw file content which contains the value.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// NewSource returns the source for the configured mode and protocol.
func NewSource(conf *Config) Source {
	if conf.Mode == ModePassive {
		return &FileSource{Path: conf.FilePath}
	}

	switch conf.Remote.Protocol {
	case "winrm":
		return &WinRMSource{Target: conf.Remote, FilePath: conf.FilePath, Timeout: conf.Timeout}
	default:
		return &SSHSource{Target: conf.Remote, FilePath: conf.FilePath, Timeout: conf.Timeout}
	}
}

// ParseValue extracts the measured value from the file content.
// In lenient mode everything after the leading integer is ignored and garbage results in 0.
func ParseValue(raw string, lenient bool) (float64, error) {
	if lenient {
		return float64(convert.LeadingInt64(raw)), nil
	}

	val, err := convert.Float64E(strings.TrimSpace(raw))
	if err != nil {
		return 0, newError(ErrAcquisition, "cannot parse numeric value from %q", shorten(strings.TrimSpace(raw), 40))
	}

	return val, nil
}

// shorten cuts str after length characters.
func shorten(str string, length int) string {
	count := 0
	for i := range str {
		if count == length {
			return str[:i] + "..."
		}
		count++
	}

	return str
}
