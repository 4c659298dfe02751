package checkfile

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kdar/factorlog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// define all available log level.
const (
	// LogVerbosityNone disables logging.
	LogVerbosityNone = 0

	// LogVerbosityDefault sets the default log level.
	LogVerbosityDefault = 1

	// LogVerbosityDebug sets the debug log level.
	LogVerbosityDebug = 2

	// LogVerbosityTrace sets trace log level.
	LogVerbosityTrace = 3

	// LogFileMaxSize sets the size in megabytes after which log files get rotated.
	LogFileMaxSize = 10

	// LogFileMaxBackups sets the number of rotated log files to keep.
	LogFileMaxBackups = 3
)

var (
	DateTimeLogFormat = `[%{Date} %{Time "15:04:05.000"}]`
	LogFormat         = `[%{Severity}][pid:%{Pid}][%{ShortFile}:%{Line}] %{Message}`
	VerboseLogFormat  = `[%{Time "15:04:05.000"}][%{S}] %{Message}`
	log               = factorlog.New(os.Stderr, BuildFormatter(LogFormat))
	targetWriter      io.Writer
)

func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "off":
		log.SetMinMaxSeverity(factorlog.StringToSeverity("PANIC"), factorlog.StringToSeverity("PANIC"))
		log.SetVerbosity(LogVerbosityNone)
	case "error", "info":
		log.SetMinMaxSeverity(factorlog.StringToSeverity(strings.ToUpper(level)), factorlog.StringToSeverity("PANIC"))
		log.SetVerbosity(LogVerbosityDefault)
	case "debug":
		log.SetMinMaxSeverity(factorlog.StringToSeverity(strings.ToUpper(level)), factorlog.StringToSeverity("PANIC"))
		log.SetVerbosity(LogVerbosityDebug)
	case "trace":
		log.SetMinMaxSeverity(factorlog.StringToSeverity(strings.ToUpper(level)), factorlog.StringToSeverity("PANIC"))
		log.SetVerbosity(LogVerbosityTrace)
	case "":
	default:
		log.Errorf("unknown log level: %s", level)
	}
}

// CreateLogger sets up logging from the command line flags.
// Diagnostics go to stdout with -v, into a rotated log file with --logfile and
// only errors are printed to stderr otherwise.
// The returned function closes the log file.
func CreateLogger(flags *Flags) (closer func()) {
	closer = func() {}

	level := "error"
	switch {
	case flags.Verbose >= 2:
		level = "trace"
	case flags.Verbose == 1:
		level = "debug"
	case flags.LogFile != "":
		level = "info"
	}

	var logFormatter factorlog.Formatter
	switch {
	case flags.LogFile != "":
		logFormatter = BuildFormatter(DateTimeLogFormat + LogFormat)
		rotate := &lumberjack.Logger{
			Filename:   flags.LogFile,
			MaxSize:    LogFileMaxSize,
			MaxBackups: LogFileMaxBackups,
		}
		targetWriter = rotate
		closer = func() {
			if err := rotate.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "failed to close logfile %s: %s\n", flags.LogFile, err.Error())
			}
		}
	case flags.Verbose > 0:
		logFormatter = BuildFormatter(VerboseLogFormat)
		targetWriter = os.Stdout
	default:
		logFormatter = BuildFormatter(LogFormat)
		targetWriter = os.Stderr
	}

	log.SetFormatter(logFormatter)
	log.SetOutput(targetWriter)
	setLogLevel(level)

	return closer
}

func BuildFormatter(format string) *factorlog.StdFormatter {
	format = strings.ReplaceAll(format, "%{Pid}", fmt.Sprintf("%d", os.Getpid()))

	return (factorlog.NewStdFormatter(format))
}
