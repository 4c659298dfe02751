package checkfile

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/consol-monitoring/check_file/pkg/threshold"
)

// MetricName is the label of the performance value.
const MetricName = "output"

// Check runs a single file check.
type Check struct {
	Config    *Config
	Source    Source
	Submitter *Submitter // nil unless in passive mode
	Output    io.Writer
}

// NewCheck creates the check with the source and submitter matching the configuration.
func NewCheck(conf *Config, output io.Writer) *Check {
	check := &Check{
		Config: conf,
		Source: NewSource(conf),
		Output: output,
	}
	if conf.Mode == ModePassive {
		check.Submitter = &Submitter{Target: conf.Passive, Timeout: conf.Timeout}
	}

	return check
}

// Run executes the check, prints the result and returns the exit code.
func (c *Check) Run(ctx context.Context) int {
	for _, line := range c.Config.Dump() {
		log.Debug(line)
	}

	res, err := c.evaluate(ctx)
	if err != nil {
		return c.fail(err)
	}

	if c.Submitter != nil {
		body, err := c.Submitter.Submit(ctx, res)
		if len(body) > 0 {
			c.print(string(body))
		}
		if err != nil {
			return c.fail(err)
		}
	}

	c.print(res.BuildStatusLine())

	return res.ExitCode()
}

func (c *Check) evaluate(ctx context.Context) (*CheckResult, error) {
	if err := sleep(ctx, c.Config.Delay); err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.Config.Timeout)
	defer cancel()

	started := time.Now()
	raw, err := c.Source.Fetch(fetchCtx)
	if err != nil {
		return nil, err
	}
	log.Debugf("fetched %d bytes in %s", len(raw), time.Since(started).Truncate(time.Millisecond))

	value, err := ParseValue(raw, c.Config.Lenient)
	if err != nil {
		return nil, err
	}
	log.Debugf("value: %v", value)

	eval := threshold.Evaluate(c.Config.Critical, c.Config.Warning, value)

	return NewCheckResult(eval, &CheckMetric{
		Name:     MetricName,
		Value:    value,
		Warning:  c.Config.Warning,
		Critical: c.Config.Critical,
	}), nil
}

func (c *Check) fail(err error) int {
	log.Infof("check failed: %s", err.Error())
	res := UnknownResult(err)
	c.print(res.BuildStatusLine())

	return res.ExitCode()
}

func (c *Check) print(text string) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	fmt.Fprint(c.Output, text)
}

// sleep waits for the delay unless the context is canceled before.
func sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	log.Debugf("delaying execution by %s", delay)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return newError(ErrAcquisition, "interrupted during delay: %s", ctx.Err().Error())
	case <-timer.C:
		return nil
	}
}
