package checkfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// APIPathService is used to submit passive service results.
	APIPathService = "/api/command/PROCESS_SERVICE_CHECK_RESULT"

	// APIPathHost is used to submit passive host results.
	APIPathHost = "/api/command/PROCESS_HOST_CHECK_RESULT"
)

// SubmitPayload is the json document posted to the monitoring api.
type SubmitPayload struct {
	HostName           string `json:"host_name"`
	ServiceDescription string `json:"service_description,omitempty"`
	StatusCode         int64  `json:"status_code"`
	PluginOutput       string `json:"plugin_output"`
}

// Submitter delivers passive check results.
type Submitter struct {
	Target  PassiveTarget
	Timeout time.Duration
}

// Endpoint returns the api url, https is used if no scheme is given.
func (s *Submitter) Endpoint() string {
	base := s.Target.URL
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	base = strings.TrimRight(base, "/")

	if s.Target.IsServiceCheck() {
		return base + APIPathService
	}

	return base + APIPathHost
}

// Payload builds the submitted document for a result.
func (s *Submitter) Payload(res *CheckResult) *SubmitPayload {
	return &SubmitPayload{
		HostName:           s.Target.HostName,
		ServiceDescription: s.Target.ServiceName,
		StatusCode:         res.State,
		PluginOutput:       string(res.BuildPluginOutput()),
	}
}

// Submit posts the result and returns the response body.
// The body is returned along with an error for non successful status codes.
func (s *Submitter) Submit(ctx context.Context, res *CheckResult) ([]byte, error) {
	data, err := json.Marshal(s.Payload(res))
	if err != nil {
		return nil, wrapError(ErrSubmission, fmt.Errorf("json error: %w", err))
	}

	url := s.Endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, newError(ErrSubmission, "new request: %s", err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if s.Target.Account != "" || s.Target.Password != "" {
		req.SetBasicAuth(s.Target.Account, s.Target.Password)
	}

	log.Debugf("submitting result to %s", url)
	log.Tracef("payload: %s", data)

	client := httpClient(NewHTTPClientOptions(s.Target.VerifySSL, s.Timeout))
	resp, err := client.Do(req)
	if err != nil {
		return nil, newError(ErrSubmission, "http post failed %s: %s", url, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(ErrSubmission, "reading response from %s: %s", url, err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, newError(ErrSubmission, "http post failed %s: %s", url, resp.Status)
	}

	return body, nil
}
