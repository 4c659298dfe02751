package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/consol-monitoring/check_file/pkg/checkfile"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand runs the plugin with given args and returns output and exit code.
func runCommand(t *testing.T, mode checkfile.Mode, args ...string) (output string, exitCode int) {
	t.Helper()

	out := &bytes.Buffer{}
	exitCode = Execute(context.Background(), mode, args, out)

	return out.String(), exitCode
}

func TestCmdVersion(t *testing.T) {
	out, rc := runCommand(t, checkfile.ModeNetwork, "-V")
	assert.Equal(t, checkfile.ExitCodeUnknown, rc)
	assert.Equal(t, "check_file_network v"+checkfile.VERSION+"\n", out)

	out, rc = runCommand(t, checkfile.ModePassive, "--version")
	assert.Equal(t, checkfile.ExitCodeUnknown, rc)
	assert.Contains(t, out, "check_file_passive v")
}

func TestCmdHelp(t *testing.T) {
	out, rc := runCommand(t, checkfile.ModeNetwork, "-h")
	assert.Equal(t, checkfile.ExitCodeUnknown, rc)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "--uri")
	assert.Contains(t, out, "--identity")
	assert.NotContains(t, out, "--service-name")

	out, rc = runCommand(t, checkfile.ModePassive, "--help")
	assert.Equal(t, checkfile.ExitCodeUnknown, rc)
	assert.Contains(t, out, "--service-name")
	assert.Contains(t, out, "--no-ssl")
	assert.NotContains(t, out, "--identity")
}

func TestCmdNoThreshold(t *testing.T) {
	out, rc := runCommand(t, checkfile.ModeNetwork, "-u", "db01", "-l", "monitor", "-f", "/tmp/value")
	assert.Equal(t, checkfile.ExitCodeUnknown, rc)
	assert.Equal(t, "UNKNOWN - At least one range needs to be defined.\n", out)

	out, rc = runCommand(t, checkfile.ModeNetwork, "-c", "", "-w", "", "-f", "/tmp/value")
	assert.Equal(t, checkfile.ExitCodeUnknown, rc)
	assert.Equal(t, "UNKNOWN - At least one range needs to be defined.\n", out)
}

func TestCmdArgumentErrors(t *testing.T) {
	out, rc := runCommand(t, checkfile.ModeNetwork, "--bogus")
	assert.Equal(t, checkfile.ExitCodeUnknown, rc)
	assert.Contains(t, out, "UNKNOWN - unknown flag: --bogus")
	assert.Containsf(t, out, "Usage:", "usage is printed")

	out, rc = runCommand(t, checkfile.ModeNetwork, "-d", "soon")
	assert.Equal(t, checkfile.ExitCodeUnknown, rc)
	assert.Contains(t, out, "UNKNOWN - invalid argument \"soon\"")

	out, rc = runCommand(t, checkfile.ModeNetwork, "-w", "foo", "-f", "/tmp/value")
	assert.Equal(t, checkfile.ExitCodeUnknown, rc)
	assert.Contains(t, out, "UNKNOWN - warning: invalid range syntax")
	assert.Contains(t, out, "Usage:")

	out, rc = runCommand(t, checkfile.ModeNetwork, "-w", "10", "-f", "/tmp/value", "stray")
	assert.Equal(t, checkfile.ExitCodeUnknown, rc)
	assert.Contains(t, out, "UNKNOWN - unknown command \"stray\"")
}

func TestCmdValidation(t *testing.T) {
	out, rc := runCommand(t, checkfile.ModeNetwork, "-w", "10", "-f", "/tmp/value", "-l", "monitor")
	assert.Equal(t, checkfile.ExitCodeUnknown, rc)
	assert.Equal(t, "UNKNOWN - uri is required\n", out)
}

func TestCmdPassive(t *testing.T) {
	received := make(chan map[string]interface{}, 1)
	router := chi.NewRouter()
	router.Post("/api/command/PROCESS_SERVICE_CHECK_RESULT", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)

			return
		}
		received <- payload
		_, _ = w.Write([]byte(`{"message":"submitted"}`))
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "value.txt")
	require.NoError(t, os.WriteFile(path, []byte("95\n"), 0o600))

	out, rc := runCommand(t, checkfile.ModePassive,
		"-f", path, "-w", "80", "-c", "90",
		"-u", srv.URL, "-l", "api", "-a", "secret",
		"-n", "web01", "-s", "queue",
	)
	assert.Equal(t, 2, rc)
	assert.Equal(t, "{\"message\":\"submitted\"}\nCRITICAL - Service is in a critical state. | 'output'=95;80;90\n", out)
	assert.Equal(t, map[string]interface{}{
		"host_name":           "web01",
		"service_description": "queue",
		"status_code":         float64(2),
		"plugin_output":       "Service is in a critical state. | 'output'=95;80;90",
	}, <-received)
}

func TestCmdPassiveMissingFile(t *testing.T) {
	dir := t.TempDir()

	out, rc := runCommand(t, checkfile.ModePassive, "-f", filepath.Join(dir, "missing"), "-c", "10", "-n", "web01")
	assert.Equal(t, checkfile.ExitCodeUnknown, rc)
	assert.Equal(t, "UNKNOWN - Passed file does not exist.\n", out)

	out, rc = runCommand(t, checkfile.ModePassive, "-f", dir, "-c", "10", "-n", "web01")
	assert.Equal(t, checkfile.ExitCodeUnknown, rc)
	assert.Equal(t, "UNKNOWN - Passed file is a directory.\n", out)
}

func TestSanitizeArgs(t *testing.T) {
	flags := &checkfile.Flags{Changed: map[string]bool{}}
	exitCode := 0
	rootCmd := newRootCmd(checkfile.ModeNetwork, flags, &exitCode)

	assert.Equal(t,
		[]string{"--filepath", "/tmp/x", "--critical=10", "-w", "-10:20", "-vv", "--uri"},
		sanitizeArgs(rootCmd, []string{"-filepath", "/tmp/x", "-critical=10", "-w", "-10:20", "-vv", "--uri"}),
	)
}
