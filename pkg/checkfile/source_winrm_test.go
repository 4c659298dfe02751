package checkfile

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// winrmTarget returns the remote target pointing to the test server.
func winrmTarget(t *testing.T, srv *httptest.Server) RemoteTarget {
	t.Helper()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return RemoteTarget{
		Protocol: "winrm",
		Host:     host,
		Port:     port,
		Username: "monitor",
		Password: "secret",
		UseHTTPS: u.Scheme == "https",
	}
}

func TestWinRMResult(t *testing.T) {
	t.Parallel()

	content, err := winrmResult("95\r\n", "", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "95\r\n", content)

	_, err = winrmResult("", "The system cannot find the file specified.\r\n", 1, nil)
	require.ErrorIs(t, err, ErrAcquisition)
	assert.Equal(t, "remote command failed (exit code 1): The system cannot find the file specified.", err.Error())

	_, err = winrmResult("", "", 0, errors.New("http response error: 401"))
	require.ErrorIs(t, err, ErrAcquisition)
	assert.Equal(t, "winrm execution failed: http response error: 401", err.Error())
}

func TestWinRMSourceTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	router := chi.NewRouter()
	router.Post("/wsman", func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	src := &WinRMSource{Target: winrmTarget(t, srv), FilePath: `C:\values\queue.txt`, Timeout: 2 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	started := time.Now()
	_, err := src.Fetch(ctx)
	require.ErrorIs(t, err, ErrAcquisition)
	assert.Equal(t, `reading C:\values\queue.txt on 127.0.0.1 timed out`, err.Error())
	assert.Lessf(t, time.Since(started), 5*time.Second, "fetch stops at the context deadline")
}

func TestWinRMSourceErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	router := chi.NewRouter()
	router.Post("/wsman", func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewTLSServer(router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	src := &WinRMSource{Target: winrmTarget(t, srv), FilePath: `C:\values\queue.txt`, Timeout: 5 * time.Second}
	_, err := src.Fetch(ctx)
	require.ErrorIs(t, err, ErrAcquisition)
	assert.Contains(t, err.Error(), "winrm execution failed")
	assert.Equalf(t, int32(0), hits.Load(), "self signed certificate is rejected before any request")

	src.Target.Insecure = true
	_, err = src.Fetch(ctx)
	require.ErrorIs(t, err, ErrAcquisition)
	assert.Contains(t, err.Error(), "winrm execution failed")
	assert.Positivef(t, hits.Load(), "request reaches the server without certificate verification")

	src.FilePath = `C:\x" & del C:\y`
	_, err = src.Fetch(ctx)
	require.ErrorIsf(t, err, ErrConfiguration, "quotes in the path are rejected")
}
