package utils

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyTransportRewritesHost(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte("proxied"))
	}))
	defer srv.Close()

	cli, err := NewHTTPClient(srv.URL, 5*time.Second)
	require.NoError(t, err)

	resp, err := cli.Get("https://discord.com/api/v9/users/@me?x=1")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "proxied", string(body))
	assert.Equal(t, "/api/v9/users/@me", gotPath)
	assert.Equal(t, "x=1", gotQuery)
}

func TestNewHTTPClientWithoutProxy(t *testing.T) {
	cli, err := NewHTTPClient("", time.Second)
	require.NoError(t, err)
	assert.Nil(t, cli.Transport)
	assert.Equal(t, time.Second, cli.Timeout)
}

func TestNewHTTPClientRejectsBadProxy(t *testing.T) {
	_, err := NewHTTPClient("not a url", time.Second)
	assert.Error(t, err)
}
