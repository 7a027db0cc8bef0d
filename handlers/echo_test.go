package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEcho(t *testing.T) {
	t.Parallel()

	srv := loadServer(t, `
router:
  routes:
    "*":
      ^/: echo
`)

	req := httptest.NewRequest(http.MethodGet, "/whoami?debug=1", nil)
	req.Host = "edge.example.com"
	req.RemoteAddr = "198.51.100.9:40000"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "GET /whoami?debug=1")
	require.Contains(t, body, "hostname: edge.example.com")
	require.Contains(t, body, "ip: 198.51.100.9")
	require.Contains(t, body, "site: *")
}
