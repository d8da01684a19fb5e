package mock

import (
	"net/http"
	"net/http/httptest"
	"path"
	"runtime"
	"strings"
	"testing"
)

// Token expected by the mock api
const Token = "mock-token"

// GetMockServer serves a cockpit api and its uploads from the files next to
// this source file
func GetMockServer(tb testing.TB) *httptest.Server {
	tb.Helper()
	_, filename, _, _ := runtime.Caller(0)
	mockDir := path.Dir(filename)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, "/api/") && req.Header.Get("Cockpit-Token") != Token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		mockFilename := path.Join(mockDir, req.URL.Path[1:])
		http.ServeFile(w, req, mockFilename)
	}))
	tb.Cleanup(server.Close)

	return server
}
