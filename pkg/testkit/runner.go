package testkit

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/nearcart/pkg/auth"
)

// Run executes the scenario file at path against handler as a subtest.
func Run(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	s, err := LoadScenario(path)
	require.NoError(t, err)

	var rec *httptest.ResponseRecorder
	t.Run(s.Name, func(t *testing.T) { rec = Exec(t, handler, s) })
	return rec
}

// RunDir runs every *.json scenario in dir as a subtest, in file-name order.
func RunDir(t *testing.T, handler http.Handler, dir string) {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(paths) == 0 {
		t.Fatalf("testkit: no scenario files found in %q", dir)
	}
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			t.Errorf("testkit: load %q: %v", path, err)
			continue
		}
		t.Run(s.Name, func(t *testing.T) { Exec(t, handler, s) })
	}
}

// Exec fires s against handler, asserts the outcome and returns the
// recorded response for further checks.
func Exec(t *testing.T, handler http.Handler, s *Scenario) *httptest.ResponseRecorder {
	t.Helper()

	body, err := s.RequestBytes()
	require.NoError(t, err, "[%s] read request body", s.Name)

	method := strings.ToUpper(s.RequestMethod)
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, s.RequestURL, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if s.AsUser != 0 {
		role := s.Role
		if role == "" {
			role = "customer"
		}
		tok, err := auth.GenerateToken(s.AsUser, role, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for k, v := range s.Headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())
	if len(s.ExpectedBody) > 0 {
		AssertJSONSubset(t, s, s.ExpectedBody, rec.Body.Bytes())
	}
	if p := s.ResponseBodyPath(); p != "" {
		expected, err := os.ReadFile(p)
		if err != nil {
			t.Errorf("[%s] read response file %q: %v", s.Name, p, err)
		} else {
			AssertJSONBody(t, s, expected, rec.Body.Bytes())
		}
	}
	return rec
}
