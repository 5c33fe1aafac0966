package testkit_test

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/nearcart/pkg/auth"
	"github.com/shashiranjanraj/nearcart/pkg/ctx"
	"github.com/shashiranjanraj/nearcart/pkg/middleware"
	"github.com/shashiranjanraj/nearcart/pkg/router"
	"github.com/shashiranjanraj/nearcart/pkg/testkit"
)

type echoInput struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

func testHandler() http.Handler {
	r := router.New()
	r.Get("/health", "health", ctx.Wrap(func(c *ctx.Context) {
		c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}))
	r.Get("/me", "me", ctx.Wrap(func(c *ctx.Context) {
		id, _ := auth.FromContext(c.Context())
		c.Success(map[string]any{"userId": id.UserID, "role": id.Role})
	}), middleware.Auth)
	r.Group("/").Post("/echo", "echo", ctx.Wrap(func(c *ctx.Context) {
		var in echoInput
		if !c.BindJSON(&in) {
			return
		}
		c.JSON(http.StatusCreated, map[string]any{"status": http.StatusCreated, "data": in})
	}))
	return r.Handler()
}

func TestRunDir(t *testing.T) {
	testkit.RunDir(t, testHandler(), "testdata/scenarios")
}

func TestRunReturnsRecorder(t *testing.T) {
	rec := testkit.Run(t, testHandler(), "testdata/scenarios/health.json")
	require.NotNil(t, rec)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestRunSuite(t *testing.T) {
	testkit.RunSuite(t, "testdata/suite/test_scenarios.json", testHandler())
}

func TestLoadScenarioValidation(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	_, err := testkit.LoadScenario(write("noname.json", `{"requestUrl":"/x","expectedCode":200}`))
	assert.ErrorContains(t, err, "name is required")

	_, err = testkit.LoadScenario(write("nocode.json", `{"name":"x","requestUrl":"/x"}`))
	assert.ErrorContains(t, err, "expectedCode is required")

	_, err = testkit.LoadScenario(write("both.json",
		`{"name":"x","requestUrl":"/x","expectedCode":200,"requestFileName":"a.json","requestBody":{}}`))
	assert.ErrorContains(t, err, "mutually exclusive")

	s, err := testkit.LoadScenario(write("alias.json", `{"name":"x","requestUrl":"/x","expectedStatusCode":204}`))
	require.NoError(t, err)
	assert.Equal(t, 204, s.ExpectedCode)
}

func TestDiffJSON(t *testing.T) {
	expected := map[string]any{
		"success": true,
		"orders":  []any{map[string]any{"shopId": float64(1)}},
	}
	actual := map[string]any{
		"success": true,
		"orders":  []any{map[string]any{"shopId": float64(1), "id": float64(9)}},
		"extra":   "ignored",
	}
	assert.Empty(t, testkit.DiffJSON("", expected, actual))

	actual["orders"] = []any{map[string]any{"shopId": float64(2)}}
	diffs := testkit.DiffJSON("", expected, actual)
	require.Len(t, diffs, 1)
	assert.Contains(t, diffs[0], "orders[0].shopId")

	diffs = testkit.DiffJSON("", map[string]any{"missing": 1}, map[string]any{})
	assert.Contains(t, diffs[0], "missing in actual")
}

func TestExecWithHeaders(t *testing.T) {
	s := &testkit.Scenario{
		Name:          "request id echoed",
		RequestMethod: http.MethodGet,
		RequestURL:    "/health",
		Headers:       map[string]string{"X-Request-ID": "abc"},
		ExpectedCode:  http.StatusOK,
	}
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusOK)
	})
	rec := testkit.Exec(t, h, s)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}
