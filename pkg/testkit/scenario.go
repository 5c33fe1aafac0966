// Package testkit drives nearcart's HTTP API tests from JSON scenario files
// and provides the fixtures those tests share (in-memory database, Redis).
//
// A scenario describes one request and what must come back:
//
//	{
//	  "name": "checkout splits by shop",
//	  "requestMethod": "POST",
//	  "requestUrl": "/order/checkout",
//	  "asUser": 1,
//	  "requestBody": {"cartItems": [...], "addressId": 1},
//	  "expectedCode": 201,
//	  "expectedBody": {"success": true}
//	}
//
// expectedBody is matched as a subset: every key it names must be present
// with an equal value, extra keys in the response are ignored.
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Scenario describes a single REST API test case.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod   string            `json:"requestMethod"`
	RequestURL      string            `json:"requestUrl"`
	RequestFileName string            `json:"requestFileName"` // relative to the scenario file
	RequestBody     json.RawMessage   `json:"requestBody"`     // inline alternative to requestFileName
	Headers         map[string]string `json:"headers"`

	// AsUser mints a bearer token for this user id when non-zero.
	AsUser uint   `json:"asUser"`
	Role   string `json:"role"`

	ExpectedCode       int             `json:"expectedCode"`
	ExpectedStatusCode int             `json:"expectedStatusCode"` // alias
	ResponseFileName   string          `json:"responseFileName"`   // exact JSON match
	ExpectedBody       json.RawMessage `json:"expectedBody"`       // subset match

	dir string
}

// LoadScenario reads and validates a scenario from a JSON file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	s.dir = filepath.Dir(abs)
	if err := s.normalize(true); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}
	return &s, nil
}

// LoadScenarioArray reads a JSON array of scenarios. URL and method may be
// left empty for the suite runner to fill in.
func LoadScenarioArray(path string) ([]*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve scenario array path %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read scenario array %q: %w", abs, err)
	}

	var scenarios []*Scenario
	if err := json.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("testkit: parse scenario array %q: %w", abs, err)
	}
	for _, s := range scenarios {
		s.dir = filepath.Dir(abs)
		if err := s.normalize(false); err != nil {
			return nil, fmt.Errorf("testkit: invalid scenario in %q: %w", abs, err)
		}
	}
	return scenarios, nil
}

func (s *Scenario) normalize(needURL bool) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if needURL && s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		s.ExpectedCode = s.ExpectedStatusCode
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestFileName != "" && len(s.RequestBody) > 0 {
		return fmt.Errorf("requestFileName and requestBody are mutually exclusive")
	}
	return nil
}

func (s *Scenario) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// RequestBytes returns the request body, or nil when the scenario has none.
func (s *Scenario) RequestBytes() ([]byte, error) {
	if len(s.RequestBody) > 0 {
		return s.RequestBody, nil
	}
	if p := s.resolve(s.RequestFileName); p != "" {
		return os.ReadFile(p)
	}
	return nil, nil
}

// ResponseBodyPath returns the absolute path to the expected response file,
// or "" when the scenario has none.
func (s *Scenario) ResponseBodyPath() string { return s.resolve(s.ResponseFileName) }
