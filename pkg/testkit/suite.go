package testkit

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

// ConfigEntry is one API group in a master test_scenarios.json.
type ConfigEntry struct {
	ServiceName       string `json:"serviceName"`
	FilePath          string `json:"filePath"`
	ScenariosFileName string `json:"scenariosFileName"`
	ServiceURL        string `json:"serviceUrl"`
	HTTPMethodType    string `json:"httpMethodType"`
}

// RunSuite runs every group listed in the master config against handler.
// Scenarios without their own URL or method inherit the group's. Groups and
// scenarios run in file order, so later scenarios may depend on state left
// by earlier ones.
func RunSuite(t *testing.T, masterConfigPath string, handler http.Handler) {
	t.Helper()

	abs, err := filepath.Abs(masterConfigPath)
	if err != nil {
		t.Fatalf("testkit: resolve master config path %q: %v", masterConfigPath, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		t.Fatalf("testkit: read master config %q: %v", abs, err)
	}
	var entries []ConfigEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("testkit: parse master config %q: %v", abs, err)
	}

	baseDir := filepath.Dir(abs)
	for _, entry := range entries {
		t.Run(entry.ServiceName, func(t *testing.T) {
			scenarios, err := LoadScenarioArray(filepath.Join(baseDir, entry.FilePath, entry.ScenariosFileName))
			if err != nil {
				t.Fatalf("%v", err)
			}
			for _, s := range scenarios {
				if s.RequestURL == "" {
					s.RequestURL = entry.ServiceURL
				}
				if s.RequestMethod == "" {
					s.RequestMethod = entry.HTTPMethodType
				}
				t.Run(s.Name, func(t *testing.T) { Exec(t, handler, s) })
			}
		})
	}
}
