// Package catalog lists the program error trackers that feed the
// consolidated table.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/JonMunkholm/aet/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// Default is the built-in catalog, in aggregation order.
var Default = []pipeline.Source{
	{ID: "18cK8hMlNjC8JclnqQt-Wm-oeBbrrLNyWErvePEc_Z1E", Program: "BayelsaPRIME"},
	{ID: "1InSSjWL_OCXrK6KvYZFweREmCOh9ayEuPbC0IpfTnXQ", Program: "Bridge Andhra Pradesh"},
	{ID: "1Z49FAwkq8c0bSFPpG2Ki3Gh_t9XjiqvWov2D_1-rNgk", Program: "Bridge Kenya"},
	{ID: "1tVqoavTYriWY50JAz7ludDW0wttW6Si6YnqkOTNZlbk", Program: "Bridge Liberia"},
	{ID: "1YIUIxMtfpVgRSgaOp6BwNFs3nbDPVwXANfib1uzrc-c", Program: "Bridge Nigeria"},
	{ID: "1AgntRauSd70NYGNcU_tgNxAKo-hfuub8NKaptsUbMTM", Program: "Bridge Uganda"},
	{ID: "12uL3uodPrXZpoQ6ZZ3Bmo_em9ODzq1nyLsXFm2axGwY", Program: "EdoBEST"},
	{ID: "1ImTQcgqV3gY4aNe_o1w33MOXwg-DyrhvCYgfIXMoXfQ", Program: "EKOEXCEL"},
	{ID: "1JrnrVwDf8kdzko1NXFriJ6FfdOLW5bH9vDQIuC2_ZHE", Program: "KwaraLEARN"},
	{ID: "1-ItQ14rgJAIMYN3fWW1t08ciT0Qp54jrB8zZGsWFJmk", Program: "RwandaEQUIP"},
	{ID: "1hoQl1qeK7C0C7hx1IDRMgMyiUvsreN7ji5wBVxDqDrM", Program: "STAR Education"},
}

// file is the on-disk catalog layout:
//
//	sources:
//	  - id: 18cK8hMl...
//	    program: BayelsaPRIME
type file struct {
	Sources []pipeline.Source `yaml:"sources"`
}

// Load returns the catalog at path, or a copy of Default when path is empty.
func Load(path string) ([]pipeline.Source, error) {
	if path == "" {
		return append([]pipeline.Source(nil), Default...), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) ([]pipeline.Source, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := Validate(f.Sources); err != nil {
		return nil, err
	}
	return f.Sources, nil
}

// Validate rejects empty catalogs, blank fields and duplicate source IDs.
func Validate(sources []pipeline.Source) error {
	if len(sources) == 0 {
		return fmt.Errorf("catalog has no sources")
	}

	var errs []string
	seen := make(map[string]bool, len(sources))
	for i, s := range sources {
		if strings.TrimSpace(s.ID) == "" {
			errs = append(errs, fmt.Sprintf("source %d: id is required", i+1))
		}
		if strings.TrimSpace(s.Program) == "" {
			errs = append(errs, fmt.Sprintf("source %d: program is required", i+1))
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Sprintf("source %d: duplicate id %s", i+1, s.ID))
		}
		seen[s.ID] = true
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
