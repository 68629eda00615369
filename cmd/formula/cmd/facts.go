package cmd

import (
	"os"

	"github.com/silvergrid/formula/internal/jsonvalue"
)

// loadFacts reads and parses the JSON document at path. An empty path
// is not an error: it means no --facts flag was given, and formulas
// referencing $Customer/$Flight/$Requests will simply see those facts
// unbound (a MissingFact error at evaluation time).
func loadFacts(path string) (*jsonvalue.Value, error) {
	if path == "" {
		return jsonvalue.NewObject(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jsonvalue.Parse(string(raw))
}
