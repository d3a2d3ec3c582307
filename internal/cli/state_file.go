package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alexanderramin/dayplan/internal/domain"
	"gopkg.in/yaml.v3"
)

// loadStudyState reads a study state from a YAML file. An empty path yields
// a zero state, which generates a generic practice plan.
func loadStudyState(path string) (domain.UserStudyState, error) {
	var state domain.UserStudyState
	if path == "" {
		return state, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return state, fmt.Errorf("reading study state: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&state); err != nil && !errors.Is(err, io.EOF) {
		return state, fmt.Errorf("parsing study state %s: %w", path, err)
	}
	return state, nil
}
