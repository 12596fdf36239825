package httpapi

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Redirect maps one site path to another.
type Redirect struct {
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Permanent bool   `yaml:"permanent"`
}

// LoadRedirects reads the redirect table from a YAML file. A missing file
// is an empty table.
func LoadRedirects(path string) ([]Redirect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read redirects: %w", err)
	}

	var redirects []Redirect
	if err := yaml.Unmarshal(data, &redirects); err != nil {
		return nil, fmt.Errorf("failed to parse redirects: %w", err)
	}

	for i, redirect := range redirects {
		if !strings.HasPrefix(redirect.From, "/") || redirect.To == "" {
			return nil, fmt.Errorf("redirect %d: from must start with / and to is required", i)
		}
	}
	return redirects, nil
}
