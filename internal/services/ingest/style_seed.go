package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StyleSeed is the on-disk persona style record. Seeds live as one YAML file
// per persona in the configured style directory, named after the persona with
// spaces replaced by underscores, e.g. "Marie Curie" -> marie_curie.yaml.
type StyleSeed struct {
	Name          string   `yaml:"name"`
	Description   string   `yaml:"description"`
	ToneDirective string   `yaml:"tone_directive"`
	Catchphrases  []string `yaml:"catchphrases"`
	Era           string   `yaml:"era"`
}

// LoadStyleSeed reads the style seed for a persona from styleDir. A missing
// file is not an error; it returns (nil, nil) and the persona keeps default
// style.
func LoadStyleSeed(styleDir, personaName string) (*StyleSeed, error) {
	path := filepath.Join(styleDir, styleSeedFileName(personaName))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read style seed %s: %w", path, err)
	}

	var seed StyleSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse style seed %s: %w", path, err)
	}
	return &seed, nil
}

func styleSeedFileName(personaName string) string {
	slug := strings.ToLower(strings.TrimSpace(personaName))
	slug = strings.ReplaceAll(slug, " ", "_")
	return slug + ".yaml"
}
