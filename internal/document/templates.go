package document

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// ErrUnknownTemplate is returned by Template for names with no built-in design.
var ErrUnknownTemplate = errors.New("unknown template")

// TemplateNames lists the built-in designs, sorted.
func TemplateNames() []string {
	entries, err := fs.ReadDir(templateFS, "templates")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	slices.Sort(names)
	return names
}

// Template builds a fresh document from a built-in design. Every call
// yields new element and layer ids.
func Template(name string) (*Document, error) {
	raw, err := templateFS.ReadFile(path.Join("templates", name+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}

	// Decode through a generic tree so the JSON field names and the
	// element defaults stay the single source of truth.
	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("convert template %s: %w", name, err)
	}
	return Load(data)
}
