package manifest

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultServices is the manifest shipped with the binary.
//
//go:embed services.yaml
var defaultServices []byte

// Loader reads and parses a service manifest.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for the manifest at filePath. An empty path
// selects the embedded default manifest.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Load parses the manifest and returns its root mapping node. The node form
// is used instead of a plain map so declaration order survives parsing.
func (l *Loader) Load() (*yaml.Node, error) {
	data := defaultServices
	if l.filePath != "" {
		var err error
		data, err = os.ReadFile(l.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest file: %w", err)
		}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("manifest is empty")
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("manifest root must be a mapping of service declarations")
	}

	return root, nil
}
