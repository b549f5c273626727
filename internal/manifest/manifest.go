// Package manifest turns the declarative service manifest (services.yaml)
// into the immutable schema table consumed by the dispatcher and the HTTP
// layer. The default manifest is embedded in the binary; deployments may
// point at an alternative file via configuration.
package manifest

import (
	"fmt"

	"github.com/MrSnakeDoc/cradle/internal/schema"
)

// Build loads the manifest at path (embedded default when path is empty) and
// constructs the schema table. The table is built once and never mutated;
// changing the manifest requires a restart.
func Build(path string, opts ...schema.Option) (*schema.Table, error) {
	root, err := NewLoader(path).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	defs, err := NewMapper().MapServices(root)
	if err != nil {
		return nil, fmt.Errorf("failed to map manifest: %w", err)
	}

	table, err := schema.NewTable(defs, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	return table, nil
}
