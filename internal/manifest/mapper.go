package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/MrSnakeDoc/cradle/internal/schema"
)

// Mapper converts a parsed manifest document into schema definitions.
type Mapper struct{}

// NewMapper creates a new mapper instance.
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapServices converts the root mapping node into service definitions,
// preserving service and field declaration order.
func (m *Mapper) MapServices(root *yaml.Node) ([]schema.ServiceDefinition, error) {
	defs := make([]schema.ServiceDefinition, 0, len(root.Content)/2)

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]

		var doc serviceDoc
		if err := valNode.Decode(&doc); err != nil {
			return nil, fmt.Errorf("service %q: %w", keyNode.Value, err)
		}

		def := schema.ServiceDefinition{
			Name:        keyNode.Value,
			Label:       doc.Name,
			Description: doc.Description,
		}

		if doc.Target != nil && doc.Target.Entity != nil {
			def.Target = &schema.EntityTarget{
				Integration: doc.Target.Entity.Integration,
				Domain:      doc.Target.Entity.Domain,
				DeviceClass: doc.Target.Entity.DeviceClass,
			}
		}

		fields, err := m.mapFields(&doc.Fields)
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", keyNode.Value, err)
		}
		def.Fields = fields

		defs = append(defs, def)
	}

	if len(defs) == 0 {
		return nil, fmt.Errorf("no service declarations found in manifest")
	}

	return defs, nil
}

func (m *Mapper) mapFields(node *yaml.Node) ([]schema.FieldDefinition, error) {
	if node.Kind == 0 || isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("fields must be a mapping")
	}

	fields := make([]schema.FieldDefinition, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]

		var doc fieldDoc
		if err := valNode.Decode(&doc); err != nil {
			return nil, fmt.Errorf("field %q: %w", keyNode.Value, err)
		}

		selector, err := m.mapSelector(&doc.Selector)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", keyNode.Value, err)
		}

		fields = append(fields, schema.FieldDefinition{
			Key:         keyNode.Value,
			Label:       doc.Name,
			Description: doc.Description,
			Required:    doc.Required,
			Default:     doc.Default,
			Selector:    selector,
		})
	}

	return fields, nil
}

// mapSelector decodes the single-key selector mapping. A selector body may
// be null ("text:"), which selects the variant with its zero options.
func (m *Mapper) mapSelector(node *yaml.Node) (schema.Selector, error) {
	var sel schema.Selector

	if node.Kind != yaml.MappingNode || len(node.Content) < 2 {
		return sel, fmt.Errorf("selector must be a mapping with one variant")
	}
	if len(node.Content) > 2 {
		return sel, fmt.Errorf("selector declares more than one variant")
	}

	keyNode, valNode := node.Content[0], node.Content[1]

	switch keyNode.Value {
	case "text":
		var doc textSelectorDoc
		if err := decodeBody(valNode, &doc); err != nil {
			return sel, err
		}
		sel.Text = &schema.TextSelector{Multiline: doc.Multiline}
	case "boolean":
		sel.Boolean = &schema.BooleanSelector{}
	case "time":
		sel.Time = &schema.TimeSelector{}
	case "number":
		var doc numberSelectorDoc
		if err := decodeBody(valNode, &doc); err != nil {
			return sel, err
		}
		sel.Number = &schema.NumberSelector{
			Min:  doc.Min,
			Max:  doc.Max,
			Step: doc.Step,
			Mode: doc.Mode,
		}
	case "select":
		var doc selectSelectorDoc
		if err := decodeBody(valNode, &doc); err != nil {
			return sel, err
		}
		if len(doc.Options) == 0 {
			return sel, fmt.Errorf("select selector declares no options")
		}
		sel.Select = &schema.SelectSelector{Options: doc.Options}
	default:
		return sel, fmt.Errorf("unknown selector variant %q", keyNode.Value)
	}

	return sel, nil
}

func decodeBody(node *yaml.Node, out any) error {
	if isNull(node) {
		return nil
	}
	return node.Decode(out)
}

func isNull(node *yaml.Node) bool {
	return node == nil || node.Kind == 0 || node.Tag == "!!null"
}
