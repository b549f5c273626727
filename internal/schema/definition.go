package schema

// ServiceDefinition describes one callable service: its identity, the entity
// target it may be addressed to, and the ordered list of input fields.
//
// Definitions are built once at startup from the declarative manifest and are
// never mutated afterwards; see Table.
type ServiceDefinition struct {
	// Name is the unique service key, e.g. "add_feeding".
	Name string

	// Label is the human-readable name shown in listings.
	Label string

	// Description explains what invoking the service does.
	Description string

	// Target restricts which entities the service may be called against.
	// Nil means the service takes no target (e.g. add_child).
	Target *EntityTarget

	// Fields is the ordered field list, in manifest declaration order.
	Fields []FieldDefinition
}

// Field returns the field definition for key, if declared.
func (d *ServiceDefinition) Field(key string) (*FieldDefinition, bool) {
	for i := range d.Fields {
		if d.Fields[i].Key == key {
			return &d.Fields[i], true
		}
	}
	return nil, false
}

// FieldDefinition describes one input field of a service.
type FieldDefinition struct {
	// Key is the payload key, unique within its service.
	Key string

	// Label is the human-readable field name.
	Label string

	// Description explains the field.
	Description string

	// Required marks the field as mandatory. A required field with a
	// Default is still satisfiable by omission.
	Required bool

	// Default is substituted when the field is absent from a payload.
	// Nil means no default.
	Default any

	// Selector declares the field's input type and validation rule.
	Selector Selector
}

// EntityTarget filters which entities a service call applies to.
type EntityTarget struct {
	// Integration is the integration name entities must belong to.
	Integration string

	// Domain is the entity domain, e.g. "sensor" or "switch".
	Domain string

	// DeviceClass optionally narrows the target to one device class.
	DeviceClass string
}

// Target identifies the entity a caller addressed a service call to.
// DeviceClass may be empty when the caller did not state one.
type Target struct {
	Domain      string
	DeviceClass string
}
