package schema

import "fmt"

// Table is the immutable service schema table. It is built once at startup
// from the declarative manifest and is safe for concurrent use without
// locking: validation reads the table, never writes it.
type Table struct {
	defs   map[string]*ServiceDefinition
	order  []string
	strict bool
}

// Option configures a Table at construction time.
type Option func(*Table)

// Strict controls whether payload fields not declared in the schema are
// rejected (true, the default) or silently dropped (false).
func Strict(on bool) Option {
	return func(t *Table) { t.strict = on }
}

// NewTable builds a table from definitions. Service names must be unique, and
// field keys must be unique within their service.
func NewTable(defs []ServiceDefinition, opts ...Option) (*Table, error) {
	t := &Table{
		defs:   make(map[string]*ServiceDefinition, len(defs)),
		order:  make([]string, 0, len(defs)),
		strict: true,
	}
	for _, opt := range opts {
		opt(t)
	}

	for i := range defs {
		def := defs[i]
		if def.Name == "" {
			return nil, fmt.Errorf("service definition %d has no name", i)
		}
		if _, dup := t.defs[def.Name]; dup {
			return nil, fmt.Errorf("duplicate service definition %q", def.Name)
		}
		seen := make(map[string]struct{}, len(def.Fields))
		for _, f := range def.Fields {
			if f.Key == "" {
				return nil, fmt.Errorf("service %q has a field with no key", def.Name)
			}
			if _, dup := seen[f.Key]; dup {
				return nil, fmt.Errorf("service %q declares field %q twice", def.Name, f.Key)
			}
			if f.Selector.Kind() == "" {
				return nil, fmt.Errorf("service %q field %q has no selector", def.Name, f.Key)
			}
			seen[f.Key] = struct{}{}
		}
		t.defs[def.Name] = &def
		t.order = append(t.order, def.Name)
	}

	return t, nil
}

// Get returns the definition for name.
func (t *Table) Get(name string) (*ServiceDefinition, error) {
	def, ok := t.defs[name]
	if !ok {
		return nil, &Error{Kind: UnknownService, Service: name, Reason: "service is not declared"}
	}
	return def, nil
}

// Definitions returns all definitions in declaration order.
func (t *Table) Definitions() []*ServiceDefinition {
	defs := make([]*ServiceDefinition, 0, len(t.order))
	for _, name := range t.order {
		defs = append(defs, t.defs[name])
	}
	return defs
}

// Len returns the number of declared services.
func (t *Table) Len() int {
	return len(t.order)
}

// Validate checks payload against the declared fields of service and returns
// the resolved field-value mapping with defaults applied. It is pure and
// deterministic; it performs no I/O.
func (t *Table) Validate(service string, payload map[string]any) (map[string]any, error) {
	def, err := t.Get(service)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]any, len(def.Fields))
	for i := range def.Fields {
		f := &def.Fields[i]

		value, present := payload[f.Key]
		if !present {
			// Defaults are applied verbatim, without re-checking them
			// against the selector. The manifest carries defaults that
			// deliberately differ in casing from their option list.
			if f.Default != nil {
				resolved[f.Key] = f.Default
				continue
			}
			if f.Required {
				return nil, &Error{
					Kind:    MissingRequiredField,
					Service: service,
					Field:   f.Key,
					Reason:  "field is required and has no default",
				}
			}
			continue
		}

		checked, kind, reason := f.Selector.check(value)
		if kind != "" {
			return nil, &Error{Kind: kind, Service: service, Field: f.Key, Reason: reason}
		}
		resolved[f.Key] = checked
	}

	if t.strict {
		for key := range payload {
			if _, ok := def.Field(key); !ok {
				return nil, &Error{
					Kind:    UnexpectedField,
					Service: service,
					Field:   key,
					Reason:  "field is not declared in the service schema",
				}
			}
		}
	}

	return resolved, nil
}

// ValidateTarget checks a caller-supplied target against the entity target
// declared for service. Services without a declared target accept any
// target, including none.
func (t *Table) ValidateTarget(service string, target Target) error {
	def, err := t.Get(service)
	if err != nil {
		return err
	}
	if def.Target == nil {
		return nil
	}

	if target.Domain != def.Target.Domain {
		return &Error{
			Kind:    TargetMismatch,
			Service: service,
			Reason:  fmt.Sprintf("target domain %q does not match declared domain %q", target.Domain, def.Target.Domain),
		}
	}
	if def.Target.DeviceClass != "" && target.DeviceClass != "" && target.DeviceClass != def.Target.DeviceClass {
		return &Error{
			Kind:    TargetMismatch,
			Service: service,
			Reason:  fmt.Sprintf("target device class %q does not match declared class %q", target.DeviceClass, def.Target.DeviceClass),
		}
	}
	return nil
}
