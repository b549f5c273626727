package manifest

import (
	"testing"

	"github.com/MrSnakeDoc/cradle/internal/schema"
)

func builtTable(t *testing.T) *schema.Table {
	t.Helper()
	table, err := Build("")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return table
}

func TestBuildEmbeddedManifest(t *testing.T) {
	table := builtTable(t)

	wantOrder := []string{
		"add_child",
		"start_timer",
		"add_feeding",
		"add_sleep",
		"add_tummy_time",
		"add_diaper_change",
		"add_temperature",
		"add_weight",
	}

	defs := table.Definitions()
	if len(defs) != len(wantOrder) {
		t.Fatalf("Build() produced %d services, want %d", len(defs), len(wantOrder))
	}
	for i, name := range wantOrder {
		if defs[i].Name != name {
			t.Errorf("Definitions()[%d] = %q, want %q", i, defs[i].Name, name)
		}
	}
}

func TestBuildMissingFile(t *testing.T) {
	if _, err := Build("/does/not/exist.yaml"); err == nil {
		t.Error("Build() with missing file = nil error, want error")
	}
}

func TestServiceTargets(t *testing.T) {
	table := builtTable(t)

	tests := []struct {
		service     string
		wantDomain  string // "" = no target
		deviceClass string
	}{
		{"add_child", "", ""},
		{"start_timer", "switch", ""},
		{"add_feeding", "switch", ""},
		{"add_sleep", "switch", ""},
		{"add_tummy_time", "switch", ""},
		{"add_diaper_change", "sensor", "babybuddy__child"},
		{"add_temperature", "sensor", "babybuddy__child"},
		{"add_weight", "sensor", "babybuddy__child"},
	}

	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			def, err := table.Get(tt.service)
			if err != nil {
				t.Fatalf("Get(%s) error = %v", tt.service, err)
			}
			if tt.wantDomain == "" {
				if def.Target != nil {
					t.Errorf("Get(%s).Target = %+v, want nil", tt.service, def.Target)
				}
				return
			}
			if def.Target == nil {
				t.Fatalf("Get(%s).Target = nil, want domain %q", tt.service, tt.wantDomain)
			}
			if def.Target.Domain != tt.wantDomain {
				t.Errorf("Get(%s).Target.Domain = %q, want %q", tt.service, def.Target.Domain, tt.wantDomain)
			}
			if def.Target.DeviceClass != tt.deviceClass {
				t.Errorf("Get(%s).Target.DeviceClass = %q, want %q", tt.service, def.Target.DeviceClass, tt.deviceClass)
			}
			if def.Target.Integration != "babybuddy" {
				t.Errorf("Get(%s).Target.Integration = %q, want babybuddy", tt.service, def.Target.Integration)
			}
		})
	}
}

func TestAddSleepFields(t *testing.T) {
	table := builtTable(t)

	def, err := table.Get("add_sleep")
	if err != nil {
		t.Fatalf("Get(add_sleep) error = %v", err)
	}

	wantKeys := []string{"timer", "start", "end", "notes"}
	if len(def.Fields) != len(wantKeys) {
		t.Fatalf("add_sleep has %d fields, want %d", len(def.Fields), len(wantKeys))
	}
	for i, key := range wantKeys {
		if def.Fields[i].Key != key {
			t.Errorf("add_sleep field %d = %q, want %q", i, def.Fields[i].Key, key)
		}
		if def.Fields[i].Required {
			t.Errorf("add_sleep field %q is required, want optional", key)
		}
	}
}

// TestRequiredOnlyPayloads validates, for every service, a payload containing
// exactly its required no-default fields with valid values.
func TestRequiredOnlyPayloads(t *testing.T) {
	table := builtTable(t)

	tests := []struct {
		service string
		payload map[string]any
	}{
		{"add_child", map[string]any{"first_name": "Jane", "last_name": "Doe", "birth_date": "2021-04-01"}},
		{"start_timer", map[string]any{}},
		{"add_feeding", map[string]any{}},
		{"add_sleep", map[string]any{}},
		{"add_tummy_time", map[string]any{}},
		{"add_diaper_change", map[string]any{}},
		{"add_temperature", map[string]any{"temperature": 36.6}},
		{"add_weight", map[string]any{"weight": 4.2}},
	}

	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			resolved, err := table.Validate(tt.service, tt.payload)
			if err != nil {
				t.Fatalf("Validate(%s) error = %v, want nil", tt.service, err)
			}

			// Declared defaults must appear in the resolved payload.
			def, _ := table.Get(tt.service)
			for _, f := range def.Fields {
				if f.Default == nil {
					continue
				}
				if _, present := tt.payload[f.Key]; present {
					continue
				}
				if resolved[f.Key] != f.Default {
					t.Errorf("resolved[%s] = %v, want default %v", f.Key, resolved[f.Key], f.Default)
				}
			}
		})
	}
}

func TestFeedingDefaults(t *testing.T) {
	table := builtTable(t)

	resolved, err := table.Validate("add_feeding", map[string]any{})
	if err != nil {
		t.Fatalf("Validate(add_feeding) error = %v", err)
	}
	if resolved["type"] != "Breast milk" {
		t.Errorf("resolved[type] = %v, want \"Breast milk\"", resolved["type"])
	}
	if resolved["method"] != "Both breasts" {
		t.Errorf("resolved[method] = %v, want \"Both breasts\"", resolved["method"])
	}
}

func TestFeedingAmountRange(t *testing.T) {
	table := builtTable(t)

	if _, err := table.Validate("add_feeding", map[string]any{"amount": 301}); schema.KindOf(err) != schema.OutOfRange {
		t.Errorf("amount=301 kind = %q, want %q", schema.KindOf(err), schema.OutOfRange)
	}
	if _, err := table.Validate("add_feeding", map[string]any{"amount": 300}); err != nil {
		t.Errorf("amount=300 error = %v, want nil", err)
	}
}

func TestDiaperChangeTypeDefault(t *testing.T) {
	table := builtTable(t)

	// The manifest default is lowercase "wet" while the option list carries
	// "Wet". The default is applied verbatim.
	resolved, err := table.Validate("add_diaper_change", map[string]any{})
	if err != nil {
		t.Fatalf("Validate(add_diaper_change) error = %v", err)
	}
	if resolved["type"] != "wet" {
		t.Errorf("resolved[type] = %v, want \"wet\"", resolved["type"])
	}

	if _, err := table.Validate("add_diaper_change", map[string]any{"type": "Gas"}); schema.KindOf(err) != schema.InvalidOption {
		t.Errorf("type=Gas kind = %q, want %q", schema.KindOf(err), schema.InvalidOption)
	}
}

func TestWeightRange(t *testing.T) {
	table := builtTable(t)

	if _, err := table.Validate("add_weight", map[string]any{"weight": -1}); schema.KindOf(err) != schema.OutOfRange {
		t.Errorf("weight=-1 kind = %q, want %q", schema.KindOf(err), schema.OutOfRange)
	}
	if _, err := table.Validate("add_weight", map[string]any{"weight": 0.0}); err != nil {
		t.Errorf("weight=0.0 error = %v, want nil (boundary inclusive)", err)
	}
}

func TestTemperatureRange(t *testing.T) {
	table := builtTable(t)

	if _, err := table.Validate("add_temperature", map[string]any{"temperature": 34.9}); schema.KindOf(err) != schema.OutOfRange {
		t.Errorf("temperature=34.9 kind = %q, want %q", schema.KindOf(err), schema.OutOfRange)
	}
	if _, err := table.Validate("add_temperature", map[string]any{}); schema.KindOf(err) != schema.MissingRequiredField {
		t.Errorf("missing temperature kind = %q, want %q", schema.KindOf(err), schema.MissingRequiredField)
	}
}

func TestAddChildRequiredFields(t *testing.T) {
	table := builtTable(t)

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"missing first_name", map[string]any{"last_name": "Doe", "birth_date": "2021-04-01"}},
		{"missing last_name", map[string]any{"first_name": "Jane", "birth_date": "2021-04-01"}},
		{"missing birth_date", map[string]any{"first_name": "Jane", "last_name": "Doe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := table.Validate("add_child", tt.payload)
			if schema.KindOf(err) != schema.MissingRequiredField {
				t.Errorf("Validate() kind = %q, want %q", schema.KindOf(err), schema.MissingRequiredField)
			}
		})
	}
}
