package manifest

import "gopkg.in/yaml.v3"

// serviceDoc is the YAML shape of one service declaration. Fields is kept as
// a raw node so the mapper can preserve field declaration order.
type serviceDoc struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Target      *targetDoc `yaml:"target"`
	Fields      yaml.Node  `yaml:"fields"`
}

type targetDoc struct {
	Entity *entityDoc `yaml:"entity"`
}

type entityDoc struct {
	Integration string `yaml:"integration"`
	Domain      string `yaml:"domain"`
	DeviceClass string `yaml:"device_class"`
}

// fieldDoc is the YAML shape of one field declaration.
type fieldDoc struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Required    bool      `yaml:"required"`
	Default     any       `yaml:"default"`
	Selector    yaml.Node `yaml:"selector"`
}

type textSelectorDoc struct {
	Multiline bool `yaml:"multiline"`
}

type numberSelectorDoc struct {
	Min  *float64 `yaml:"min"`
	Max  *float64 `yaml:"max"`
	Step *float64 `yaml:"step"`
	Mode string   `yaml:"mode"`
}

type selectSelectorDoc struct {
	Options []string `yaml:"options"`
}
