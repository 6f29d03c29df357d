package store

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dyna-dot/gaffer/errors"
)

// Well-known property keys.
const (
	// PropStoreClass names the store implementation to build, e.g.
	// "mapstore" or "sqlstore".
	PropStoreClass = "store.class"
	// PropDataPath is the filesystem location for file-backed stores.
	PropDataPath = "store.data.path"
)

// Properties is the configuration document for one store. It is an opaque
// string map to the core; store implementations read the keys they know.
type Properties struct {
	values map[string]string
}

// NewProperties creates an empty properties document.
func NewProperties() *Properties {
	return &Properties{values: make(map[string]string)}
}

// PropertiesFrom builds a properties document from a plain map.
func PropertiesFrom(values map[string]string) *Properties {
	p := NewProperties()
	for k, v := range values {
		p.values[k] = v
	}
	return p
}

// LoadProperties reads a YAML properties document from a file.
func LoadProperties(path string) (*Properties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Properties", "LoadProperties", "read properties file")
	}
	return ParseProperties(data)
}

// ParseProperties parses a YAML properties document.
func ParseProperties(data []byte) (*Properties, error) {
	values := make(map[string]string)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, errors.WrapInvalid(err, "Properties", "ParseProperties", "parse properties document")
	}
	return &Properties{values: values}, nil
}

// Get reads one property, with ok reporting presence.
func (p *Properties) Get(key string) (string, bool) {
	if p == nil {
		return "", false
	}
	v, ok := p.values[key]
	return v, ok
}

// GetDefault reads one property, falling back to def when absent.
func (p *Properties) GetDefault(key, def string) string {
	if v, ok := p.Get(key); ok {
		return v
	}
	return def
}

// Set writes one property.
func (p *Properties) Set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	p.values[key] = value
}

// StoreClass returns the configured store implementation name.
func (p *Properties) StoreClass() string {
	return p.GetDefault(PropStoreClass, "")
}

// Clone returns a copy of the properties document.
func (p *Properties) Clone() *Properties {
	if p == nil {
		return nil
	}
	return PropertiesFrom(p.values)
}

// Equal reports whether two properties documents hold the same values.
func (p *Properties) Equal(other *Properties) bool {
	if p == nil || other == nil {
		return p == other
	}
	if len(p.values) != len(other.values) {
		return false
	}
	for k, v := range p.values {
		if ov, ok := other.values[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// ToYAML serialises the properties document.
func (p *Properties) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(p.values)
	if err != nil {
		return nil, errors.WrapFatal(err, "Properties", "ToYAML", "marshal properties")
	}
	return data, nil
}
