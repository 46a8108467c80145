package catalog

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parse decodes a catalog document. Both YAML and JSON are accepted, either as a
// plain list of assessments or as a mapping with "assessments" and "job_roles".
func Parse(data []byte) (*Catalog, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	var input any
	switch v := raw.(type) {
	case nil:
		input = map[string]any{}
	case []any:
		input = map[string]any{"assessments": v}
	case map[string]any:
		input = v
	default:
		return nil, fmt.Errorf("parse catalog: unexpected document type %T", raw)
	}

	var c Catalog
	if err := decode(input, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Marshal renders the catalog as YAML.
func Marshal(c *Catalog) ([]byte, error) {
	return yaml.Marshal(c)
}

func decode(input any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(input)
}
