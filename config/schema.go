package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

//go:generate go run ../tools/schema-generator -o ../schema/swarmstat.embedded.schema.json

// GenerateSchema reflects Config into a JSON Schema. Section objects are
// closed; the root stays open so extensions such as logging validate.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
		DoNotReference:            true,
	}

	schema := r.Reflect(&Config{})
	schema.Title = "swarmstat configuration"
	schema.Description = "Schema for swarmstat.yml."
	schema.Version = "http://json-schema.org/draft-07/schema#"
	schema.AdditionalProperties = jsonschema.TrueSchema

	return json.MarshalIndent(schema, "", "  ")
}
