package scenario

import "github.com/invopop/jsonschema"

// Schema reflects File into the JSON schema shipped at
// schemas/scenario.schema.json. Regenerate with cmd/schema after
// changing the structs or their tags.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(new(File))
	schema.Title = "Radfield Scenario"
	schema.Description = "Validates scenario files in config/scenarios/"
	return schema
}
