package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"radfield/server/internal/scenario"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "schemas/scenario.schema.json", "path to write the JSON schema")
	flag.Parse()

	if err := writeSchema(outPath, scenario.Schema()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
