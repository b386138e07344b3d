// Command schema-generator regenerates the embedded swarmstat.yml schema
// from the config types.
package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/swarmstat/config"
)

func main() {
	out := flag.String("o", "schema/swarmstat.embedded.schema.json", "output file")
	flag.Parse()

	schemaBytes, err := config.GenerateSchema()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}
	if err := os.WriteFile(*out, append(schemaBytes, '\n'), 0o644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated schema at %s", *out)
}
