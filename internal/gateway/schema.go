package gateway

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	schemaUser               = "user"
	schemaLogin              = "login"
	schemaJobs               = "jobs"
	schemaApplications       = "applications"
	schemaSavedJobs          = "saved_jobs"
	schemaSaveReceipt        = "save_receipt"
	schemaApplicationReceipt = "application_receipt"
	schemaGeneration         = "generation"
	schemaInterviewPrep      = "interview_prep"
	schemaImportSummary      = "import_summary"
	schemaObject             = "object"
)

var (
	schemasOnce sync.Once
	schemas     map[string]*gojsonschema.Schema
	schemasErr  error
)

func loadSchemas() (map[string]*gojsonschema.Schema, error) {
	schemasOnce.Do(func() {
		entries, err := schemaFS.ReadDir("schemas")
		if err != nil {
			schemasErr = err
			return
		}
		out := make(map[string]*gojsonschema.Schema, len(entries))
		for _, e := range entries {
			b, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
			if err != nil {
				schemasErr = err
				return
			}
			s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
			if err != nil {
				schemasErr = fmt.Errorf("compile schema %s: %w", e.Name(), err)
				return
			}
			out[strings.TrimSuffix(e.Name(), ".json")] = s
		}
		schemas = out
	})
	return schemas, schemasErr
}

// validate checks body against the named schema and reports every violation in
// one error.
func validate(name string, body []byte) error {
	all, err := loadSchemas()
	if err != nil {
		return err
	}
	s, ok := all[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}

	res, err := s.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema %s validation failed: %s", name, strings.Join(msgs, "; "))
}
