package store

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// documentValidator optionally checks the on-disk table document against a
// caller-supplied JSON schema before it is decoded. Validation failures are
// reported as corrupt state, same as a decode failure.
type documentValidator struct {
	schema *gojsonschema.Schema
}

func newDocumentValidator(source string) (*documentValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to compile session schema: %w", err)
	}
	return &documentValidator{schema: schema}, nil
}

func (v *documentValidator) validate(content []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(content))
	if err != nil {
		return fmt.Errorf("failed to validate session document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var details []string
	for _, resultErr := range result.Errors() {
		details = append(details, resultErr.String())
	}
	return fmt.Errorf("session document failed schema validation: %s", strings.Join(details, "; "))
}
