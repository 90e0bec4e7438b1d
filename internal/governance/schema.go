package governance

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigInvalid is the sentinel behind every ValidationError.
	ErrConfigInvalid = errors.New("governance: config invalid")
	// ErrConfigUnparsable is returned when the file is not YAML.
	ErrConfigUnparsable = errors.New("governance: config is not valid yaml")
)

//go:embed schema.json
var schemaDocument []byte

const schemaResource = "repo-config.schema.json"

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

// ValidationIssue is one schema violation.
type ValidationIssue struct {
	Location string `json:"location,omitempty"`
	Message  string `json:"message"`
}

// ValidationError lists the schema violations found in a governance file.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return ErrConfigInvalid.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return ErrConfigInvalid.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrConfigInvalid
}

// Schema returns the compiled governance file schema.
func Schema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaResource, bytes.NewReader(schemaDocument)); err != nil {
			compileErr = err
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaResource)
	})
	return compiledSchema, compileErr
}

// ParseAndValidate decodes a governance file, validates it and applies the
// schema defaults. Unknown keys are ignored.
func ParseAndValidate(content []byte) (*GovernanceFile, error) {
	var raw any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigUnparsable, err)
	}

	// round trip through JSON so the validator sees JSON types
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigUnparsable, err)
	}
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	var instance any
	if err := decoder.Decode(&instance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigUnparsable, err)
	}

	schema, err := Schema()
	if err != nil {
		return nil, fmt.Errorf("governance: compile schema: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return nil, &ValidationError{Issues: collectIssues(validationErr)}
		}
		return nil, &ValidationError{Issues: []ValidationIssue{{Message: err.Error()}}}
	}

	file := defaultGovernanceFile()
	if err := json.Unmarshal(encoded, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigUnparsable, err)
	}
	if file.CrossDomainRules == nil {
		file.CrossDomainRules = []CrossDomainRule{}
	}
	if file.Notifications.Channels == nil {
		file.Notifications.Channels = []string{defaultChannel}
	}
	return &file, nil
}

func collectIssues(err *jsonschema.ValidationError) []ValidationIssue {
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
