// internal/reminders/templates.go
package reminders

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	apperrors "apptrack/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// Template names
const (
	TemplateDeadlineReminder = "deadline_reminder"
)

type Template struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// TemplateRegistry holds the reminder message templates, keyed by name.
// Registries loaded from disk are schema-validated before use so a bad
// deploy fails at startup, not mid-scan.
type TemplateRegistry struct {
	templates map[string]Template
}

const registrySchema = `{
	"type": "object",
	"required": ["templates"],
	"properties": {
		"version": {"type": "string"},
		"templates": {
			"type": "object",
			"required": ["deadline_reminder"],
			"minProperties": 1,
			"additionalProperties": {
				"type": "object",
				"required": ["subject", "body"],
				"properties": {
					"subject": {"type": "string", "minLength": 1},
					"body": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

type registryFile struct {
	Version   string              `json:"version"`
	Templates map[string]Template `json:"templates"`
}

// DefaultTemplates returns the built-in reminder templates.
func DefaultTemplates() *TemplateRegistry {
	return &TemplateRegistry{
		templates: map[string]Template{
			TemplateDeadlineReminder: {
				Subject: "Reminder: {{title}} due in {{days}} {{daysLabel}}!",
				Body: "Hello {{username}},\n\n" +
					"This is a reminder that your application for '{{title}}' at {{institution}} " +
					"is due in {{days}} {{daysLabel}} on {{deadline}}.\n\n" +
					"Current Status: {{status}}\n\n" +
					"Don't forget to review your materials and submit on time!\n\n" +
					"Good luck,\nAppTrack Bot",
			},
		},
	}
}

// LoadTemplates reads a registry JSON file and validates it against the
// registry schema.
func LoadTemplates(path string) (*TemplateRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template registry %s: %w", path, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(registrySchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, apperrors.NewTemplateInvalidError(err.Error())
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, apperrors.NewTemplateInvalidError(strings.Join(details, "; "))
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse template registry: %w", err)
	}

	return &TemplateRegistry{templates: file.Templates}, nil
}

// Render produces the subject and body for a named template.
func (r *TemplateRegistry) Render(name string, data map[string]interface{}) (string, string, error) {
	tmpl, exists := r.templates[name]
	if !exists {
		return "", "", apperrors.NewTemplateNotFoundError(name)
	}
	return renderTemplate(tmpl.Subject, data), renderTemplate(tmpl.Body, data), nil
}

// renderTemplate substitutes {{placeholder}} tokens and strips any that had
// no value.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if i, ok := v.(int); ok {
			value = fmt.Sprintf("%d", i)
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Remove any remaining placeholders (missing values)
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}
