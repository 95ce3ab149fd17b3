package notify

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFiles embed.FS

// messageTemplate is one embedded notification template: a subject line
// and a body, both Go templates.
type messageTemplate struct {
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// loadTemplate reads and parses an embedded template by name
func loadTemplate(name string) (*messageTemplate, error) {
	data, err := templateFiles.ReadFile(fmt.Sprintf("templates/%s.yaml", name))
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", name, err)
	}

	var tmpl messageTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("unmarshal template %s: %w", name, err)
	}
	return &tmpl, nil
}

// render executes the subject and body templates against data
func (t *messageTemplate) render(data any) (subject, body string, err error) {
	subject, err = renderOne("subject", t.Subject, data)
	if err != nil {
		return "", "", err
	}
	body, err = renderOne("body", t.Body, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func renderOne(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return buf.String(), nil
}
