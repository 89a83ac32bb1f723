// cmd/tools/worker-generator/generate.go
package main

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"repairer-search/pkg/registry"
)

// WorkerData feeds the file templates.
type WorkerData struct {
	Name         string
	PackageName  string
	Dir          string
	TaskConst    string
	TaskType     string
	Description  string
	Timeout      time.Duration
	InputFields  []Field
	OutputFields []Field
	ErrorCodes   []string
}

type Field struct {
	Name     string
	Type     string
	JSONName string
	Required bool
}

var taskConsts = map[string]string{
	registry.TaskParseSearchIntent:    "TaskParseSearchIntent",
	registry.TaskMatchRepairers:       "TaskMatchRepairers",
	registry.TaskSearchRepairers:      "TaskSearchRepairers",
	registry.TaskQuickSearchRepairers: "TaskQuickSearchRepairers",
	registry.TaskSearchNearby:         "TaskSearchNearby",
	registry.TaskGetSearchSuggestions: "TaskGetSearchSuggestions",
}

func newWorkerData(a registry.Activity) (*WorkerData, error) {
	timeout, err := a.TimeoutDuration()
	if err != nil {
		return nil, err
	}
	return &WorkerData{
		Name:         a.DisplayName,
		PackageName:  strings.ReplaceAll(a.ID, "-", ""),
		Dir:          a.ID,
		TaskConst:    taskConsts[a.TaskType],
		TaskType:     a.TaskType,
		Description:  a.Description,
		Timeout:      timeout,
		InputFields:  schemaFields(a.InputSchema),
		OutputFields: schemaFields(a.OutputSchema),
		ErrorCodes:   a.ErrorCodes,
	}, nil
}

// schemaFields lists the top-level properties of an object schema, sorted by name.
func schemaFields(schema map[string]interface{}) []Field {
	props, _ := schema["properties"].(map[string]interface{})
	required := map[string]bool{}
	if req, ok := schema["required"].([]interface{}); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				required[s] = true
			}
		}
	}

	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, name := range names {
		details, _ := props[name].(map[string]interface{})
		fields = append(fields, Field{
			Name:     upperFirst(name),
			Type:     goType(details["type"]),
			JSONName: name,
			Required: required[name],
		})
	}
	return fields
}

// goType maps a JSON schema type to a Go type.
func goType(jsonType interface{}) string {
	switch jsonType {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	}
	return "interface{}"
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func jsonTag(f Field) string {
	if f.Required {
		return fmt.Sprintf("`json:\"%s\"`", f.JSONName)
	}
	return fmt.Sprintf("`json:\"%s,omitempty\"`", f.JSONName)
}

// Generate writes a worker skeleton for a under root/search/<id> and returns the directory and file names.
func Generate(a registry.Activity, root string, force bool) (string, []string, error) {
	data, err := newWorkerData(a)
	if err != nil {
		return "", nil, err
	}
	dir := filepath.Join(root, "search", data.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, fmt.Errorf("failed to create directory: %w", err)
	}

	var written []string
	for _, name := range []string{"config.go", "models.go", "handler.go", "handler_test.go"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil && !force {
			return dir, written, fmt.Errorf("%s already exists", path)
		}
		src, err := render(name, data)
		if err != nil {
			return dir, written, err
		}
		if err := os.WriteFile(path, src, 0o644); err != nil {
			return dir, written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, name)
	}
	return dir, written, nil
}

func render(name string, data *WorkerData) ([]byte, error) {
	tmpl, err := template.New(name).Funcs(template.FuncMap{"jsonTag": jsonTag}).Parse(templates[name])
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", name, err)
	}
	return src, nil
}
