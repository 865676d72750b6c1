package form

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field kinds accepted in a definition.
const (
	KindText = "text"
	KindFile = "file"
)

// Definition is the on-disk description of a form.
//
//	fields:
//	  - name: name
//	    value: Alice
//	  - name: file
//	    type: file
//	    path: ./avatar.png
type Definition struct {
	Fields []FieldDef `yaml:"fields"`
}

// FieldDef describes one control. A file field without a path models a file
// input with nothing selected.
type FieldDef struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Value       string `yaml:"value"`
	Path        string `yaml:"path"`
	Filename    string `yaml:"filename"`
	ContentType string `yaml:"content_type"`
}

// LoadDefinition reads a YAML definition and materialises it as a StaticForm.
// Relative file paths resolve against the definition's directory.
func LoadDefinition(path string) (*StaticForm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDef, err)
	}
	return ParseDefinition(data, filepath.Dir(path))
}

// ParseDefinition decodes a YAML definition; baseDir anchors relative paths.
func ParseDefinition(data []byte, baseDir string) (*StaticForm, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDef, err)
	}

	form := NewStatic()
	for i, fd := range def.Fields {
		field, err := fd.build(baseDir)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d: %w", ErrInvalidDef, i, err)
		}
		if err := form.append(field); err != nil {
			return nil, fmt.Errorf("%w: field %d: %w", ErrInvalidDef, i, err)
		}
	}
	return form, nil
}

func (fd FieldDef) build(baseDir string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(fd.Type)) {
	case "", KindText:
		if fd.Path != "" {
			return Field{}, fmt.Errorf("text field %q must not set path", fd.Name)
		}
		return Text(fd.Name, fd.Value), nil
	case KindFile:
		return fd.buildFile(baseDir)
	default:
		return Field{}, fmt.Errorf("unknown field type %q", fd.Type)
	}
}

func (fd FieldDef) buildFile(baseDir string) (Field, error) {
	if fd.Path == "" {
		return FileField(fd.Name, fd.Filename, fd.ContentType, nil), nil
	}

	p := fd.Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(baseDir, p)
	}
	content, err := os.ReadFile(p)
	if err != nil {
		return Field{}, err
	}

	filename := fd.Filename
	if filename == "" {
		filename = filepath.Base(p)
	}
	contentType := fd.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	return FileField(fd.Name, filename, contentType, content), nil
}

// LoadFile reads path into a file field named name. Relative paths are
// resolved against the working directory.
func LoadFile(name, path string) (Field, error) {
	f, err := FieldDef{Name: name, Type: KindFile, Path: path}.buildFile("")
	if err != nil {
		return Field{}, fmt.Errorf("%w: %w", ErrInvalidDef, err)
	}
	return f, nil
}

// ParseAssignment splits a "name=value" flag argument.
func ParseAssignment(arg string) (name, value string, err error) {
	name, value, ok := strings.Cut(arg, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return "", "", fmt.Errorf("%w: expected name=value, got %q", ErrInvalidDef, arg)
	}
	return name, value, nil
}
