// Package form models the named fields a host form exposes at submission time.
package form

import (
	"fmt"
	"strings"
	"sync"
)

// DefaultContentType is sent for file parts whose type is unknown.
const DefaultContentType = "application/octet-stream"

// File is the content of a file input.
type File struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Field is one named control value. File is non-nil for file inputs.
type Field struct {
	Name  string
	Value string
	File  *File
}

// IsFile reports whether the field carries file content.
func (f Field) IsFile() bool { return f.File != nil }

// Text builds a text field.
func Text(name, value string) Field {
	return Field{Name: name, Value: value}
}

// FileField builds a file field. An empty contentType falls back to
// DefaultContentType when encoded.
func FileField(name, filename, contentType string, content []byte) Field {
	return Field{Name: name, File: &File{Filename: filename, ContentType: contentType, Content: content}}
}

// Form is the host-owned source of field values. Fields returns the current
// values in form order and must be safe to call from any goroutine.
type Form interface {
	Fields() []Field
}

// StaticForm is an in-memory, order-preserving Form.
type StaticForm struct {
	mu     sync.RWMutex
	fields []Field
}

// NewStatic returns a StaticForm holding fields in order.
func NewStatic(fields ...Field) *StaticForm {
	s := &StaticForm{fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		s.fields = append(s.fields, clone(f))
	}
	return s
}

// Fields returns a copy of the current fields.
func (s *StaticForm) Fields() []Field {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Field, len(s.fields))
	for i, f := range s.fields {
		out[i] = clone(f)
	}
	return out
}

// Len returns the number of fields.
func (s *StaticForm) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fields)
}

// Add appends a text field.
func (s *StaticForm) Add(name, value string) error {
	return s.append(Text(name, value))
}

// AddFile appends a file field.
func (s *StaticForm) AddFile(name string, file File) error {
	return s.append(Field{Name: name, File: &file})
}

func (s *StaticForm) append(f Field) error {
	if strings.TrimSpace(f.Name) == "" {
		return ErrEmptyFieldName
	}
	s.mu.Lock()
	s.fields = append(s.fields, clone(f))
	s.mu.Unlock()
	return nil
}

// Set replaces the first field called name with a text value and drops any
// later fields of the same name. A missing name is appended.
func (s *StaticForm) Set(name, value string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyFieldName
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.fields[:0]
	replaced := false
	for _, f := range s.fields {
		if f.Name != name {
			kept = append(kept, f)
			continue
		}
		if !replaced {
			kept = append(kept, Text(name, value))
			replaced = true
		}
	}
	if !replaced {
		kept = append(kept, Text(name, value))
	}
	s.fields = kept
	return nil
}

// Remove deletes every field called name.
func (s *StaticForm) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.fields[:0]
	for _, f := range s.fields {
		if f.Name != name {
			kept = append(kept, f)
		}
	}
	if len(kept) == len(s.fields) {
		return fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	s.fields = kept
	return nil
}

func clone(f Field) Field {
	if f.File == nil {
		return f
	}
	file := *f.File
	if f.File.Content != nil {
		file.Content = append([]byte(nil), f.File.Content...)
	}
	f.File = &file
	return f
}
