package form

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// quoteEscaper matches the escaping mime/multipart applies to form-data names.
var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"") //nolint:gochecknoglobals // stateless replacer

// Payload is the ordered snapshot of a form taken for one submission.
type Payload struct {
	fields []Field
}

// Snapshot reads form's current fields into a fresh Payload.
func Snapshot(f Form) Payload {
	return NewPayload(f.Fields())
}

// NewPayload copies fields into a Payload. Fields without a name are not
// submitted and are dropped.
func NewPayload(fields []Field) Payload {
	p := Payload{fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		if f.Name == "" {
			continue
		}
		p.fields = append(p.fields, clone(f))
	}
	return p
}

// Fields returns the payload fields in order.
func (p Payload) Fields() []Field {
	out := make([]Field, len(p.fields))
	copy(out, p.fields)
	return out
}

// Len returns the number of parts the payload encodes to.
func (p Payload) Len() int { return len(p.fields) }

// Counts returns the number of text and file parts.
func (p Payload) Counts() (text, files int) {
	for _, f := range p.fields {
		if f.IsFile() {
			files++
		} else {
			text++
		}
	}
	return text, files
}

// Encoded is a multipart body ready to send.
type Encoded struct {
	Body        *bytes.Reader
	ContentType string
	Size        int64
}

// Encode writes the payload as multipart/form-data in field order.
func (p Payload) Encode() (Encoded, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for i, f := range p.fields {
		if err := writePart(w, f); err != nil {
			return Encoded{}, fmt.Errorf("%w: field %d (%s): %w", ErrEncode, i, f.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return Encoded{}, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	return Encoded{
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: w.FormDataContentType(),
		Size:        int64(buf.Len()),
	}, nil
}

func writePart(w *multipart.Writer, f Field) error {
	if !f.IsFile() {
		return w.WriteField(f.Name, f.Value)
	}

	contentType := f.File.ContentType
	if contentType == "" {
		contentType = DefaultContentType
	}

	// CreateFormFile would force application/octet-stream; the part keeps the
	// file's own type instead.
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(f.Name), quoteEscaper.Replace(f.File.Filename)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, bytes.NewReader(f.File.Content))
	return err
}
