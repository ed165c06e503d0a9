package forms

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"frontend/internal/domain"

	"github.com/gabriel-vasile/mimetype"
)

// Attachment is a user-selected file held by a form field until submission.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data,omitempty"`

	preview string
}

// Size is the attachment length in bytes.
func (a *Attachment) Size() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// Preview returns a data URL for display. It is derived lazily and dropped
// together with the data on Release.
func (a *Attachment) Preview() string {
	if a == nil || len(a.Data) == 0 || !strings.HasPrefix(a.ContentType, "image/") {
		return ""
	}
	if a.preview == "" {
		a.preview = "data:" + a.ContentType + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
	}
	return a.preview
}

// Release drops the file contents and its preview.
func (a *Attachment) Release() {
	if a == nil {
		return
	}
	for i := range a.Data {
		a.Data[i] = 0
	}
	a.Data = nil
	a.preview = ""
}

func newAttachment(filename string, data []byte, maxBytes int64) (*Attachment, error) {
	if len(data) == 0 {
		return nil, domain.ValidationError{Field: "file", Msg: "file is empty"}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, domain.ValidationError{Field: "file", Msg: fmt.Sprintf("file exceeds %d bytes", maxBytes)}
	}
	name := strings.TrimSpace(filename)
	if name == "" {
		name = "upload"
	}
	mt := mimetype.Detect(data)
	if !strings.Contains(name, ".") {
		name += mt.Extension()
	}
	return &Attachment{
		Filename:    name,
		ContentType: mt.String(),
		Data:        data,
	}, nil
}

// AttachmentFromFileHeader reads a file chosen through the file picker.
func AttachmentFromFileHeader(fh *multipart.FileHeader, maxBytes int64) (*Attachment, error) {
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, domain.ValidationError{Field: "file", Msg: fmt.Sprintf("file exceeds %d bytes", maxBytes)}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, domain.InternalError{Msg: "open upload", Err: err}
	}
	defer f.Close()

	var r io.Reader = f
	if maxBytes > 0 {
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, domain.InternalError{Msg: "read upload", Err: err}
	}
	return newAttachment(fh.Filename, data, maxBytes)
}

// AttachmentFromDataURL decodes a file dropped onto the page and sent as a
// "data:<type>;base64,<payload>" URL.
func AttachmentFromDataURL(filename, dataURL string, maxBytes int64) (*Attachment, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(dataURL), "data:")
	if !ok {
		return nil, domain.ValidationError{Field: "file", Msg: "not a data URL"}
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, domain.ValidationError{Field: "file", Msg: "data URL must be base64 encoded"}
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, domain.ValidationError{Field: "file", Msg: "data URL payload is not valid base64"}
	}
	return newAttachment(filename, data, maxBytes)
}
