package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"sort"
	"strings"

	"frontend/internal/domain"
)

// Result is the outcome of one remote call: a value or the reason it failed.
type Result[T any] struct {
	Value T
	Err   error
}

func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Reason is the failure message, or "" on success.
func (r Result[T]) Reason() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

type pageData[T any] struct {
	Data       []T `json:"data"`
	Pagination struct {
		TotalPages *int `json:"totalPages"`
		PageNumber int  `json:"pageNumber"`
		PageSize   int  `json:"pageSize"`
	} `json:"pagination"`
}

// FetchPage issues GET <resource>?pageNumber=<n>&pageSize=<m>[&filters].
// A missing items array decodes as an empty page; a missing totalPages as 0.
func FetchPage[T any](ctx context.Context, c *Client, token, resource string, q domain.PageQuery) Result[domain.Page[T]] {
	values := q.Values()
	data, err := c.do(ctx, request{method: http.MethodGet, resource: resource, query: values, token: token})
	if err != nil {
		return Fail[domain.Page[T]](err)
	}

	page := domain.Page[T]{
		PageNumber: q.PageNumber,
		PageSize:   q.PageSize,
	}
	if page.PageNumber < 1 {
		page.PageNumber = 1
	}
	if page.PageSize < 1 {
		page.PageSize = domain.DefaultPageSize
	}
	if len(data) == 0 || string(data) == "null" {
		page.Items = []T{}
		return Ok(page)
	}

	var pd pageData[T]
	if err := json.Unmarshal(data, &pd); err != nil {
		return Fail[domain.Page[T]](domain.RemoteError{Msg: "malformed page", Err: err})
	}
	page.Items = pd.Data
	if page.Items == nil {
		page.Items = []T{}
	}
	if pd.Pagination.TotalPages != nil {
		page.TotalPages = *pd.Pagination.TotalPages
	}
	return Ok(page)
}

// Get issues GET <resource>/<id> and decodes data into T.
func Get[T any](ctx context.Context, c *Client, token, resource, id string) Result[T] {
	path := strings.TrimRight(resource, "/") + "/" + id
	data, err := c.do(ctx, request{method: http.MethodGet, resource: path, token: token})
	if err != nil {
		return Fail[T](err)
	}
	return decode[T](data, true)
}

// PostJSON issues POST <resource> with a JSON body.
func PostJSON[T any](ctx context.Context, c *Client, token, resource string, payload any) Result[T] {
	body, err := json.Marshal(payload)
	if err != nil {
		return Fail[T](domain.InternalError{Msg: "encode payload", Err: err})
	}
	data, err := c.do(ctx, request{
		method:      http.MethodPost,
		resource:    resource,
		body:        body,
		contentType: "application/json",
		token:       token,
	})
	if err != nil {
		return Fail[T](err)
	}
	return decode[T](data, false)
}

// FilePart is one binary part of a multipart upload.
type FilePart struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// PostMultipart issues POST <resource> with text fields as plain parts and
// files as binary parts.
func PostMultipart[T any](ctx context.Context, c *Client, token, resource string, fields map[string]string, files []FilePart) Result[T] {
	body, contentType, err := encodeMultipart(fields, files)
	if err != nil {
		return Fail[T](domain.InternalError{Msg: "encode multipart", Err: err})
	}
	data, err := c.do(ctx, request{
		method:      http.MethodPost,
		resource:    resource,
		body:        body,
		contentType: contentType,
		token:       token,
	})
	if err != nil {
		return Fail[T](err)
	}
	return decode[T](data, false)
}

// PutAction issues PUT <resource>/<action>/<id>.
func PutAction(ctx context.Context, c *Client, token, resource string, action domain.Action, id string) Result[struct{}] {
	path := fmt.Sprintf("%s/%s/%s", strings.TrimRight(resource, "/"), action, id)
	if _, err := c.do(ctx, request{method: http.MethodPut, resource: path, token: token}); err != nil {
		return Fail[struct{}](err)
	}
	return Ok(struct{}{})
}

func decode[T any](data json.RawMessage, required bool) Result[T] {
	var out T
	if len(data) == 0 || string(data) == "null" {
		if required {
			return Fail[T](domain.NotFoundError{Resource: "record"})
		}
		return Ok(out)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return Fail[T](domain.RemoteError{Msg: "malformed response", Err: err})
	}
	return Ok(out)
}

func encodeMultipart(fields map[string]string, files []FilePart) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", err
		}
	}

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.Field, f.Filename))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
