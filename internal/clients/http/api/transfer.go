package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File is a file part of a multipart upload.
type File struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// Fields is an upload payload built from a mapping. Slice values are appended
// as repeated parts under the same field name.
type Fields map[string]any

// MultipartBody is a pre-built multipart payload.
type MultipartBody struct {
	ContentType string
	Body        io.Reader
}

// Upload posts a multipart payload. payload is either a *MultipartBody or
// Fields; the response is decoded into out when out is non-nil.
func (c *Client) Upload(ctx context.Context, path string, payload any, out any) error {
	var body *MultipartBody
	switch p := payload.(type) {
	case *MultipartBody:
		body = p
	case MultipartBody:
		body = &p
	case Fields:
		built, err := buildMultipart(p)
		if err != nil {
			return fmt.Errorf("build upload for %s: %w", path, err)
		}
		body = built
	case map[string]any:
		built, err := buildMultipart(Fields(p))
		if err != nil {
			return fmt.Errorf("build upload for %s: %w", path, err)
		}
		body = built
	default:
		return fmt.Errorf("unsupported upload payload %T", payload)
	}
	if body == nil || body.Body == nil {
		return fmt.Errorf("upload to %s: empty multipart body", path)
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, body.Body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", body.ContentType)
	req.Header.Set("Accept", "application/json")
	raw, err := c.send(req)
	if err != nil {
		return err
	}
	return decode(http.MethodPost, path, raw, out)
}

func buildMultipart(fields Fields) (*MultipartBody, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := appendPart(writer, key, fields[key]); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return &MultipartBody{ContentType: writer.FormDataContentType(), Body: &buf}, nil
}

func appendPart(writer *multipart.Writer, key string, value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case File:
		return appendFile(writer, key, v)
	case *File:
		if v == nil {
			return nil
		}
		return appendFile(writer, key, *v)
	case []File:
		for _, f := range v {
			if err := appendFile(writer, key, f); err != nil {
				return err
			}
		}
		return nil
	case []string:
		for _, s := range v {
			if err := writer.WriteField(key, s); err != nil {
				return err
			}
		}
		return nil
	case []any:
		for _, item := range v {
			if err := appendPart(writer, key, item); err != nil {
				return err
			}
		}
		return nil
	case string:
		return writer.WriteField(key, v)
	default:
		rv, isNil := deref(v)
		if isNil {
			return nil
		}
		return writer.WriteField(key, formatValue(rv))
	}
}

func appendFile(writer *multipart.Writer, key string, f File) error {
	if f.Reader == nil {
		return fmt.Errorf("file part %q has no reader", key)
	}
	name := f.Name
	if name == "" {
		name = key
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, key, filepath.Base(name)))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f.Reader)
	return err
}

// Saver persists a downloaded payload under a file name.
type Saver interface {
	Save(ctx context.Context, filename string, data []byte) error
}

// DirSaver writes downloads into Dir, keeping only the base name of the file.
type DirSaver struct {
	Dir string
}

// Save writes data to Dir/filename.
func (s DirSaver) Save(_ context.Context, filename string, data []byte) error {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("invalid download file name %q", filename)
	}
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

// Download fetches a binary payload. When filename is set the payload is also
// handed to the configured Saver; the bytes are returned either way.
func (c *Client) Download(ctx context.Context, path string, query map[string]any, filename string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "*/*")
	data, err := c.send(req)
	if err != nil {
		return nil, err
	}
	if filename != "" {
		saver := c.saver
		if saver == nil {
			saver = DirSaver{}
		}
		if err := saver.Save(ctx, filename, data); err != nil {
			return data, fmt.Errorf("save download %s: %w", filename, err)
		}
	}
	return data, nil
}
