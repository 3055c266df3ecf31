package restclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// File is one part of a multipart upload.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Content     io.Reader
}

// Multipart is the body of an image/avatar upload: named file parts plus
// plain fields such as setCover.
type Multipart struct {
	Fields map[string]string
	Files  []File
}

// Upload posts multipart/form-data to path/subpath using the upload timeout
// unless the caller overrides it.
func (c *Client) Upload(ctx context.Context, method, subpath string, form Multipart, opts ...Option) (res *Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure(KindInternal, 0, fmt.Sprintf("recovered: %v", r))
			c.logFailure(method, subpath, res)
		}
	}()

	if method == "" {
		method = http.MethodPost
	}
	if len(form.Files) == 0 {
		return failure(KindInternal, 0, "no files to upload")
	}

	body, contentType, err := encodeMultipart(form)
	if err != nil {
		res := failure(KindInternal, 0, err.Error())
		c.logFailure(method, subpath, res)
		return res
	}

	o := c.options(c.factory.cfg.UploadTimeout, opts)
	return c.send(ctx, method, subpath, body, contentType, o)
}

func encodeMultipart(form Multipart) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	for key, value := range form.Fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}

	for _, file := range form.Files {
		if file.Content == nil {
			return nil, "", fmt.Errorf("file %q for field %s has no content", file.Filename, file.Field)
		}

		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(file.Field), escapeQuotes(file.Filename)))
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create part %s: %w", file.Field, err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", fmt.Errorf("failed to copy %s: %w", file.Filename, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return buf, writer.FormDataContentType(), nil
}

func escapeQuotes(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '"' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
