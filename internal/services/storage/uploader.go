package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/phambaophuc/image-alt/internal/models"
)

// Uploader posts files to presigned upload targets.
type Uploader struct {
	httpClient *http.Client
}

func NewUploader(httpClient *http.Client) *Uploader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Uploader{httpClient: httpClient}
}

// Upload sends the target's fields, the Content-Type and the file as a
// multipart form to target.PostURL. progress receives cumulative request
// bytes written.
func (u *Uploader) Upload(
	ctx context.Context,
	target *models.UploadTarget,
	name, contentType string,
	data []byte,
	progress func(loaded, total int64),
) error {
	body, formType, err := buildUploadForm(target.Fields, name, contentType, data)
	if err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}

	total := int64(body.Len())
	reader := &progressReader{r: body, total: total, onProgress: progress}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.PostURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", formType)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload to storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", ErrUploadRejected, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return nil
}

// buildUploadForm writes fields in key order, then Content-Type, then the
// file. Storage providers ignore any field after the file. A Content-Type
// carried in fields is a policy condition, not the file's type, and is
// replaced by contentType.
func buildUploadForm(fields map[string]string, name, contentType string, data []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if strings.EqualFold(k, "Content-Type") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := writer.WriteField(k, fields[k]); err != nil {
			return nil, "", err
		}
	}
	if err := writer.WriteField("Content-Type", contentType); err != nil {
		return nil, "", err
	}

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return body, writer.FormDataContentType(), nil
}

type progressReader struct {
	r          io.Reader
	loaded     int64
	total      int64
	onProgress func(loaded, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.loaded += int64(n)
		if p.onProgress != nil {
			p.onProgress(p.loaded, p.total)
		}
	}
	return n, err
}
