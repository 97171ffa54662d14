package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sync/atomic"
)

// AddFarmPath is the ingestion endpoint.
const AddFarmPath = "/api/farm/add/"

// UploadRequest is one file submitted to the ingestion endpoint.
type UploadRequest struct {
	FileName string // base name without extension
	Format   string
	Upload   string // name of the file part, e.g. "farms.csv"
	Content  []byte

	// OnProgress, if set, is called as the request body is written.
	OnProgress func(sent, total int64)
}

// AddFarmData posts a multipart {file_name, format, file} body. Every HTTP
// status is returned as a Response; err is set only when no reply arrived.
func (c *Client) AddFarmData(ctx context.Context, in UploadRequest) (*Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("file_name", in.FileName); err != nil {
		return nil, fmt.Errorf("write file_name: %w", err)
	}
	if err := mw.WriteField("format", in.Format); err != nil {
		return nil, fmt.Errorf("write format: %w", err)
	}

	upload := in.Upload
	if upload == "" {
		upload = in.FileName + "." + in.Format
	}
	part, err := mw.CreateFormFile("file", upload)
	if err != nil {
		return nil, fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(in.Content); err != nil {
		return nil, fmt.Errorf("write file part: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	length := int64(buf.Len())
	var body io.Reader = &buf
	if in.OnProgress != nil {
		body = &progressReader{r: &buf, total: length, report: in.OnProgress}
	}

	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        AddFarmPath,
		body:        body,
		length:      length,
		contentType: mw.FormDataContentType(),
		csrf:        true,
	})
}

// progressReader reports bytes handed to the transport.
type progressReader struct {
	r      io.Reader
	total  int64
	sent   atomic.Int64
	report func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.report(p.sent.Add(int64(n)), p.total)
	}
	return n, err
}
