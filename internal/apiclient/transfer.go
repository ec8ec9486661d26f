package apiclient

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sync/atomic"
)

// ProgressFunc receives bytes transferred so far and the total (-1 when unknown)
type ProgressFunc func(transferred, total int64)

// UploadFile is one multipart file part
type UploadFile struct {
	FieldName string
	FileName  string
	Reader    io.Reader
	Size      int64 // -1 or 0 when unknown
}

// progressReader counts bytes read through it
type progressReader struct {
	r        io.Reader
	total    int64
	n        atomic.Int64
	progress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		done := p.n.Add(int64(n))
		if p.progress != nil {
			p.progress(done, p.total)
		}
	}
	return n, err
}

// progressWriter counts bytes written through it
type progressWriter struct {
	w        io.Writer
	total    int64
	n        int64
	progress ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.n += int64(n)
	if p.progress != nil && n > 0 {
		p.progress(p.n, p.total)
	}
	return n, err
}

func knownSize(size int64) int64 {
	if size <= 0 {
		return -1
	}
	return size
}

// transferClient drops the overall timeout; transfers are bounded by ctx
func (c *Client) transferClient() *http.Client {
	hc := *c.http
	hc.Timeout = 0
	return &hc
}

func (c *Client) currentToken() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.AccessToken()
}

// Upload posts a multipart form with one file part and extra fields.
// The body is streamed, so the file is never held in memory.
func (c *Client) Upload(ctx context.Context, path string, file UploadFile, fields map[string]string, progress ProgressFunc, out any) error {
	if file.Reader == nil {
		return fmt.Errorf("upload %s: no file reader", path)
	}
	if file.FieldName == "" {
		file.FieldName = "file"
	}
	if err := c.wait(ctx); err != nil {
		return err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	src := &progressReader{r: file.Reader, total: knownSize(file.Size), progress: progress}

	go func() {
		err := func() error {
			for key, value := range fields {
				if err := mw.WriteField(key, value); err != nil {
					return err
				}
			}
			part, err := mw.CreateFormFile(file.FieldName, file.FileName)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, src); err != nil {
				return err
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	httpReq, err := c.newRequest(ctx, http.MethodPost, path, nil, pr, c.currentToken())
	if err != nil {
		pr.CloseWithError(err)
		return err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	return c.sendTransfer(ctx, httpReq, out)
}

// UploadStream sends r as the raw request body
func (c *Client) UploadStream(ctx context.Context, method, path, contentType string, r io.Reader, size int64, progress ProgressFunc, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	if method == "" {
		method = http.MethodPut
	}

	src := &progressReader{r: r, total: knownSize(size), progress: progress}
	httpReq, err := c.newRequest(ctx, method, path, nil, src, c.currentToken())
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	httpReq.Header.Set("Content-Type", contentType)
	if size > 0 {
		httpReq.ContentLength = size
	}

	return c.sendTransfer(ctx, httpReq, out)
}

func (c *Client) sendTransfer(ctx context.Context, httpReq *http.Request, out any) error {
	resp, err := c.transferClient().Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &TransportError{Method: httpReq.Method, URL: httpReq.URL.String(), Err: err}
	}
	defer resp.Body.Close()
	return c.decodeResponse(resp, false, out)
}

// Download streams the response body of path into w and returns the byte count
func (c *Client) Download(ctx context.Context, path string, query url.Values, w io.Writer, progress ProgressFunc) (int64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}

	httpReq, err := c.newRequest(ctx, http.MethodGet, path, query, nil, c.currentToken())
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Accept", "*/*")

	resp, err := c.transferClient().Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, &TransportError{Method: httpReq.Method, URL: httpReq.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if !isSuccessStatus(resp.StatusCode) {
		return 0, errorFromResponse(resp)
	}

	dst := &progressWriter{w: w, total: knownSize(resp.ContentLength), progress: progress}
	n, err := io.Copy(dst, resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return n, ctxErr
		}
		return n, &TransportError{Method: httpReq.Method, URL: httpReq.URL.String(), StatusCode: resp.StatusCode, Err: err}
	}
	return n, nil
}
