package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/muhammadolammi/jobmatchclient/internal/resume"
)

// newPutClient returns a client for presigned URLs. It carries no API
// headers, since the signature covers the request as issued.
func newPutClient() *resty.Client {
	return resty.New().SetPreRequestHook(func(_ *resty.Client, r *http.Request) error {
		// object stores reject chunked PUTs, so the length set below has to
		// reach the wire
		if n, err := strconv.ParseInt(r.Header.Get("Content-Length"), 10, 64); err == nil {
			r.ContentLength = n
			r.Header.Del("Content-Length")
		}
		return nil
	})
}

func (u *Uploader) putObject(ctx context.Context, url string, f *resume.File) error {
	body := &progressReader{
		r:     bytes.NewReader(f.Data),
		total: f.Size(),
		fn:    func(p int) { u.progress(f.Name, p) },
	}
	u.progress(f.Name, 0)

	resp, err := u.put.R().
		SetContext(ctx).
		SetHeader("Content-Type", f.Mime).
		SetHeader("Content-Length", strconv.FormatInt(f.Size(), 10)).
		SetBody(body).
		Put(url)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("upload failed: %d", resp.StatusCode())
	}
	return nil
}

// progressReader reports whole percentages as the body is consumed.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	last  int
	fn    func(percent int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		if percent := int(p.read * 100 / p.total); percent != p.last {
			p.last = percent
			p.fn(percent)
		}
	}
	return n, err
}
