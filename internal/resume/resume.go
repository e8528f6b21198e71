package resume

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"

	DefaultMaxSize int64 = 10 << 20
)

var (
	ErrUnsupported = errors.New("unsupported file type, use .pdf, .docx or .txt")
	ErrTooLarge    = errors.New("file is larger than the upload limit")
	ErrEmpty       = errors.New("file is empty")
	ErrUnreadable  = errors.New("no text could be extracted from file")
)

var mimeByExt = map[string]string{
	".pdf":  MimePDF,
	".docx": MimeDOCX,
	".txt":  MimeText,
}

// File is a resume held in memory ready for upload.
type File struct {
	Name string
	Mime string
	Data []byte
}

func (f *File) Size() int64 {
	return int64(len(f.Data))
}

func DetectMime(name string) (string, error) {
	mime, ok := mimeByExt[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrUnsupported)
	}
	return mime, nil
}

// Load reads path after checking its extension and size, so oversized
// files are rejected without being read.
func Load(path string, maxSize int64) (*File, error) {
	name := filepath.Base(path)
	mime, err := DetectMime(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("%s (%s): %w", name, humanSize(info.Size()), ErrTooLarge)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return &File{Name: name, Mime: mime, Data: data}, nil
}

func FromBytes(name string, data []byte) (*File, error) {
	mime, err := DetectMime(name)
	if err != nil {
		return nil, err
	}
	return &File{Name: name, Mime: mime, Data: data}, nil
}

// Validate checks size limits and that text can actually be extracted,
// which catches corrupt or scanned documents before they are uploaded.
func (f *File) Validate(maxSize int64) error {
	if f.Size() == 0 {
		return fmt.Errorf("%s: %w", f.Name, ErrEmpty)
	}
	if maxSize > 0 && f.Size() > maxSize {
		return fmt.Errorf("%s (%s): %w", f.Name, humanSize(f.Size()), ErrTooLarge)
	}
	text, err := f.Text()
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("%s: %w", f.Name, ErrUnreadable)
	}
	return nil
}

func (f *File) Text() (string, error) {
	text, err := ExtractText(f.Mime, f.Data)
	if err != nil {
		return "", fmt.Errorf("%s: %w", f.Name, err)
	}
	return text, nil
}

func ExtractText(mime string, data []byte) (string, error) {
	switch mime {
	case MimeText:
		return string(data), nil
	case MimePDF:
		return extractPDFText(bytes.NewReader(data))
	case MimeDOCX:
		return extractDocxText(bytes.NewReader(data))
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, mime)
	}
}

func extractPDFText(r *bytes.Reader) (text string, err error) {
	// the pdf reader panics on some malformed xref tables
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to read pdf: %v", rec)
		}
	}()

	pdfReader, err := pdf.NewReader(r, r.Size())
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	var sb strings.Builder
	for i := 1; i <= pdfReader.NumPage(); i++ {
		page := pdfReader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, _ := page.GetPlainText(nil)
		sb.WriteString(pageText)
	}
	return sb.String(), nil
}

func extractDocxText(r *bytes.Reader) (string, error) {
	doc, err := docx.ReadDocxFromMemory(r, r.Size())
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return stripTags(doc.Editable().GetContent()), nil
}

// stripTags drops the WordprocessingML markup GetContent returns, keeping
// paragraph breaks.
func stripTags(xml string) string {
	xml = strings.ReplaceAll(xml, "</w:p>", "\n")
	var sb strings.Builder
	inTag := false
	for _, r := range xml {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return html.UnescapeString(sb.String())
}

func humanSize(n int64) string {
	const mb = 1 << 20
	if n >= mb {
		return fmt.Sprintf("%.1f MB", float64(n)/mb)
	}
	return fmt.Sprintf("%d KB", n/1024)
}
