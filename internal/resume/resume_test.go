package resume

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectMime(t *testing.T) {
	cases := map[string]string{
		"cv.pdf":          MimePDF,
		"CV.PDF":          MimePDF,
		"resume.docx":     MimeDOCX,
		"notes.final.txt": MimeText,
	}
	for name, want := range cases {
		got, err := DetectMime(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	for _, name := range []string{"cv.doc", "photo.png", "README"} {
		_, err := DetectMime(name)
		assert.ErrorIs(t, err, ErrUnsupported, name)
	}
}

func TestLoadRejectsOversizedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.txt")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("a"), 2048), 0o600))

	_, err := Load(path, 1024)
	assert.ErrorIs(t, err, ErrTooLarge)

	f, err := Load(path, DefaultMaxSize)
	require.NoError(t, err)
	assert.Equal(t, "big.txt", f.Name)
	assert.Equal(t, MimeText, f.Mime)
	assert.Equal(t, int64(2048), f.Size())
}

func TestValidate(t *testing.T) {
	good, err := FromBytes("cv.txt", []byte("Go developer, 5 years"))
	require.NoError(t, err)
	assert.NoError(t, good.Validate(DefaultMaxSize))

	empty := &File{Name: "cv.txt", Mime: MimeText}
	assert.ErrorIs(t, empty.Validate(DefaultMaxSize), ErrEmpty)

	blank := &File{Name: "cv.txt", Mime: MimeText, Data: []byte("  \n\t")}
	assert.ErrorIs(t, blank.Validate(DefaultMaxSize), ErrUnreadable)

	corrupt := &File{Name: "cv.pdf", Mime: MimePDF, Data: []byte("not a pdf")}
	assert.Error(t, corrupt.Validate(DefaultMaxSize))

	big := &File{Name: "cv.txt", Mime: MimeText, Data: []byte("0123456789")}
	assert.ErrorIs(t, big.Validate(5), ErrTooLarge)
}

func TestExtractDocxText(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"word/document.xml": `<w:document><w:body>` +
			`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
			`<w:p><w:r><w:t>Go &amp; Kubernetes</w:t></w:r></w:p>` +
			`</w:body></w:document>`,
		"word/_rels/document.xml.rels": `<Relationships></Relationships>`,
	}
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	text, err := ExtractText(MimeDOCX, buf.Bytes())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(text), "\n")
	assert.Equal(t, []string{"Jane Doe", "Go & Kubernetes"}, lines)
}

func TestExtractUnsupported(t *testing.T) {
	_, err := ExtractText("image/png", []byte{0x89})
	assert.ErrorIs(t, err, ErrUnsupported)
}
