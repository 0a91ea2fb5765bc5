// Package artifact describes files the pipeline acquires or accepts as input.
package artifact

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bookpipe/internal/bookerr"
)

type Format string

const (
	FormatUnknown  Format = ""
	FormatPDF      Format = "pdf"
	FormatEPUB     Format = "epub"
	FormatMarkdown Format = "markdown"
)

func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}

// Ext is the file extension, with dot, used when saving this format.
func (f Format) Ext() string {
	switch f {
	case FormatPDF:
		return ".pdf"
	case FormatEPUB:
		return ".epub"
	case FormatMarkdown:
		return ".md"
	}
	return ""
}

// Artifact is a file on local disk with a known format.
type Artifact struct {
	LocalPath string    `json:"local_path"`
	Format    Format    `json:"format"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// FormatFromName infers the format from a file name's extension.
func FormatFromName(name string) Format {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".pdf":
		return FormatPDF
	case ".epub":
		return FormatEPUB
	case ".md", ".markdown":
		return FormatMarkdown
	}
	return FormatUnknown
}

// FormatFromHint infers a download format from an href or a visible label.
// PDF wins when both appear.
func FormatFromHint(hints ...string) Format {
	joined := strings.ToLower(strings.Join(hints, " "))
	switch {
	case strings.Contains(joined, "pdf"):
		return FormatPDF
	case strings.Contains(joined, "epub"):
		return FormatEPUB
	}
	return FormatUnknown
}

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// sniffWindow is how far into a file the PDF header may start; some
// producers prepend junk bytes.
const sniffWindow = 1024

// Sniff detects PDF and EPUB by content. Any ZIP is reported as EPUB; the
// EPUB reader rejects archives that are not.
func Sniff(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	head := make([]byte, sniffWindow)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FormatUnknown, err
	}
	head = head[:n]
	switch {
	case bytes.HasPrefix(head, zipMagic):
		return FormatEPUB, nil
	case bytes.Contains(head, pdfMagic):
		return FormatPDF, nil
	}
	return FormatUnknown, nil
}

// FromFile describes the file at path. The name decides the format when it
// can; otherwise the content does. A PDF or EPUB name whose content does not
// match fails with UnsupportedFormat, which catches HTML error pages saved
// under a book's name.
func FromFile(path string) (Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, err
	}
	if info.IsDir() {
		return Artifact{}, bookerr.NewUnsupportedFormat(path, "path is a directory", nil)
	}
	if info.Size() == 0 {
		return Artifact{}, bookerr.NewUnsupportedFormat(path, "file is empty", nil)
	}

	named := FormatFromName(path)
	if named == FormatMarkdown {
		return newArtifact(path, named, info), nil
	}
	sniffed, err := Sniff(path)
	if err != nil {
		return Artifact{}, err
	}
	switch {
	case named == FormatUnknown && sniffed == FormatUnknown:
		return Artifact{}, bookerr.NewUnsupportedFormat(path, "format is neither pdf nor epub", nil)
	case named == FormatUnknown:
		named = sniffed
	case sniffed != named:
		return Artifact{}, bookerr.NewUnsupportedFormat(path, fmt.Sprintf("file named %s does not contain %s data", named, named), nil)
	}
	return newArtifact(path, named, info), nil
}

func newArtifact(path string, format Format, info os.FileInfo) Artifact {
	return Artifact{
		LocalPath: path,
		Format:    format,
		SizeBytes: info.Size(),
		CreatedAt: info.ModTime(),
	}
}

// Stem is the file name without directory and extension.
func (a Artifact) Stem() string {
	base := filepath.Base(a.LocalPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
