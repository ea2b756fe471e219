package extraction

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/dvloznov/finance-ingest/internal/textenc"
)

// DefaultMaxChars bounds text content sent to the model.
const DefaultMaxChars = 50000

// ErrEmptyContent is returned for a zero-byte PDF or image.
var ErrEmptyContent = errors.New("file is empty")

// Content is the model input for one file. Binary formats travel as Data and
// are base64-encoded by the transport; text formats travel as Text.
type Content struct {
	Text     string
	Data     []byte
	MIMEType string
}

// Binary reports whether the content is sent as an inline blob.
func (c Content) Binary() bool {
	return c.MIMEType == "application/pdf" || strings.HasPrefix(c.MIMEType, "image/")
}

// NewContent applies the input policy for a file type: PDFs and images are
// passed as inline blobs, everything else is decoded to UTF-8 text and
// truncated to maxChars characters. A maxChars of zero uses DefaultMaxChars.
func NewContent(ft domain.FileType, data []byte, maxChars int) (Content, error) {
	if (ft == domain.FileTypePDF || ft == domain.FileTypeImage) && len(data) == 0 {
		return Content{}, fmt.Errorf("NewContent: %s: %w", ft, ErrEmptyContent)
	}
	switch ft {
	case domain.FileTypePDF:
		return Content{Data: data, MIMEType: "application/pdf"}, nil
	case domain.FileTypeImage:
		return Content{Data: data, MIMEType: imageMIME(data)}, nil
	}

	text, err := textenc.ToUTF8(data)
	if err != nil {
		return Content{}, fmt.Errorf("NewContent: decode %s: %w", ft, err)
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return Content{Text: Truncate(text, maxChars), MIMEType: "text/plain"}, nil
}

// Truncate returns at most n characters of s. It never fails.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func imageMIME(data []byte) string {
	mime := http.DetectContentType(data)
	switch mime {
	case "image/jpeg", "image/png", "image/gif", "image/webp", "image/bmp":
		return mime
	}
	return "image/jpeg"
}
