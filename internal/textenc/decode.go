// Package textenc decodes uploaded text files (bank CSV exports, saved
// emails) into UTF-8 before they are handed to the extraction model.
package textenc

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// sniffLen bounds how much input the charset heuristic looks at.
const sniffLen = 4096

// ToUTF8 returns data as a UTF-8 string.
//
// Detection order:
//  1. BOM (UTF-8 BOM is stripped; UTF-16 LE/BE is decoded)
//  2. Valid UTF-8 is returned as-is
//  3. Heuristic detection via chardet
//  4. Fallback to Windows-1252
func ToUTF8(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return string(data[len(bomUTF8):]), nil
	case bytes.HasPrefix(data, bomUTF16LE):
		return decode(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), data)
	case bytes.HasPrefix(data, bomUTF16BE):
		return decode(unicode.UTF16(unicode.BigEndian, unicode.UseBOM), data)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	sample := data
	if len(sample) > sniffLen {
		sample = sample[:sniffLen]
	}

	if result, err := chardet.NewTextDetector().DetectBest(sample); err == nil {
		switch result.Charset {
		case "ISO-8859-1", "windows-1252":
			return decode(charmap.Windows1252, data)
		case "ISO-8859-9":
			return decode(charmap.ISO8859_9, data)
		case "ISO-8859-15":
			return decode(charmap.ISO8859_15, data)
		}
	}

	return decode(charmap.Windows1252, data)
}

func decode(enc encoding.Encoding, data []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("textenc: decode: %w", err)
	}
	return string(out), nil
}
