package dataset

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// DetectEncoding runs a statistical charset detector over a byte prefix and
// returns a normalized encoding name with a 0-100 confidence. An undetectable
// prefix defaults to utf-8 with zero confidence.
func DetectEncoding(prefix []byte) (string, int) {
	if len(prefix) == 0 {
		return "utf-8", 0
	}

	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(prefix)
	if err != nil || result == nil || result.Charset == "" {
		return "utf-8", 0
	}

	return normalizeEncodingName(result.Charset), result.Confidence
}

// normalizeEncodingName maps detector charset labels onto the names used by
// the decode ladder.
func normalizeEncodingName(name string) string {
	switch strings.ToLower(name) {
	case "utf-8", "utf8", "ascii", "us-ascii":
		return "utf-8"
	case "utf-16le":
		return "utf-16le"
	case "utf-16be":
		return "utf-16be"
	case "windows-1252", "cp1252":
		return "windows-1252"
	case "iso-8859-1", "latin-1", "latin1":
		return "iso-8859-1"
	default:
		return strings.ToLower(name)
	}
}

// decodeLadder returns the ordered encoding names to attempt: the detected
// encoding first, then the fixed fallback list, deduplicated.
func decodeLadder(detected string) []string {
	ladder := []string{detected, "utf-8", "utf-8-sig", "utf-16", "windows-1252", "latin-1", "iso-8859-1"}

	seen := make(map[string]bool, len(ladder))
	ordered := make([]string, 0, len(ladder))
	for _, name := range ladder {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		ordered = append(ordered, name)
	}
	return ordered
}

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// decodeBytes decodes raw bytes under the named encoding. The UTF-8 and
// UTF-16 attempts are strict so that the ladder can fall through to the
// single-byte encodings; Windows-1252 and Latin-1 accept any byte.
func decodeBytes(raw []byte, name string) ([]byte, error) {
	switch name {
	case "utf-8", "utf-8-sig":
		trimmed := bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(trimmed) {
			return nil, fmt.Errorf("invalid UTF-8 byte sequence")
		}
		return trimmed, nil

	case "utf-16":
		// Without a BOM the bytes are more plausibly a single-byte encoding;
		// refuse so the ladder keeps going.
		if !bytes.HasPrefix(raw, utf16LEBOM) && !bytes.HasPrefix(raw, utf16BEBOM) {
			return nil, fmt.Errorf("no UTF-16 byte-order mark")
		}
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(raw)

	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder().Bytes(raw)

	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(raw)

	case "windows-1252":
		return charmap.Windows1252.NewDecoder().Bytes(raw)

	case "latin-1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Bytes(raw)

	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}
