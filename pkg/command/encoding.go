package command

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// DefaultEncoding accepts any byte sequence, so raw output always
// decodes.
const DefaultEncoding = "ISO-8859-1"

// DecodeBytes decodes raw captured output using the named IANA
// character set. An empty name selects the default 8-bit encoding.
func DecodeBytes(name string, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	switch strings.ToLower(name) {
	case "", "latin1", "iso-8859-1", "binary":
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("failed to decode output: %w", err)
		}
		return string(decoded), nil
	case "utf-8", "utf8":
		return string(raw), nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return "", fmt.Errorf("unsupported encoding: %s", name)
	}
	decoded, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode output as %s: %w", name, err)
	}
	return string(decoded), nil
}

// EncodeString converts text to raw bytes in the named character set;
// the inverse of DecodeBytes, used when writing remote file content.
func EncodeString(name, text string) ([]byte, error) {
	if text == "" {
		return nil, nil
	}

	switch strings.ToLower(name) {
	case "", "latin1", "iso-8859-1", "binary":
		encoded, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("failed to encode content: %w", err)
		}
		return encoded, nil
	case "utf-8", "utf8":
		return []byte(text), nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported encoding: %s", name)
	}
	encoded, err := enc.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to encode content as %s: %w", name, err)
	}
	return encoded, nil
}
