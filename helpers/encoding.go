package helpers

import (
	"bytes"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"
)

// DecodeToUTF8 converts a raw request body to UTF-8, sniffing the encoding
// from the Content-Type header and the body content. Bodies that are
// already UTF-8 are returned unchanged.
func DecodeToUTF8(body []byte, contentType string) ([]byte, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)

	if name == "utf-8" || name == "UTF-8" {
		return body, nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, fmt.Errorf("failed to convert body to UTF-8: %w", err)
	}

	return buf.Bytes(), nil
}
