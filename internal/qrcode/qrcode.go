// Package qrcode renders links as PNG QR codes.
package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// DefaultSize is the edge length in pixels of generated codes.
const DefaultSize = 256

// PNG encodes content as a size by size pixel QR code with medium error correction.
func PNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, errors.New("qrcode: empty content")
	}
	if size <= 0 {
		size = DefaultSize
	}
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("scale qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
