// Package qr renders pairing challenges as QR code images for display in
// observer UIs.
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// imageSize is the rendered PNG edge length in pixels.
const imageSize = 256

// DataURL encodes a pairing challenge as a PNG QR code and returns it as a
// data URL, ready to embed in a browser or terminal image renderer.
func DataURL(challenge string) (string, error) {
	png, err := qrcode.Encode(challenge, qrcode.Medium, imageSize)
	if err != nil {
		return "", fmt.Errorf("failed to render challenge: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
