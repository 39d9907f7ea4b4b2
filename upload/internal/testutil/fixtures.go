// Package testutil provides fixture generation for upload tests.
package testutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"
)

// PNG returns real encoded PNG bytes of the given dimensions. The pixel
// fill varies with the dimensions so distinct fixtures have distinct bytes.
func PNG(width, height int) []byte {
	fill := color.NRGBA{
		R: uint8(37 * width % 251),
		G: uint8(59 * height % 251),
		B: uint8((width + height) % 251),
		A: 255,
	}
	img := imaging.New(width, height, fill)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		panic(fmt.Sprintf("testutil: encoding fixture png: %v", err))
	}
	return buf.Bytes()
}

// DataURL wraps raw bytes in a base64 data URL with the given media type.
// An empty mediaType produces a prefix with no declared type, the form a
// decoder must fill in by sniffing the payload.
func DataURL(mediaType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))
}

// PNGDataURL returns a data URL carrying a real PNG of the given dimensions.
func PNGDataURL(width, height int) string {
	return DataURL("image/png", PNG(width, height))
}
