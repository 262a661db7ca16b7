package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
)

// iconBytes is the tray icon, rendered once at startup: a filled square with
// a cut notch, roughly a film-clip mark. Generated rather than embedded so
// the repo carries no binary assets.
var iconBytes = renderIcon()

func renderIcon() []byte {
	const size = 16
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	fg := color.RGBA{R: 0xE6, G: 0x3E, B: 0x3E, A: 0xFF}
	for y := 2; y < size-2; y++ {
		for x := 2; x < size-2; x++ {
			// Notch in the upper-right corner.
			if x > size-6 && y < 6 && (x-(size-6)) > (y-1) {
				continue
			}
			img.Set(x, y, fg)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil
	}
	return buf.Bytes()
}
