// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"image"
	"image/draw"

	"github.com/devblok/texel/gfx"
)

// pixelsRGBA redraws a decoded image onto an RGBA canvas anchored at
// the origin, producing pixel data in a known layout regardless of the
// source image type.
func pixelsRGBA(img image.Image) ([]byte, ImageSpec) {
	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)
	return canvas.Pix, ImageSpec{
		Width:    uint32(bounds.Dx()),
		Height:   uint32(bounds.Dy()),
		Format:   gfx.FormatR8G8B8A8Unorm,
		RowPitch: uint32(canvas.Stride),
	}
}
