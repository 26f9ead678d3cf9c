// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package ktex

import "github.com/devblok/texel/gfx"

// Convert rewrites the buffer's pixels into the target format on the
// CPU. It is the fallback for payloads the device cannot ingest
// directly. Only the universal 8-bit-per-channel BGRA layout is a
// valid target; sources may be R8, RGB8, RGBA8 or BGRA8.
func Convert(buf *Buffer, target gfx.Format) (*Buffer, error) {
	if target != gfx.FormatB8G8R8A8Unorm {
		return nil, ErrConversion
	}

	width, height := int(buf.Width), int(buf.Height)
	out := make([]byte, width*height*4)

	switch buf.Format {
	case gfx.FormatR8Unorm:
		for idx := 0; idx < width*height; idx++ {
			v := buf.Pix[idx]
			out[idx*4+0] = v
			out[idx*4+1] = v
			out[idx*4+2] = v
			out[idx*4+3] = 0xff
		}
	case gfx.FormatR8G8B8Unorm:
		for idx := 0; idx < width*height; idx++ {
			out[idx*4+0] = buf.Pix[idx*3+2]
			out[idx*4+1] = buf.Pix[idx*3+1]
			out[idx*4+2] = buf.Pix[idx*3+0]
			out[idx*4+3] = 0xff
		}
	case gfx.FormatR8G8B8A8Unorm:
		for idx := 0; idx < width*height; idx++ {
			out[idx*4+0] = buf.Pix[idx*4+2]
			out[idx*4+1] = buf.Pix[idx*4+1]
			out[idx*4+2] = buf.Pix[idx*4+0]
			out[idx*4+3] = buf.Pix[idx*4+3]
		}
	case gfx.FormatB8G8R8A8Unorm:
		copy(out, buf.Pix)
	default:
		return nil, ErrConversion
	}

	return &Buffer{
		Format: target,
		Width:  buf.Width,
		Height: buf.Height,
		Pix:    out,
	}, nil
}
