// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

// Format identifies a pixel memory layout. The set is deliberately small:
// it covers what the container codec and the image decoders produce.
type Format int32

// Supported pixel formats.
const (
	FormatUnknown Format = iota
	FormatR8Unorm
	FormatR8G8B8Unorm
	FormatR8G8B8A8Unorm
	FormatB8G8R8A8Unorm
)

// PixelSize returns the number of bytes one pixel occupies, or 0
// for FormatUnknown.
func (f Format) PixelSize() int {
	switch f {
	case FormatR8Unorm:
		return 1
	case FormatR8G8B8Unorm:
		return 3
	case FormatR8G8B8A8Unorm, FormatB8G8R8A8Unorm:
		return 4
	default:
		return 0
	}
}

// String implements fmt.Stringer for diagnostics and debug labels.
func (f Format) String() string {
	switch f {
	case FormatR8Unorm:
		return "R8Unorm"
	case FormatR8G8B8Unorm:
		return "R8G8B8Unorm"
	case FormatR8G8B8A8Unorm:
		return "R8G8B8A8Unorm"
	case FormatB8G8R8A8Unorm:
		return "B8G8R8A8Unorm"
	default:
		return "Unknown"
	}
}
