// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the device-facing interfaces and shared types
// that texture creation is built on. Concrete backends live in
// subpackages (vkr for Vulkan); tests substitute their own stubs.
package gfx

// Releasable defines any native-resource-occupying item that can be freed.
type Releasable interface {

	// Release releases the native resources held by the implementing
	// structure. It must be safe to call exactly once.
	Release()
}

// Texture is an opaque handle to a created 2D texture resource.
type Texture interface {
	Releasable
}

// TextureView is an opaque handle to a shader-resource view of a Texture,
// the thing a rendering pipeline actually samples from.
type TextureView interface {
	Releasable
}

// TextureDesc describes a 2D texture to be created with initial data.
type TextureDesc struct {
	Width    uint32
	Height   uint32
	Format   Format
	RowPitch uint32
}

// Device is the narrow surface the texture pipeline consumes from a
// graphics backend. Creation calls must be safe for concurrent use,
// which the native APIs document for resource creation.
type Device interface {
	Releasable

	// CreateTexture2D allocates an immutable 2D texture filled with the
	// given pixel data.
	CreateTexture2D(desc TextureDesc, data []byte) (Texture, error)

	// CreateView binds an existing texture as a shader resource.
	CreateView(tex Texture) (TextureView, error)

	// FormatSupport queries the capability bitmask for a pixel format.
	FormatSupport(format Format) (FormatFeatures, error)
}

// FormatFeatures is a bitmask of device capabilities for a pixel format.
type FormatFeatures uint32

// Capability bits reported by FormatSupport.
const (
	// FormatFeatureSampledImage2D is set when the format can back a
	// 2D texture that shaders sample from.
	FormatFeatureSampledImage2D FormatFeatures = 1 << iota
	FormatFeatureTransferSrc
	FormatFeatureTransferDst
)
