// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/devblok/vulkan"
)

// Texture is a device-local sampled image, the vulkan realization of
// gfx.Texture.
type Texture struct {
	device vk.Device
	image  Image

	width, height uint32
}

// Get returns the vulkan Image handle.
func (t *Texture) Get() vk.Image {
	return t.image.Get()
}

// Release implements gfx.Releasable.
func (t *Texture) Release() {
	t.image.Release()
}

// TextureView is a shader-resource view over a Texture.
type TextureView struct {
	device vk.Device
	view   vk.ImageView
}

// Get returns the vulkan ImageView handle.
func (v *TextureView) Get() vk.ImageView {
	return v.view
}

// Release implements gfx.Releasable.
func (v *TextureView) Release() {
	vk.DestroyImageView(v.device, v.view, nil)
}
