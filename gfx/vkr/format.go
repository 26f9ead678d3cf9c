// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/texel/gfx"
)

// nativeFormat maps a gfx pixel format onto the vulkan equivalent.
func nativeFormat(format gfx.Format) (vk.Format, error) {
	switch format {
	case gfx.FormatR8Unorm:
		return vk.FormatR8Unorm, nil
	case gfx.FormatR8G8B8Unorm:
		return vk.FormatR8g8b8Unorm, nil
	case gfx.FormatR8G8B8A8Unorm:
		return vk.FormatR8g8b8a8Unorm, nil
	case gfx.FormatB8G8R8A8Unorm:
		return vk.FormatB8g8r8a8Unorm, nil
	default:
		return vk.FormatUndefined, fmt.Errorf("no vulkan format for %s", format)
	}
}
