// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"math"

	vk "github.com/vulkan-go/vulkan"
)

// AnyExtent is the current extent width a surface reports when
// the swapchain decides the size
const AnyExtent = math.MaxUint32

// DefaultEntryPoint is the shader entry point used when none is configured
const DefaultEntryPoint = "main"

// DefaultSurfaceFormat is the preferred swapchain format
var DefaultSurfaceFormat = vk.SurfaceFormat{
	Format:     vk.FormatB8g8r8a8Unorm,
	ColorSpace: vk.ColorSpaceSrgbNonlinear,
}
