// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/vulkan-go/vulkan"
)

// Viewport describes the drawable area of a swapchain
type Viewport struct {
	Extent vk.Extent2D
}

// Aspect returns width divided by height, 1 for an empty extent
func (v Viewport) Aspect() float32 {
	if v.Extent.Width == 0 || v.Extent.Height == 0 {
		return 1
	}
	return float32(v.Extent.Width) / float32(v.Extent.Height)
}

// Projection returns an orthographic projection keeping the shorter side of
// the viewport at [-1, 1]. Y points up, the flip into clip space is included.
func (v Viewport) Projection() mgl32.Mat4 {
	aspect := v.Aspect()
	if aspect >= 1 {
		return mgl32.Ortho(-aspect, aspect, 1, -1, -1, 1)
	}
	return mgl32.Ortho(-1, 1, 1/aspect, -1/aspect, -1, 1)
}
