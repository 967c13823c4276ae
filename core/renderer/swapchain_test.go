// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer_test

import (
	"errors"
	"testing"

	"github.com/devblok/gravity/core"
	"github.com/devblok/gravity/core/renderer"
	"github.com/devblok/gravity/device"
	"github.com/devblok/gravity/gfx/vkr/vkrtest"
	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"
)

var (
	bgraSrgb    = vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	rgbaSrgb    = vk.SurfaceFormat{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	bgraSrgbFmt = vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	rgb10       = vk.SurfaceFormat{Format: vk.FormatA2b10g10r10UnormPack32, ColorSpace: vk.ColorSpaceSrgbNonlinear}
)

func newLogicalDevice(c *qt.C, dev vkrtest.Device) (*vkrtest.Driver, *device.LogicalDevice) {
	drv := vkrtest.NewDriver(dev)
	pd, err := device.Select(drv)
	c.Assert(err, qt.IsNil)
	ld, err := device.NewLogicalDevice(drv, pd, device.FindQueueFamilies(drv, pd, nil))
	c.Assert(err, qt.IsNil)
	return drv, ld
}

func TestChooseImageCount(t *testing.T) {
	c := qt.New(t)

	for min := uint32(1); min <= 5; min++ {
		caps := renderer.Capabilities{MinImageCount: min}
		c.Assert(renderer.ChooseImageCount(caps), qt.Equals, min+1)

		for max := min; max <= min+3; max++ {
			caps.MaxImageCount = max
			expected := min + 1
			if expected > max {
				expected = max
			}
			count := renderer.ChooseImageCount(caps)
			c.Assert(count, qt.Equals, expected, qt.Commentf("min %d max %d", min, max))
			c.Assert(count >= min && count <= max, qt.Equals, true)
		}
	}
}

func TestChooseSurfaceFormatAnyPosition(t *testing.T) {
	c := qt.New(t)

	others := []vk.SurfaceFormat{rgbaSrgb, bgraSrgbFmt, rgb10}
	for pos := 0; pos <= len(others); pos++ {
		formats := append(append(append([]vk.SurfaceFormat(nil), others[:pos]...), bgraSrgb), others[pos:]...)
		chosen := renderer.ChooseSurfaceFormat(formats)
		c.Assert(chosen.Format, qt.Equals, bgraSrgb.Format, qt.Commentf("position %d", pos))
		c.Assert(chosen.ColorSpace, qt.Equals, bgraSrgb.ColorSpace)
	}
}

func TestChooseSurfaceFormatFallbacks(t *testing.T) {
	c := qt.New(t)

	chosen := renderer.ChooseSurfaceFormat([]vk.SurfaceFormat{rgb10, rgbaSrgb})
	c.Assert(chosen.Format, qt.Equals, rgb10.Format)

	// the right format in another color space is not a match
	// extended sRGB linear
	other := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpace(1000104002)}
	chosen = renderer.ChooseSurfaceFormat([]vk.SurfaceFormat{other, rgbaSrgb})
	c.Assert(chosen.Format, qt.Equals, other.Format)
	c.Assert(chosen.ColorSpace, qt.Equals, other.ColorSpace)

	chosen = renderer.ChooseSurfaceFormat([]vk.SurfaceFormat{{Format: vk.FormatUndefined, ColorSpace: vk.ColorSpaceSrgbNonlinear}})
	c.Assert(chosen.Format, qt.Equals, bgraSrgb.Format)
	c.Assert(chosen.ColorSpace, qt.Equals, bgraSrgb.ColorSpace)

	// undefined is only the sentinel when it is alone
	chosen = renderer.ChooseSurfaceFormat([]vk.SurfaceFormat{{Format: vk.FormatUndefined}, rgbaSrgb})
	c.Assert(chosen.Format, qt.Equals, vk.FormatUndefined)

	chosen = renderer.ChooseSurfaceFormat(nil)
	c.Assert(chosen.Format, qt.Equals, bgraSrgb.Format)
}

func TestChoosePresentModeEverySubset(t *testing.T) {
	c := qt.New(t)

	candidates := []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox, vk.PresentModeImmediate, vk.PresentModeFifoRelaxed}
	for mask := 0; mask < 1<<uint(len(candidates)); mask++ {
		var modes []vk.PresentMode
		hasMailbox := false
		for idx, mode := range candidates {
			if mask&(1<<uint(idx)) != 0 {
				modes = append(modes, mode)
				hasMailbox = hasMailbox || mode == vk.PresentModeMailbox
			}
		}

		expected := vk.PresentModeFifo
		if hasMailbox {
			expected = vk.PresentModeMailbox
		}
		c.Assert(renderer.ChoosePresentMode(modes), qt.Equals, expected, qt.Commentf("%v", modes))
	}
}

func TestChooseExtent(t *testing.T) {
	c := qt.New(t)

	caps := renderer.Capabilities{
		CurrentExtent: vk.Extent2D{Width: renderer.AnyExtent, Height: renderer.AnyExtent},
		MinExtent:     vk.Extent2D{Width: 800, Height: 600},
		MaxExtent:     vk.Extent2D{Width: 1920, Height: 1080},
	}

	for _, test := range []struct {
		width, height uint32
		expected      vk.Extent2D
	}{
		{1600, 1000, vk.Extent2D{Width: 1600, Height: 1000}},
		{3000, 2000, vk.Extent2D{Width: 1920, Height: 1080}},
		{320, 240, vk.Extent2D{Width: 800, Height: 600}},
		{3000, 200, vk.Extent2D{Width: 1920, Height: 600}},
	} {
		extent := renderer.ChooseExtent(caps, test.width, test.height)
		c.Check(extent.Width, qt.Equals, test.expected.Width)
		c.Check(extent.Height, qt.Equals, test.expected.Height)
	}

	caps.CurrentExtent = vk.Extent2D{Width: 1024, Height: 768}
	for _, size := range [][2]uint32{{1600, 1000}, {3000, 2000}, {1, 1}} {
		extent := renderer.ChooseExtent(caps, size[0], size[1])
		c.Check(extent.Width, qt.Equals, uint32(1024))
		c.Check(extent.Height, qt.Equals, uint32(768))
	}
}

func TestChooseSharingMode(t *testing.T) {
	c := qt.New(t)

	mode, families := renderer.ChooseSharingMode(device.QueueFamilyIndices{Graphics: device.IndexOf(0), Present: device.IndexOf(0)})
	c.Assert(mode, qt.Equals, vk.SharingModeExclusive)
	c.Assert(families, qt.HasLen, 0)

	mode, families = renderer.ChooseSharingMode(device.QueueFamilyIndices{Graphics: device.IndexOf(0), Present: device.IndexOf(2)})
	c.Assert(mode, qt.Equals, vk.SharingModeConcurrent)
	c.Assert(families, qt.DeepEquals, []uint32{0, 2})
}

func TestNegotiateScenario(t *testing.T) {
	c := qt.New(t)

	caps := renderer.Capabilities{
		MinImageCount:    2,
		MaxImageCount:    3,
		CurrentExtent:    vk.Extent2D{Width: renderer.AnyExtent, Height: renderer.AnyExtent},
		MinExtent:        vk.Extent2D{Width: 800, Height: 600},
		MaxExtent:        vk.Extent2D{Width: 1920, Height: 1080},
		CurrentTransform: vk.SurfaceTransformIdentityBit,
		Formats:          []vk.SurfaceFormat{bgraSrgb},
		PresentModes:     []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
	}
	indices := device.QueueFamilyIndices{Graphics: device.IndexOf(0), Present: device.IndexOf(0)}

	cfg := renderer.Negotiate(caps, indices, 1600, 1000)
	c.Assert(cfg.ImageCount, qt.Equals, uint32(3))
	c.Assert(cfg.Format, qt.Equals, vk.FormatB8g8r8a8Unorm)
	c.Assert(cfg.ColorSpace, qt.Equals, vk.ColorSpaceSrgbNonlinear)
	c.Assert(cfg.PresentMode, qt.Equals, vk.PresentModeMailbox)
	c.Assert(cfg.Extent.Width, qt.Equals, uint32(1600))
	c.Assert(cfg.Extent.Height, qt.Equals, uint32(1000))
	c.Assert(cfg.SharingMode, qt.Equals, vk.SharingModeExclusive)
	c.Assert(cfg.PreTransform, qt.Equals, vk.SurfaceTransformIdentityBit)
}

func TestNewSwapchainRoundTrip(t *testing.T) {
	c := qt.New(t)

	for extra := 0; extra <= 2; extra++ {
		drv, ld := newLogicalDevice(c, vkrtest.DefaultDevice())
		drv.ExtraImages = extra

		sc, err := renderer.NewSwapchain(ld, nil, 1600, 1000, nil)
		c.Assert(err, qt.IsNil)
		c.Assert(len(sc.Images) >= int(sc.Config.ImageCount), qt.Equals, true)
		c.Assert(sc.Views, qt.HasLen, len(sc.Images))
		c.Assert(drv.ImageViewInfos, qt.HasLen, len(sc.Images))

		info := drv.SwapchainInfos[0]
		c.Assert(info.MinImageCount, qt.Equals, uint32(3))
		c.Assert(info.ImageFormat, qt.Equals, vk.FormatB8g8r8a8Unorm)
		c.Assert(info.ImageColorSpace, qt.Equals, vk.ColorSpaceSrgbNonlinear)
		c.Assert(info.PresentMode, qt.Equals, vk.PresentModeMailbox)
		c.Assert(info.ImageExtent.Width, qt.Equals, uint32(1600))
		c.Assert(info.ImageExtent.Height, qt.Equals, uint32(1000))
		c.Assert(info.ImageArrayLayers, qt.Equals, uint32(1))
		c.Assert(info.ImageSharingMode, qt.Equals, vk.SharingModeExclusive)
		c.Assert(info.QueueFamilyIndexCount, qt.Equals, uint32(0))
		c.Assert(info.CompositeAlpha, qt.Equals, vk.CompositeAlphaOpaqueBit)
		c.Assert(info.Clipped, qt.Equals, vk.Bool32(vk.True))
		c.Assert(info.ImageUsage, qt.Equals, vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit))

		view := drv.ImageViewInfos[0]
		c.Assert(view.ViewType, qt.Equals, vk.ImageViewType2d)
		c.Assert(view.Format, qt.Equals, vk.FormatB8g8r8a8Unorm)
		c.Assert(view.SubresourceRange.LayerCount, qt.Equals, uint32(1))

		sc.Release()
		sc.Release()
		ld.Release()
		c.Assert(drv.Live(), qt.Equals, 0)
	}
}

func TestNewSwapchainConcurrentSharing(t *testing.T) {
	c := qt.New(t)

	dev := vkrtest.DefaultDevice()
	dev.QueueFamilies = append(dev.QueueFamilies, vk.QueueFamilyProperties{QueueFlags: vk.QueueFlags(vk.QueueTransferBit), QueueCount: 1})
	dev.PresentSupport = map[uint32]bool{1: true}
	drv, ld := newLogicalDevice(c, dev)

	_, err := renderer.NewSwapchain(ld, nil, 1600, 1000, nil)
	c.Assert(err, qt.IsNil)

	info := drv.SwapchainInfos[0]
	c.Assert(info.ImageSharingMode, qt.Equals, vk.SharingModeConcurrent)
	c.Assert(info.QueueFamilyIndexCount, qt.Equals, uint32(2))
	c.Assert(info.PQueueFamilyIndices, qt.DeepEquals, []uint32{0, 1})
}

func TestNewSwapchainConsumesPrior(t *testing.T) {
	c := qt.New(t)

	drv, ld := newLogicalDevice(c, vkrtest.DefaultDevice())
	prior, err := renderer.NewSwapchain(ld, nil, 1600, 1000, nil)
	c.Assert(err, qt.IsNil)
	live := drv.Live()

	drv.Calls = nil
	sc, err := renderer.NewSwapchain(ld, nil, 1920, 1080, prior)
	c.Assert(err, qt.IsNil)
	c.Assert(drv.Live(), qt.Equals, live)
	c.Assert(prior.Views, qt.HasLen, 0)
	c.Assert(sc.Extent().Width, qt.Equals, uint32(1920))

	// the old swapchain goes away after the new one exists, views first
	calls := drv.CallLog()
	created := indexOf(calls, "CreateSwapchain")
	firstView := indexOf(calls, "DestroyImageView")
	destroyed := indexOf(calls, "DestroySwapchain")
	c.Assert(created >= 0 && created < firstView && firstView < destroyed, qt.Equals, true, qt.Commentf("%v", calls))

	// releasing a consumed swapchain does nothing
	prior.Release()
	c.Assert(drv.Live(), qt.Equals, live)
}

func TestNewSwapchainFailureConsumesPrior(t *testing.T) {
	c := qt.New(t)

	drv, ld := newLogicalDevice(c, vkrtest.DefaultDevice())
	prior, err := renderer.NewSwapchain(ld, nil, 1600, 1000, nil)
	c.Assert(err, qt.IsNil)

	drv.Fail = map[string]error{"CreateSwapchain": errors.New("native window in use")}
	_, err = renderer.NewSwapchain(ld, nil, 1600, 1000, prior)

	var rce *core.ResourceCreationError
	c.Assert(errors.As(err, &rce), qt.Equals, true)
	c.Assert(rce.Stage, qt.Equals, core.StageSwapchain)
	c.Assert(drv.Live(), qt.Equals, 1)
}

func TestNewSwapchainViewFailure(t *testing.T) {
	c := qt.New(t)

	drv, ld := newLogicalDevice(c, vkrtest.DefaultDevice())
	drv.Fail = map[string]error{"CreateImageView": nil}

	_, err := renderer.NewSwapchain(ld, nil, 1600, 1000, nil)
	var rce *core.ResourceCreationError
	c.Assert(errors.As(err, &rce), qt.Equals, true)
	c.Assert(rce.Stage, qt.Equals, core.StageImageView)
	c.Assert(drv.Live(), qt.Equals, 1)
}

func TestNewSwapchainQueryFailure(t *testing.T) {
	c := qt.New(t)

	drv, ld := newLogicalDevice(c, vkrtest.DefaultDevice())
	drv.Fail = map[string]error{"SurfaceFormats": nil}

	_, err := renderer.NewSwapchain(ld, nil, 1600, 1000, nil)
	c.Assert(err, qt.ErrorMatches, `swapchain creation failed: SurfaceFormats\(\): .*`)
	c.Assert(drv.SwapchainInfos, qt.HasLen, 0)
}

func indexOf(calls []string, name string) int {
	for idx, call := range calls {
		if call == name {
			return idx
		}
	}
	return -1
}
