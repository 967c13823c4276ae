// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/devblok/gravity/core"
	"github.com/devblok/gravity/device"
	"github.com/devblok/gravity/gfx/vkr"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// Capabilities is what a surface supports on a device at the time of the query
type Capabilities struct {
	MinImageCount uint32
	// MaxImageCount of 0 means no limit
	MaxImageCount uint32

	CurrentExtent    vk.Extent2D
	MinExtent        vk.Extent2D
	MaxExtent        vk.Extent2D
	CurrentTransform vk.SurfaceTransformFlagBits

	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// QueryCapabilities asks the driver for the current surface capabilities
func QueryCapabilities(drv vkr.Driver, pd vkr.PhysicalDevice, surface vk.Surface) (Capabilities, error) {
	sc, err := drv.SurfaceCapabilities(pd, surface)
	if err != nil {
		return Capabilities{}, err
	}
	formats, err := drv.SurfaceFormats(pd, surface)
	if err != nil {
		return Capabilities{}, err
	}
	presentModes, err := drv.SurfacePresentModes(pd, surface)
	if err != nil {
		return Capabilities{}, err
	}

	return Capabilities{
		MinImageCount:    sc.MinImageCount,
		MaxImageCount:    sc.MaxImageCount,
		CurrentExtent:    sc.CurrentExtent,
		MinExtent:        sc.MinImageExtent,
		MaxExtent:        sc.MaxImageExtent,
		CurrentTransform: sc.CurrentTransform,
		Formats:          formats,
		PresentModes:     presentModes,
	}, nil
}

// SwapchainConfig is the negotiated swapchain setup
type SwapchainConfig struct {
	ImageCount         uint32
	Format             vk.Format
	ColorSpace         vk.ColorSpace
	PresentMode        vk.PresentMode
	Extent             vk.Extent2D
	SharingMode        vk.SharingMode
	QueueFamilyIndices []uint32
	PreTransform       vk.SurfaceTransformFlagBits
}

// ChooseImageCount asks for one image more than the minimum,
// without going over the maximum
func ChooseImageCount(caps Capabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ChooseSurfaceFormat prefers DefaultSurfaceFormat, falling back to the first
// supported format. A single undefined format means anything goes.
func ChooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	if len(formats) == 0 {
		return DefaultSurfaceFormat
	}
	if len(formats) == 1 && formats[0].Format == vk.FormatUndefined {
		return DefaultSurfaceFormat
	}
	for _, format := range formats {
		if format.Format == DefaultSurfaceFormat.Format && format.ColorSpace == DefaultSurfaceFormat.ColorSpace {
			return format
		}
	}
	return formats[0]
}

// ChoosePresentMode picks mailbox when supported, otherwise fifo
// which every surface supports
func ChoosePresentMode(modes []vk.PresentMode) vk.PresentMode {
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return vk.PresentModeMailbox
		}
	}
	return vk.PresentModeFifo
}

// ChooseExtent uses the current extent of the surface, unless the surface
// leaves it to the swapchain, then the desired size is clamped to the bounds
func ChooseExtent(caps Capabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != AnyExtent {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clamp(width, caps.MinExtent.Width, caps.MaxExtent.Width),
		Height: clamp(height, caps.MinExtent.Height, caps.MaxExtent.Height),
	}
}

func clamp(v, min, max uint32) uint32 {
	if v > max {
		v = max
	}
	if v < min {
		v = min
	}
	return v
}

// ChooseSharingMode uses exclusive images when a single queue family
// touches them, otherwise they are shared concurrently between the families
func ChooseSharingMode(indices device.QueueFamilyIndices) (vk.SharingMode, []uint32) {
	unique := indices.UniqueIndices()
	if len(unique) <= 1 {
		return vk.SharingModeExclusive, nil
	}
	return vk.SharingModeConcurrent, unique
}

// Negotiate derives the swapchain configuration for the desired size
func Negotiate(caps Capabilities, indices device.QueueFamilyIndices, width, height uint32) SwapchainConfig {
	format := ChooseSurfaceFormat(caps.Formats)
	sharingMode, families := ChooseSharingMode(indices)
	return SwapchainConfig{
		ImageCount:         ChooseImageCount(caps),
		Format:             format.Format,
		ColorSpace:         format.ColorSpace,
		PresentMode:        ChoosePresentMode(caps.PresentModes),
		Extent:             ChooseExtent(caps, width, height),
		SharingMode:        sharingMode,
		QueueFamilyIndices: families,
		PreTransform:       caps.CurrentTransform,
	}
}

// Swapchain owns a swapchain and a view for each of its images
type Swapchain struct {
	driver vkr.Driver
	device vk.Device

	Handle vk.Swapchain
	Config SwapchainConfig

	// Images belong to the swapchain and are never destroyed on their own
	Images []vk.Image
	Views  []vk.ImageView

	released bool
}

// NewSwapchain queries fresh capabilities, negotiates and creates a swapchain.
// A prior swapchain is consumed, it must not be used after the call.
func NewSwapchain(ld *device.LogicalDevice, surface vk.Surface, width, height uint32, prior *Swapchain) (*Swapchain, error) {
	caps, err := QueryCapabilities(ld.Driver(), ld.Physical, surface)
	if err != nil {
		prior.Release()
		return nil, core.NewResourceError(core.StageSwapchain, err)
	}

	cfg := Negotiate(caps, ld.Indices, width, height)
	log.WithFields(log.Fields{
		"images":  cfg.ImageCount,
		"format":  cfg.Format,
		"mode":    cfg.PresentMode,
		"width":   cfg.Extent.Width,
		"height":  cfg.Extent.Height,
		"sharing": cfg.SharingMode,
	}).Debug("swapchain negotiated")

	return CreateSwapchain(ld, surface, cfg, prior)
}

// CreateSwapchain creates a swapchain from cfg along with a view for each image.
// A prior swapchain is passed on as the old swapchain and is released once the
// new one exists, also when creation fails.
func CreateSwapchain(ld *device.LogicalDevice, surface vk.Surface, cfg SwapchainConfig, prior *Swapchain) (*Swapchain, error) {
	drv := ld.Driver()

	var oldSwapchain vk.Swapchain
	if prior != nil && !prior.released {
		oldSwapchain = prior.Handle
	}

	sci := vk.SwapchainCreateInfo{
		SType:                 vk.StructureTypeSwapchainCreateInfo,
		Surface:               surface,
		MinImageCount:         cfg.ImageCount,
		ImageFormat:           cfg.Format,
		ImageColorSpace:       cfg.ColorSpace,
		ImageExtent:           cfg.Extent,
		ImageArrayLayers:      1,
		ImageUsage:            vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode:      cfg.SharingMode,
		QueueFamilyIndexCount: uint32(len(cfg.QueueFamilyIndices)),
		PQueueFamilyIndices:   cfg.QueueFamilyIndices,
		PreTransform:          cfg.PreTransform,
		CompositeAlpha:        vk.CompositeAlphaOpaqueBit,
		PresentMode:           cfg.PresentMode,
		Clipped:               vk.True,
		OldSwapchain:          oldSwapchain,
	}

	handle, err := drv.CreateSwapchain(ld.Handle, &sci)
	prior.Release()
	if err != nil {
		return nil, core.NewResourceError(core.StageSwapchain, err)
	}

	sc := &Swapchain{
		driver: drv,
		device: ld.Handle,
		Handle: handle,
		Config: cfg,
	}

	if sc.Images, err = drv.SwapchainImages(ld.Handle, handle); err != nil {
		sc.Release()
		return nil, core.NewResourceError(core.StageSwapchain, err)
	}

	if err := sc.createImageViews(); err != nil {
		sc.Release()
		return nil, core.NewResourceError(core.StageImageView, err)
	}

	log.WithFields(log.Fields{
		"images": len(sc.Images),
		"width":  cfg.Extent.Width,
		"height": cfg.Extent.Height,
	}).Info("swapchain created")
	return sc, nil
}

func (s *Swapchain) createImageViews() error {
	s.Views = make([]vk.ImageView, 0, len(s.Images))
	for _, image := range s.Images {
		ivci := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    image,
			ViewType: vk.ImageViewType2d,
			Format:   s.Config.Format,
			Components: vk.ComponentMapping{
				R: vk.ComponentSwizzleIdentity,
				G: vk.ComponentSwizzleIdentity,
				B: vk.ComponentSwizzleIdentity,
				A: vk.ComponentSwizzleIdentity,
			},
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		view, err := s.driver.CreateImageView(s.device, &ivci)
		if err != nil {
			return err
		}
		s.Views = append(s.Views, view)
	}
	return nil
}

// Extent returns the size of the swapchain images
func (s *Swapchain) Extent() vk.Extent2D {
	return s.Config.Extent
}

// Release implements gfx.Releasable, views are destroyed
// before the swapchain. Releasing a nil or released swapchain does nothing.
func (s *Swapchain) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	for _, view := range s.Views {
		s.driver.DestroyImageView(s.device, view)
	}
	s.Views = nil
	s.Images = nil
	s.driver.DestroySwapchain(s.device, s.Handle)
	s.Handle = nil
}
