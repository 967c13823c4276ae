// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"errors"
	"fmt"

	"github.com/devblok/gravity/core"
	"github.com/devblok/gravity/device"
	"github.com/devblok/gravity/gfx"
	"github.com/devblok/gravity/gfx/vkr"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// ErrNotInitialised is returned when the renderer is used before Initialise
var ErrNotInitialised = errors.New("renderer is not initialised")

// NewVulkanRenderer creates a Vulkan API renderer drawing to surface.
// It needs to be initialised with Initialise() before use.
func NewVulkanRenderer(drv vkr.Driver, surface vk.Surface, cfg core.RendererConfiguration) *VulkanRenderer {
	return &VulkanRenderer{
		driver:        drv,
		surface:       surface,
		configuration: cfg,
	}
}

// VulkanRenderer sets up everything a frame loop needs to draw: the device
// and its queues, the swapchain, the render pass and the pipeline.
// Resources are shared read only once initialised. Recreate and Destroy
// must not run concurrently with anything using them.
type VulkanRenderer struct {
	driver        vkr.Driver
	surface       vk.Surface
	configuration core.RendererConfiguration
	shaders       core.ShaderSet

	// device level resources
	resources gfx.ReleaseStack
	// resources built on top of the swapchain
	chain gfx.ReleaseStack

	device     *device.LogicalDevice
	swapchain  *Swapchain
	renderPass *RenderPass
	pipeline   *Pipeline
}

// Initialise runs device selection, queue family resolution, device creation,
// swapchain negotiation and pipeline creation in that order. On failure every
// resource created so far is released.
func (v *VulkanRenderer) Initialise(shaders core.ShaderSet) error {
	if v.device != nil {
		return errors.New("renderer is already initialised")
	}
	v.shaders = shaders

	pd, err := device.Select(v.driver)
	if err != nil {
		return err
	}

	indices := device.FindQueueFamilies(v.driver, pd, v.surface)
	ld, err := device.NewLogicalDevice(v.driver, pd, indices, v.configuration.DeviceExtensions...)
	if err != nil {
		return err
	}
	v.resources.Push(ld)
	v.device = ld

	if err := v.createSwapchain(v.configuration.ScreenWidth, v.configuration.ScreenHeight); err != nil {
		v.release()
		return err
	}

	log.WithFields(log.Fields{
		"device": pd.Name,
		"images": len(v.swapchain.Images),
		"width":  v.swapchain.Extent().Width,
		"height": v.swapchain.Extent().Height,
	}).Info("renderer initialised")
	return nil
}

// createSwapchain (re)creates the swapchain and everything depending on it
func (v *VulkanRenderer) createSwapchain(width, height uint32) error {
	v.chain.Release()
	v.renderPass, v.pipeline = nil, nil

	sc, err := NewSwapchain(v.device, v.surface, width, height, v.swapchain)
	v.swapchain = sc
	if err != nil {
		return err
	}

	rp, err := NewRenderPass(v.device, sc.Config.Format)
	if err != nil {
		return err
	}
	v.chain.Push(rp)
	v.renderPass = rp

	pipeline, err := NewPipeline(v.device, rp, sc.Extent(), v.shaders, v.configuration.ShaderEntry)
	if err != nil {
		return err
	}
	v.chain.Push(pipeline)
	v.pipeline = pipeline
	return nil
}

// Recreate negotiates a new swapchain for the given size, replacing the
// current one, and rebuilds the render pass and pipeline for it.
func (v *VulkanRenderer) Recreate(width, height uint32) error {
	if v.device == nil {
		return ErrNotInitialised
	}
	if err := v.device.WaitIdle(); err != nil {
		return fmt.Errorf("recreate: %s", err)
	}
	if err := v.createSwapchain(width, height); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"width":  v.swapchain.Extent().Width,
		"height": v.swapchain.Extent().Height,
	}).Info("swapchain recreated")
	return nil
}

// Destroy waits for the device and releases everything in reverse creation order
func (v *VulkanRenderer) Destroy() {
	if v.device == nil {
		return
	}
	if err := v.device.WaitIdle(); err != nil {
		log.WithError(err).Warn("device did not become idle before destruction")
	}
	v.release()
}

func (v *VulkanRenderer) release() {
	v.chain.Release()
	v.swapchain.Release()
	v.resources.Release()
	v.device, v.swapchain, v.renderPass, v.pipeline = nil, nil, nil, nil
}

// PhysicalDevice returns the selected physical device
func (v *VulkanRenderer) PhysicalDevice() vkr.PhysicalDevice {
	if v.device == nil {
		return vkr.PhysicalDevice{}
	}
	return v.device.Physical
}

// QueueFamilies returns the resolved queue families
func (v *VulkanRenderer) QueueFamilies() device.QueueFamilyIndices {
	if v.device == nil {
		return device.QueueFamilyIndices{}
	}
	return v.device.Indices
}

// Device returns the logical device
func (v *VulkanRenderer) Device() *device.LogicalDevice {
	return v.device
}

// GraphicsQueue returns the queue to submit drawing to
func (v *VulkanRenderer) GraphicsQueue() vk.Queue {
	if v.device == nil {
		return nil
	}
	return v.device.GraphicsQueue
}

// PresentQueue returns the queue to present with
func (v *VulkanRenderer) PresentQueue() vk.Queue {
	if v.device == nil {
		return nil
	}
	return v.device.PresentQueue
}

// Swapchain returns the current swapchain with its images and views
func (v *VulkanRenderer) Swapchain() *Swapchain {
	return v.swapchain
}

// RenderPass returns the render pass
func (v *VulkanRenderer) RenderPass() *RenderPass {
	return v.renderPass
}

// Pipeline returns the graphics pipeline
func (v *VulkanRenderer) Pipeline() *Pipeline {
	return v.pipeline
}

// Viewport returns the viewport covering the current swapchain
func (v *VulkanRenderer) Viewport() Viewport {
	if v.swapchain == nil {
		return Viewport{}
	}
	return Viewport{Extent: v.swapchain.Extent()}
}
