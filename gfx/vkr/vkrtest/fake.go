// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkrtest provides a vkr.Driver that records what it is asked to
// create instead of talking to a GPU.
package vkrtest

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/devblok/gravity/gfx/vkr"
	vk "github.com/vulkan-go/vulkan"
)

// ErrRejected is returned by calls listed in Driver.Fail without an explicit error.
var ErrRejected = errors.New("vkrtest: rejected")

// Device is a simulated physical device.
type Device struct {
	Name          string
	APIVersion    uint32
	Type          vk.PhysicalDeviceType
	QueueFamilies []vk.QueueFamilyProperties

	// PresentSupport lists the queue families able to present to the surface.
	PresentSupport map[uint32]bool
	// PresentErrors makes the present support query fail for a family.
	PresentErrors map[uint32]error

	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// QueueRequest is a queue handle lookup made through DeviceQueue.
type QueueRequest struct {
	Family uint32
	Index  uint32
}

// Driver implements vkr.Driver over a list of simulated devices.
// The zero value has no devices.
type Driver struct {
	mu sync.Mutex

	Devices []Device

	// ExtraImages is added to the requested minimum when handing out swapchain images.
	ExtraImages int

	// Fail rejects the named driver call, e.g. "CreateSwapchain".
	Fail map[string]error

	Calls           []string
	DeviceInfos     []vk.DeviceCreateInfo
	Queues          []QueueRequest
	SwapchainInfos  []vk.SwapchainCreateInfo
	ImageViewInfos  []vk.ImageViewCreateInfo
	RenderPassInfos []vk.RenderPassCreateInfo
	LayoutInfos     []vk.PipelineLayoutCreateInfo
	PipelineInfos   []vk.GraphicsPipelineCreateInfo
	ShaderModules   [][]byte

	live       int
	lastImages int
}

// NewDriver returns a driver exposing the given devices.
func NewDriver(devices ...Device) *Driver {
	return &Driver{Devices: devices}
}

// DefaultDevice is a discrete 1.1 device with one family doing both graphics
// and presentation, reporting the "any size" extent sentinel.
func DefaultDevice() Device {
	return Device{
		Name:       "Fake GPU",
		APIVersion: vk.MakeVersion(1, 1, 0),
		Type:       vk.PhysicalDeviceTypeDiscreteGpu,
		QueueFamilies: []vk.QueueFamilyProperties{
			{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit), QueueCount: 1},
		},
		PresentSupport: map[uint32]bool{0: true},
		Capabilities: vk.SurfaceCapabilities{
			MinImageCount:    2,
			MaxImageCount:    3,
			CurrentExtent:    vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
			MinImageExtent:   vk.Extent2D{Width: 800, Height: 600},
			MaxImageExtent:   vk.Extent2D{Width: 1920, Height: 1080},
			CurrentTransform: vk.SurfaceTransformIdentityBit,
		},
		Formats: []vk.SurfaceFormat{
			{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		},
		PresentModes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
	}
}

// Live returns the number of created objects not yet destroyed.
func (d *Driver) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

// CallLog returns a copy of the recorded call names.
func (d *Driver) CallLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.Calls...)
}

func (d *Driver) record(call string) error {
	d.Calls = append(d.Calls, call)
	if err, ok := d.Fail[call]; ok {
		if err == nil {
			err = ErrRejected
		}
		return fmt.Errorf("%s(): %w", call, err)
	}
	return nil
}

func (d *Driver) device(pd vkr.PhysicalDevice) (*Device, error) {
	if pd.Ordinal < 0 || pd.Ordinal >= len(d.Devices) {
		return nil, fmt.Errorf("vkrtest: unknown device %d", pd.Ordinal)
	}
	return &d.Devices[pd.Ordinal], nil
}

// PhysicalDevices implements vkr.Driver
func (d *Driver) PhysicalDevices() ([]vkr.PhysicalDevice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("PhysicalDevices"); err != nil {
		return nil, err
	}
	devices := make([]vkr.PhysicalDevice, len(d.Devices))
	for idx, dev := range d.Devices {
		devices[idx] = vkr.PhysicalDevice{
			Ordinal:    idx,
			Name:       dev.Name,
			APIVersion: dev.APIVersion,
			VendorID:   0x10de,
			DeviceID:   uint32(idx + 1),
			Type:       dev.Type,
		}
	}
	return devices, nil
}

// QueueFamilies implements vkr.Driver
func (d *Driver) QueueFamilies(pd vkr.PhysicalDevice) []vk.QueueFamilyProperties {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, "QueueFamilies")
	dev, err := d.device(pd)
	if err != nil {
		return nil
	}
	return append([]vk.QueueFamilyProperties(nil), dev.QueueFamilies...)
}

// SurfaceSupport implements vkr.Driver
func (d *Driver) SurfaceSupport(pd vkr.PhysicalDevice, family uint32, surface vk.Surface) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, "SurfaceSupport")
	dev, err := d.device(pd)
	if err != nil {
		return false, err
	}
	if err := dev.PresentErrors[family]; err != nil {
		return false, err
	}
	return dev.PresentSupport[family], nil
}

// SurfaceCapabilities implements vkr.Driver
func (d *Driver) SurfaceCapabilities(pd vkr.PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("SurfaceCapabilities"); err != nil {
		return vk.SurfaceCapabilities{}, err
	}
	dev, err := d.device(pd)
	if err != nil {
		return vk.SurfaceCapabilities{}, err
	}
	return dev.Capabilities, nil
}

// SurfaceFormats implements vkr.Driver
func (d *Driver) SurfaceFormats(pd vkr.PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("SurfaceFormats"); err != nil {
		return nil, err
	}
	dev, err := d.device(pd)
	if err != nil {
		return nil, err
	}
	return append([]vk.SurfaceFormat(nil), dev.Formats...), nil
}

// SurfacePresentModes implements vkr.Driver
func (d *Driver) SurfacePresentModes(pd vkr.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("SurfacePresentModes"); err != nil {
		return nil, err
	}
	dev, err := d.device(pd)
	if err != nil {
		return nil, err
	}
	return append([]vk.PresentMode(nil), dev.PresentModes...), nil
}

// CreateDevice implements vkr.Driver
func (d *Driver) CreateDevice(pd vkr.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("CreateDevice"); err != nil {
		return nil, err
	}
	d.DeviceInfos = append(d.DeviceInfos, *info)
	d.live++
	return nil, nil
}

// DeviceQueue implements vkr.Driver
func (d *Driver) DeviceQueue(device vk.Device, family, index uint32) vk.Queue {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, "DeviceQueue")
	d.Queues = append(d.Queues, QueueRequest{Family: family, Index: index})
	return nil
}

// DeviceWaitIdle implements vkr.Driver
func (d *Driver) DeviceWaitIdle(device vk.Device) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.record("DeviceWaitIdle")
}

// DestroyDevice implements vkr.Driver
func (d *Driver) DestroyDevice(device vk.Device) {
	d.destroy("DestroyDevice")
}

// CreateSwapchain implements vkr.Driver
func (d *Driver) CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("CreateSwapchain"); err != nil {
		return nil, err
	}
	d.SwapchainInfos = append(d.SwapchainInfos, *info)
	d.lastImages = int(info.MinImageCount) + d.ExtraImages
	d.live++
	return nil, nil
}

// SwapchainImages implements vkr.Driver
func (d *Driver) SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("SwapchainImages"); err != nil {
		return nil, err
	}
	return make([]vk.Image, d.lastImages), nil
}

// DestroySwapchain implements vkr.Driver
func (d *Driver) DestroySwapchain(device vk.Device, swapchain vk.Swapchain) {
	d.destroy("DestroySwapchain")
}

// CreateImageView implements vkr.Driver
func (d *Driver) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("CreateImageView"); err != nil {
		return nil, err
	}
	d.ImageViewInfos = append(d.ImageViewInfos, *info)
	d.live++
	return nil, nil
}

// DestroyImageView implements vkr.Driver
func (d *Driver) DestroyImageView(device vk.Device, view vk.ImageView) {
	d.destroy("DestroyImageView")
}

// CreateRenderPass implements vkr.Driver
func (d *Driver) CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("CreateRenderPass"); err != nil {
		return nil, err
	}
	d.RenderPassInfos = append(d.RenderPassInfos, *info)
	d.live++
	return nil, nil
}

// DestroyRenderPass implements vkr.Driver
func (d *Driver) DestroyRenderPass(device vk.Device, renderPass vk.RenderPass) {
	d.destroy("DestroyRenderPass")
}

// CreateShaderModule implements vkr.Driver
func (d *Driver) CreateShaderModule(device vk.Device, code []byte) (vk.ShaderModule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("CreateShaderModule"); err != nil {
		return nil, err
	}
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, fmt.Errorf("CreateShaderModule(): bytecode size %d is not a multiple of 4", len(code))
	}
	d.ShaderModules = append(d.ShaderModules, code)
	d.live++
	return nil, nil
}

// DestroyShaderModule implements vkr.Driver
func (d *Driver) DestroyShaderModule(device vk.Device, shader vk.ShaderModule) {
	d.destroy("DestroyShaderModule")
}

// CreatePipelineLayout implements vkr.Driver
func (d *Driver) CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("CreatePipelineLayout"); err != nil {
		return nil, err
	}
	d.LayoutInfos = append(d.LayoutInfos, *info)
	d.live++
	return nil, nil
}

// DestroyPipelineLayout implements vkr.Driver
func (d *Driver) DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout) {
	d.destroy("DestroyPipelineLayout")
}

// CreateGraphicsPipeline implements vkr.Driver
func (d *Driver) CreateGraphicsPipeline(device vk.Device, info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.record("CreateGraphicsPipeline"); err != nil {
		return nil, err
	}
	d.PipelineInfos = append(d.PipelineInfos, *info)
	d.live++
	return nil, nil
}

// DestroyPipeline implements vkr.Driver
func (d *Driver) DestroyPipeline(device vk.Device, pipeline vk.Pipeline) {
	d.destroy("DestroyPipeline")
}

func (d *Driver) destroy(call string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Calls = append(d.Calls, call)
	d.live--
}

// Surface is a core.SurfaceProvider stand-in with a fixed drawable size.
type Surface struct {
	Width, Height int32
	Extensions    []string
	Err           error

	Created int
}

// RequiredExtensions returns the configured extension names
func (s *Surface) RequiredExtensions() []string {
	return s.Extensions
}

// CreateSurface returns a nil surface handle or the configured error
func (s *Surface) CreateSurface(instance interface{}) (vk.Surface, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.Created++
	return nil, nil
}

// DrawableSize returns the configured size
func (s *Surface) DrawableSize() (int32, int32) {
	return s.Width, s.Height
}
