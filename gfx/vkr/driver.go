// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the vulkan renderer backend. Everything above it
// talks to the graphics API through the Driver interface, so negotiation
// logic can be exercised without a GPU.
package vkr

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// PhysicalDevice is a physical device handle together with
// the read-only properties queried during enumeration.
type PhysicalDevice struct {
	Handle vk.PhysicalDevice `json:"-"`

	// Ordinal is the position of the device in enumeration order.
	Ordinal       int
	Name          string
	APIVersion    uint32
	DriverVersion uint32
	VendorID      uint32
	DeviceID      uint32
	Type          vk.PhysicalDeviceType
}

// String implements fmt.Stringer
func (p PhysicalDevice) String() string {
	return fmt.Sprintf("%s (#%d, api %s)", p.Name, p.Ordinal, VersionString(p.APIVersion))
}

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	PhysicalDevice

	Invalid    bool
	Extensions []string
	Layers     []string
	Memory     uint64
}

// Driver is the subset of the Vulkan API used to negotiate
// and build a rendering context. Handles are opaque to callers.
type Driver interface {
	// PhysicalDevices enumerates devices in the order reported by the instance.
	PhysicalDevices() ([]PhysicalDevice, error)

	// QueueFamilies returns the queue family descriptors of a device in index order.
	QueueFamilies(PhysicalDevice) []vk.QueueFamilyProperties

	// SurfaceSupport reports if the queue family can present to the surface.
	SurfaceSupport(device PhysicalDevice, family uint32, surface vk.Surface) (bool, error)

	SurfaceCapabilities(PhysicalDevice, vk.Surface) (vk.SurfaceCapabilities, error)
	SurfaceFormats(PhysicalDevice, vk.Surface) ([]vk.SurfaceFormat, error)
	SurfacePresentModes(PhysicalDevice, vk.Surface) ([]vk.PresentMode, error)

	CreateDevice(PhysicalDevice, *vk.DeviceCreateInfo) (vk.Device, error)
	DeviceQueue(device vk.Device, family, index uint32) vk.Queue
	DeviceWaitIdle(vk.Device) error
	DestroyDevice(vk.Device)

	CreateSwapchain(vk.Device, *vk.SwapchainCreateInfo) (vk.Swapchain, error)
	SwapchainImages(vk.Device, vk.Swapchain) ([]vk.Image, error)
	DestroySwapchain(vk.Device, vk.Swapchain)

	CreateImageView(vk.Device, *vk.ImageViewCreateInfo) (vk.ImageView, error)
	DestroyImageView(vk.Device, vk.ImageView)

	CreateRenderPass(vk.Device, *vk.RenderPassCreateInfo) (vk.RenderPass, error)
	DestroyRenderPass(vk.Device, vk.RenderPass)

	// CreateShaderModule wraps SPIR-V bytecode, handed over unmodified.
	CreateShaderModule(vk.Device, []byte) (vk.ShaderModule, error)
	DestroyShaderModule(vk.Device, vk.ShaderModule)

	CreatePipelineLayout(vk.Device, *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error)
	DestroyPipelineLayout(vk.Device, vk.PipelineLayout)

	CreateGraphicsPipeline(vk.Device, *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error)
	DestroyPipeline(vk.Device, vk.Pipeline)
}

// VersionMajor extracts the major component of a packed Vulkan version.
func VersionMajor(version uint32) uint32 {
	return version >> 22
}

// VersionMinor extracts the minor component of a packed Vulkan version.
func VersionMinor(version uint32) uint32 {
	return (version >> 12) & 0x3ff
}

// VersionPatch extracts the patch component of a packed Vulkan version.
func VersionPatch(version uint32) uint32 {
	return version & 0xfff
}

// VersionString formats a packed Vulkan version as major.minor.patch
func VersionString(version uint32) string {
	return fmt.Sprintf("%d.%d.%d", VersionMajor(version), VersionMinor(version), VersionPatch(version))
}
