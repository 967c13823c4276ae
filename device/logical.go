// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"github.com/devblok/gravity/core"
	"github.com/devblok/gravity/gfx/vkr"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// QueuePriority is the priority of every requested queue
const QueuePriority float32 = 1.0

// LogicalDevice is a created device together with its queues
type LogicalDevice struct {
	driver vkr.Driver

	Physical vkr.PhysicalDevice
	Handle   vk.Device
	Indices  QueueFamilyIndices

	// GraphicsQueue and PresentQueue are the same queue
	// when the families coincide
	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue
}

// NewLogicalDevice creates a logical device with one queue per unique
// family, enabling the swapchain extension and any extra extensions given.
func NewLogicalDevice(drv vkr.Driver, pd vkr.PhysicalDevice, indices QueueFamilyIndices, extensions ...string) (*LogicalDevice, error) {
	if !indices.IsComplete() {
		return nil, &core.IncompleteQueueFamiliesError{
			Device:          pd.Name,
			MissingGraphics: !indices.Graphics.IsSet(),
			MissingPresent:  !indices.Present.IsSet(),
		}
	}

	unique := indices.UniqueIndices()
	queueInfos := make([]vk.DeviceQueueCreateInfo, len(unique))
	for idx, family := range unique {
		queueInfos[idx] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{QueuePriority},
		}
	}

	deviceExtensions := DeviceExtensions(extensions...)
	deviceInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: deviceExtensions,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{{}},
	}

	handle, err := drv.CreateDevice(pd, &deviceInfo)
	if err != nil {
		return nil, core.NewResourceError(core.StageDevice, err)
	}

	graphics, _ := indices.Graphics.Get()
	present, _ := indices.Present.Get()
	ld := &LogicalDevice{
		driver:        drv,
		Physical:      pd,
		Handle:        handle,
		Indices:       indices,
		GraphicsQueue: drv.DeviceQueue(handle, graphics, 0),
		PresentQueue:  drv.DeviceQueue(handle, present, 0),
	}

	log.WithFields(log.Fields{
		"device":     pd.Name,
		"queues":     unique,
		"extensions": len(deviceExtensions),
	}).Info("logical device created")
	return ld, nil
}

// DeviceExtensions returns the NUL terminated extension names to enable,
// the swapchain extension first and without duplicates
func DeviceExtensions(extra ...string) []string {
	extensions := []string{vkr.SafeString(vk.KhrSwapchainExtensionName)}
	seen := map[string]bool{extensions[0]: true}
	for _, ext := range vkr.SafeStrings(extra) {
		if !seen[ext] {
			seen[ext] = true
			extensions = append(extensions, ext)
		}
	}
	return extensions
}

// Driver returns the driver the device was created with
func (d *LogicalDevice) Driver() vkr.Driver {
	return d.driver
}

// WaitIdle blocks until the device has no work in flight
func (d *LogicalDevice) WaitIdle() error {
	return d.driver.DeviceWaitIdle(d.Handle)
}

// Release implements gfx.Releasable
func (d *LogicalDevice) Release() {
	d.driver.DestroyDevice(d.Handle)
	d.GraphicsQueue = nil
	d.PresentQueue = nil
}
