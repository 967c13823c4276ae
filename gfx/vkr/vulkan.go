// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"fmt"
	"unsafe"

	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// ValidationLayer is enabled on the instance in debug mode.
const ValidationLayer = "VK_LAYER_KHRONOS_validation"

// DefaultApplicationInfo describes the application to the Vulkan instance.
// The API version is the minimum devices are selected against.
var DefaultApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(0, 1, 0),
	PApplicationName:   SafeString("Gravity"),
	PEngineName:        SafeString("Gravity"),
}

// InstanceConfiguration is used to configure the Vulkan instance
type InstanceConfiguration struct {
	DebugMode  bool
	Extensions []string
	Layers     []string
}

// NewVulkan creates a Vulkan instance and enumerates its devices.
// procAddr is the loader entry point handed out by the windowing
// library, when nil the default system loader is used.
func NewVulkan(appInfo *vk.ApplicationInfo, procAddr unsafe.Pointer, cfg InstanceConfiguration) (*Vulkan, error) {
	if cfg.DebugMode {
		cfg.Layers = append(cfg.Layers, ValidationLayer)
		cfg.Extensions = append(cfg.Extensions, "VK_EXT_debug_report")
	}

	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.New("vk.SetDefaultGetInstanceProcAddr(): " + err.Error())
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.New("vk.Init(): " + err.Error())
	}

	/* Create instance */
	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(cfg.Extensions)),
		PpEnabledExtensionNames: SafeStrings(cfg.Extensions),
		EnabledLayerCount:       uint32(len(cfg.Layers)),
		PpEnabledLayerNames:     SafeStrings(cfg.Layers),
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, errors.New("vk.CreateInstance(): " + err.Error())
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, errors.New("vk.InitInstance(): " + err.Error())
	}

	/* Enumerate devices */
	physicalDevices, err := enumerateDevices(instance)
	if err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, errors.New("vkr.enumerateDevices(): " + err.Error())
	}

	log.WithFields(log.Fields{
		"extensions": cfg.Extensions,
		"layers":     cfg.Layers,
		"devices":    len(physicalDevices),
	}).Debug("Vulkan instance created")

	return &Vulkan{
		configuration:    cfg,
		instance:         instance,
		availableDevices: physicalDevices,
	}, nil
}

// Vulkan is the Driver backed by the system Vulkan loader.
type Vulkan struct {
	configuration InstanceConfiguration

	availableDevices []vk.PhysicalDevice
	instance         vk.Instance
}

func enumerateDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	availableDevices := make([]vk.PhysicalDevice, deviceCount)
	if deviceCount == 0 {
		return availableDevices, nil
	}
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, availableDevices)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	return availableDevices[:deviceCount], nil
}

// Instance returns internal vk.Instance
func (v *Vulkan) Instance() interface{} {
	return v.instance
}

// Extensions returns the enabled instance extensions
func (v *Vulkan) Extensions() []string {
	return v.configuration.Extensions
}

// PhysicalDevices implements Driver
func (v *Vulkan) PhysicalDevices() ([]PhysicalDevice, error) {
	devices := make([]PhysicalDevice, len(v.availableDevices))
	for idx, handle := range v.availableDevices {
		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(handle, &properties)
		properties.Deref()

		devices[idx] = PhysicalDevice{
			Handle:        handle,
			Ordinal:       idx,
			Name:          vk.ToString(properties.DeviceName[:]),
			APIVersion:    properties.ApiVersion,
			DriverVersion: properties.DriverVersion,
			VendorID:      properties.VendorID,
			DeviceID:      properties.DeviceID,
			Type:          properties.DeviceType,
		}
	}
	return devices, nil
}

// DeviceInfo extends an enumerated device with its extensions, layers and
// total heap memory. Invalid is set when any of them could not be queried.
func (v *Vulkan) DeviceInfo(device PhysicalDevice) PhysicalDeviceInfo {
	info := PhysicalDeviceInfo{PhysicalDevice: device}

	extensions, err := deviceExtensions(device.Handle)
	if err != nil {
		log.WithError(err).WithField("device", device.Name).Warn("device extensions unavailable")
		info.Invalid = true
	}
	info.Extensions = extensions

	layers, err := deviceLayers(device.Handle)
	if err != nil {
		log.WithError(err).WithField("device", device.Name).Warn("device layers unavailable")
		info.Invalid = true
	}
	info.Layers = layers

	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(device.Handle, &memoryProperties)
	memoryProperties.Deref()
	for idx := uint32(0); idx < memoryProperties.MemoryHeapCount; idx++ {
		heap := memoryProperties.MemoryHeaps[idx]
		heap.Deref()
		info.Memory += uint64(heap.Size)
	}
	return info
}

func deviceExtensions(handle vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(handle, "", &count, nil)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceExtensionProperties(): " + err.Error())
	}
	properties := make([]vk.ExtensionProperties, count)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(handle, "", &count, properties)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceExtensionProperties(): " + err.Error())
	}

	names := make([]string, 0, count)
	for _, ext := range properties[:count] {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

func deviceLayers(handle vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(handle, &count, nil)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceLayerProperties(): " + err.Error())
	}
	properties := make([]vk.LayerProperties, count)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(handle, &count, properties)); err != nil {
		return nil, errors.New("vk.EnumerateDeviceLayerProperties(): " + err.Error())
	}

	names := make([]string, 0, count)
	for _, layer := range properties[:count] {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// QueueFamilies implements Driver
func (v *Vulkan) QueueFamilies(device PhysicalDevice) []vk.QueueFamilyProperties {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device.Handle, &queueFamilyCount, nil)
	if queueFamilyCount == 0 {
		return nil
	}

	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device.Handle, &queueFamilyCount, queueFamilies)
	for idx := range queueFamilies {
		queueFamilies[idx].Deref()
	}
	return queueFamilies[:queueFamilyCount]
}

// SurfaceSupport implements Driver
func (v *Vulkan) SurfaceSupport(device PhysicalDevice, family uint32, surface vk.Surface) (bool, error) {
	var supported vk.Bool32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceSupport(device.Handle, family, surface, &supported)); err != nil {
		return false, errors.New("vk.GetPhysicalDeviceSurfaceSupport(): " + err.Error())
	}
	return supported.B(), nil
}

// SurfaceCapabilities implements Driver
func (v *Vulkan) SurfaceCapabilities(device PhysicalDevice, surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var surfaceCapabilities vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(device.Handle, surface, &surfaceCapabilities)); err != nil {
		return vk.SurfaceCapabilities{}, errors.New("vk.GetPhysicalDeviceSurfaceCapabilities(): " + err.Error())
	}
	surfaceCapabilities.Deref()
	surfaceCapabilities.CurrentExtent.Deref()
	surfaceCapabilities.MinImageExtent.Deref()
	surfaceCapabilities.MaxImageExtent.Deref()
	return surfaceCapabilities, nil
}

// SurfaceFormats implements Driver
func (v *Vulkan) SurfaceFormats(device PhysicalDevice, surface vk.Surface) ([]vk.SurfaceFormat, error) {
	var surfaceFormatCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(device.Handle, surface, &surfaceFormatCount, nil)); err != nil {
		return nil, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	if surfaceFormatCount == 0 {
		return nil, nil
	}

	surfaceFormats := make([]vk.SurfaceFormat, surfaceFormatCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(device.Handle, surface, &surfaceFormatCount, surfaceFormats)); err != nil {
		return nil, errors.New("vk.GetPhysicalDeviceSurfaceFormats(): " + err.Error())
	}
	for idx := range surfaceFormats {
		surfaceFormats[idx].Deref()
	}
	return surfaceFormats[:surfaceFormatCount], nil
}

// SurfacePresentModes implements Driver
func (v *Vulkan) SurfacePresentModes(device PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, error) {
	var presentModeCount uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(device.Handle, surface, &presentModeCount, nil)); err != nil {
		return nil, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}
	if presentModeCount == 0 {
		return nil, nil
	}

	presentModes := make([]vk.PresentMode, presentModeCount)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(device.Handle, surface, &presentModeCount, presentModes)); err != nil {
		return nil, errors.New("vk.GetPhysicalDeviceSurfacePresentModes(): " + err.Error())
	}
	return presentModes[:presentModeCount], nil
}

// CreateDevice implements Driver
func (v *Vulkan) CreateDevice(device PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error) {
	var vkDevice vk.Device
	if err := vk.Error(vk.CreateDevice(device.Handle, info, nil, &vkDevice)); err != nil {
		return nil, errors.New("vk.CreateDevice(): " + err.Error())
	}
	return vkDevice, nil
}

// DeviceQueue implements Driver
func (v *Vulkan) DeviceQueue(device vk.Device, family, index uint32) vk.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(device, family, index, &queue)
	return queue
}

// DeviceWaitIdle implements Driver
func (v *Vulkan) DeviceWaitIdle(device vk.Device) error {
	if err := vk.Error(vk.DeviceWaitIdle(device)); err != nil {
		return errors.New("vk.DeviceWaitIdle(): " + err.Error())
	}
	return nil
}

// DestroyDevice implements Driver
func (v *Vulkan) DestroyDevice(device vk.Device) {
	vk.DestroyDevice(device, nil)
}

// CreateSwapchain implements Driver
func (v *Vulkan) CreateSwapchain(device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(device, info, nil, &swapchain)); err != nil {
		return nil, errors.New("vk.CreateSwapchain(): " + err.Error())
	}
	return swapchain, nil
}

// SwapchainImages implements Driver
func (v *Vulkan) SwapchainImages(device vk.Device, swapchain vk.Swapchain) ([]vk.Image, error) {
	var numImages uint32
	if err := vk.Error(vk.GetSwapchainImages(device, swapchain, &numImages, nil)); err != nil {
		return nil, errors.New("vk.GetSwapchainImages(num): " + err.Error())
	}

	images := make([]vk.Image, numImages)
	if err := vk.Error(vk.GetSwapchainImages(device, swapchain, &numImages, images)); err != nil {
		return nil, errors.New("vk.GetSwapchainImages(images): " + err.Error())
	}
	return images[:numImages], nil
}

// DestroySwapchain implements Driver
func (v *Vulkan) DestroySwapchain(device vk.Device, swapchain vk.Swapchain) {
	vk.DestroySwapchain(device, swapchain, nil)
}

// CreateImageView implements Driver
func (v *Vulkan) CreateImageView(device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	var imageView vk.ImageView
	if err := vk.Error(vk.CreateImageView(device, info, nil, &imageView)); err != nil {
		return nil, errors.New("vk.CreateImageView(): " + err.Error())
	}
	return imageView, nil
}

// DestroyImageView implements Driver
func (v *Vulkan) DestroyImageView(device vk.Device, view vk.ImageView) {
	vk.DestroyImageView(device, view, nil)
}

// CreateRenderPass implements Driver
func (v *Vulkan) CreateRenderPass(device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	var renderPass vk.RenderPass
	if err := vk.Error(vk.CreateRenderPass(device, info, nil, &renderPass)); err != nil {
		return nil, errors.New("vk.CreateRenderPass(): " + err.Error())
	}
	return renderPass, nil
}

// DestroyRenderPass implements Driver
func (v *Vulkan) DestroyRenderPass(device vk.Device, renderPass vk.RenderPass) {
	vk.DestroyRenderPass(device, renderPass, nil)
}

// CreateShaderModule implements Driver
func (v *Vulkan) CreateShaderModule(device vk.Device, code []byte) (vk.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, fmt.Errorf("vk.CreateShaderModule(): bytecode size %d is not a multiple of 4", len(code))
	}

	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    SliceUint32(code),
	}

	var shader vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(device, &smci, nil, &shader)); err != nil {
		return nil, errors.New("vk.CreateShaderModule(): " + err.Error())
	}
	return shader, nil
}

// DestroyShaderModule implements Driver
func (v *Vulkan) DestroyShaderModule(device vk.Device, shader vk.ShaderModule) {
	vk.DestroyShaderModule(device, shader, nil)
}

// CreatePipelineLayout implements Driver
func (v *Vulkan) CreatePipelineLayout(device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	var pipelineLayout vk.PipelineLayout
	if err := vk.Error(vk.CreatePipelineLayout(device, info, nil, &pipelineLayout)); err != nil {
		return nil, errors.New("vk.CreatePipelineLayout(): " + err.Error())
	}
	return pipelineLayout, nil
}

// DestroyPipelineLayout implements Driver
func (v *Vulkan) DestroyPipelineLayout(device vk.Device, layout vk.PipelineLayout) {
	vk.DestroyPipelineLayout(device, layout, nil)
}

// CreateGraphicsPipeline implements Driver
func (v *Vulkan) CreateGraphicsPipeline(device vk.Device, info *vk.GraphicsPipelineCreateInfo) (vk.Pipeline, error) {
	pipelines := make([]vk.Pipeline, 1)
	if err := vk.Error(vk.CreateGraphicsPipelines(device, vk.PipelineCache(vk.NullHandle), 1, []vk.GraphicsPipelineCreateInfo{*info}, nil, pipelines)); err != nil {
		return nil, errors.New("vk.CreateGraphicsPipelines(): " + err.Error())
	}
	return pipelines[0], nil
}

// DestroyPipeline implements Driver
func (v *Vulkan) DestroyPipeline(device vk.Device, pipeline vk.Pipeline) {
	vk.DestroyPipeline(device, pipeline, nil)
}

// DestroySurface destroys a surface created for this instance
func (v *Vulkan) DestroySurface(surface vk.Surface) {
	vk.DestroySurface(v.instance, surface, nil)
}

// Destroy destroys the instance, every object created from it
// must have been destroyed before.
func (v *Vulkan) Destroy() {
	v.availableDevices = nil
	vk.DestroyInstance(v.instance, nil)
}
