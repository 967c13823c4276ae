// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
)

// NoSuitableDeviceError is returned when no physical device
// reports the minimum API version
type NoSuitableDeviceError struct {
	// Considered is the number of devices looked at
	Considered int
}

func (e *NoSuitableDeviceError) Error() string {
	return fmt.Sprintf("no suitable device: none of %d devices supports Vulkan 1.0", e.Considered)
}

// IncompleteQueueFamiliesError is returned when the chosen device lacks
// a graphics or a present capable queue family
type IncompleteQueueFamiliesError struct {
	Device          string
	MissingGraphics bool
	MissingPresent  bool
}

func (e *IncompleteQueueFamiliesError) Error() string {
	var missing string
	switch {
	case e.MissingGraphics && e.MissingPresent:
		missing = "graphics and present"
	case e.MissingGraphics:
		missing = "graphics"
	default:
		missing = "present"
	}
	return fmt.Sprintf("incomplete queue families on %q: no %s queue family", e.Device, missing)
}

// SurfaceCreationError is returned when the platform rejects surface creation
type SurfaceCreationError struct {
	Err error
}

func (e *SurfaceCreationError) Error() string {
	return "surface creation failed: " + e.Err.Error()
}

// Unwrap returns the platform error
func (e *SurfaceCreationError) Unwrap() error {
	return e.Err
}

// Stage names an initialisation step that creates API objects
type Stage string

// Stages reported by ResourceCreationError
const (
	StageInstance       Stage = "instance"
	StageDevice         Stage = "device"
	StageSwapchain      Stage = "swapchain"
	StageImageView      Stage = "image view"
	StageRenderPass     Stage = "render pass"
	StageShaderModule   Stage = "shader module"
	StagePipelineLayout Stage = "pipeline layout"
	StagePipeline       Stage = "pipeline"
)

// ResourceCreationError is returned when the driver rejects an object
type ResourceCreationError struct {
	Stage Stage
	Err   error
}

func (e *ResourceCreationError) Error() string {
	return fmt.Sprintf("%s creation failed: %s", e.Stage, e.Err)
}

// Unwrap returns the driver error
func (e *ResourceCreationError) Unwrap() error {
	return e.Err
}

// NewResourceError tags a driver error with the stage it happened in
func NewResourceError(stage Stage, err error) error {
	return &ResourceCreationError{Stage: stage, Err: err}
}
