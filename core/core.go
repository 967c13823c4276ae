// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core holds what the rendering context stages share:
// configuration, the window surface contract, shader sources and errors.
package core

import (
	vk "github.com/vulkan-go/vulkan"
)

// SurfaceProvider owns the native window the rendering context draws into.
type SurfaceProvider interface {
	// RequiredExtensions returns the instance extensions
	// the platform needs to create a surface
	RequiredExtensions() []string

	// CreateSurface creates a drawable surface for the given
	// instance, the instance is the inner handle of the API
	CreateSurface(instance interface{}) (vk.Surface, error)

	// DrawableSize returns the size of the drawable area in pixels
	DrawableSize() (width, height int32)
}

// ShaderType represents the type of shader thats loaded
type ShaderType int

// Identifies shader objects with their types
const (
	VertexShaderType ShaderType = iota
	FragmentShaderType
	UnknownShaderType
)

func (s ShaderType) String() string {
	switch s {
	case VertexShaderType:
		return "vert"
	case FragmentShaderType:
		return "frag"
	default:
		return "unknown"
	}
}

// CreateSurface asks the provider for a surface bound to instance
func CreateSurface(provider SurfaceProvider, instance interface{}) (vk.Surface, error) {
	surface, err := provider.CreateSurface(instance)
	if err != nil {
		return nil, &SurfaceCreationError{Err: err}
	}
	return surface, nil
}
