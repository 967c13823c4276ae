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

// Pipeline is a graphics pipeline with its layout
type Pipeline struct {
	driver vkr.Driver
	device vk.Device

	Layout vk.PipelineLayout
	Handle vk.Pipeline
}

// NewPipeline creates the fixed function graphics pipeline for the render pass.
// Shader modules only live while the pipeline is being created.
func NewPipeline(ld *device.LogicalDevice, renderPass *RenderPass, extent vk.Extent2D, shaders core.ShaderSet, entryPoint string) (*Pipeline, error) {
	drv := ld.Driver()
	if entryPoint == "" {
		entryPoint = DefaultEntryPoint
	}

	vertexShader, err := drv.CreateShaderModule(ld.Handle, shaders.Vertex)
	if err != nil {
		return nil, core.NewResourceError(core.StageShaderModule, err)
	}
	defer drv.DestroyShaderModule(ld.Handle, vertexShader)

	fragmentShader, err := drv.CreateShaderModule(ld.Handle, shaders.Fragment)
	if err != nil {
		return nil, core.NewResourceError(core.StageShaderModule, err)
	}
	defer drv.DestroyShaderModule(ld.Handle, fragmentShader)

	plci := vk.PipelineLayoutCreateInfo{
		SType: vk.StructureTypePipelineLayoutCreateInfo,
	}
	layout, err := drv.CreatePipelineLayout(ld.Handle, &plci)
	if err != nil {
		return nil, core.NewResourceError(core.StagePipelineLayout, err)
	}

	stages := []vk.PipelineShaderStageCreateInfo{
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageVertexBit,
			Module: vertexShader,
			PName:  vkr.SafeString(entryPoint),
		},
		{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFragmentBit,
			Module: fragmentShader,
			PName:  vkr.SafeString(entryPoint),
		},
	}

	gpci := vk.GraphicsPipelineCreateInfo{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               vk.PrimitiveTopologyTriangleList,
			PrimitiveRestartEnable: vk.False,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			PViewports: []vk.Viewport{{
				X:        0,
				Y:        0,
				Width:    float32(extent.Width),
				Height:   float32(extent.Height),
				MinDepth: 0,
				MaxDepth: 1,
			}},
			ScissorCount: 1,
			PScissors: []vk.Rect2D{{
				Offset: vk.Offset2D{X: 0, Y: 0},
				Extent: extent,
			}},
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
			DepthClampEnable:        vk.False,
			RasterizerDiscardEnable: vk.False,
			PolygonMode:             vk.PolygonModeFill,
			CullMode:                vk.CullModeFlags(vk.CullModeBackBit),
			FrontFace:               vk.FrontFaceClockwise,
			DepthBiasEnable:         vk.False,
			LineWidth:               1,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
			SampleShadingEnable:  vk.False,
			MinSampleShading:     1,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			LogicOpEnable:   vk.False,
			LogicOp:         vk.LogicOpCopy,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				BlendEnable:         vk.False,
				SrcColorBlendFactor: vk.BlendFactorOne,
				DstColorBlendFactor: vk.BlendFactorZero,
				ColorBlendOp:        vk.BlendOpAdd,
				SrcAlphaBlendFactor: vk.BlendFactorOne,
				DstAlphaBlendFactor: vk.BlendFactorZero,
				AlphaBlendOp:        vk.BlendOpAdd,
				ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
					vk.ColorComponentBBit | vk.ColorComponentABit),
			}},
		},
		Layout:            layout,
		RenderPass:        renderPass.Handle,
		Subpass:           0,
		BasePipelineIndex: -1,
	}

	pipeline, err := drv.CreateGraphicsPipeline(ld.Handle, &gpci)
	if err != nil {
		drv.DestroyPipelineLayout(ld.Handle, layout)
		return nil, core.NewResourceError(core.StagePipeline, err)
	}

	log.WithFields(log.Fields{
		"shader": shaders.Name,
		"entry":  entryPoint,
		"width":  extent.Width,
		"height": extent.Height,
	}).Info("graphics pipeline created")
	return &Pipeline{
		driver: drv,
		device: ld.Handle,
		Layout: layout,
		Handle: pipeline,
	}, nil
}

// Release implements gfx.Releasable
func (p *Pipeline) Release() {
	p.driver.DestroyPipeline(p.device, p.Handle)
	p.driver.DestroyPipelineLayout(p.device, p.Layout)
}
