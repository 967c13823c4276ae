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
	"github.com/devblok/gravity/gfx/vkr/vkrtest"
	qt "github.com/frankban/quicktest"
	vk "github.com/vulkan-go/vulkan"
)

var testShaders = core.ShaderSet{
	Name:     "triangle",
	Vertex:   []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00},
	Fragment: []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00, 0x00},
}

func TestNewPipeline(t *testing.T) {
	c := qt.New(t)

	drv, ld := newLogicalDevice(c, vkrtest.DefaultDevice())
	rp, err := renderer.NewRenderPass(ld, vk.FormatB8g8r8a8Unorm)
	c.Assert(err, qt.IsNil)

	extent := vk.Extent2D{Width: 1600, Height: 1000}
	p, err := renderer.NewPipeline(ld, rp, extent, testShaders, "")
	c.Assert(err, qt.IsNil)

	// bytecode is handed over untouched, modules do not outlive creation
	c.Assert(drv.ShaderModules, qt.DeepEquals, [][]byte{testShaders.Vertex, testShaders.Fragment})
	calls := drv.CallLog()
	c.Assert(indexOf(calls, "DestroyShaderModule") > indexOf(calls, "CreateGraphicsPipeline"), qt.Equals, true)
	c.Assert(drv.Live(), qt.Equals, 4)

	c.Assert(drv.LayoutInfos, qt.HasLen, 1)
	c.Assert(drv.LayoutInfos[0].SetLayoutCount, qt.Equals, uint32(0))
	c.Assert(drv.LayoutInfos[0].PushConstantRangeCount, qt.Equals, uint32(0))

	info := drv.PipelineInfos[0]
	c.Assert(info.StageCount, qt.Equals, uint32(2))
	c.Assert(info.PStages[0].Stage, qt.Equals, vk.ShaderStageVertexBit)
	c.Assert(info.PStages[1].Stage, qt.Equals, vk.ShaderStageFragmentBit)
	c.Assert(info.PStages[0].PName, qt.Equals, "main\x00")
	c.Assert(info.PStages[1].PName, qt.Equals, "main\x00")

	c.Assert(info.PInputAssemblyState.Topology, qt.Equals, vk.PrimitiveTopologyTriangleList)
	c.Assert(info.PVertexInputState.VertexBindingDescriptionCount, qt.Equals, uint32(0))

	vp := info.PViewportState.PViewports[0]
	c.Assert(vp.Width, qt.Equals, float32(1600))
	c.Assert(vp.Height, qt.Equals, float32(1000))
	c.Assert(vp.MaxDepth, qt.Equals, float32(1))
	c.Assert(info.PViewportState.PScissors[0].Extent.Width, qt.Equals, uint32(1600))
	c.Assert(info.PViewportState.PScissors[0].Extent.Height, qt.Equals, uint32(1000))

	rs := info.PRasterizationState
	c.Assert(rs.PolygonMode, qt.Equals, vk.PolygonModeFill)
	c.Assert(rs.FrontFace, qt.Equals, vk.FrontFaceClockwise)
	c.Assert(rs.CullMode, qt.Equals, vk.CullModeFlags(vk.CullModeBackBit))
	c.Assert(rs.DepthBiasEnable, qt.Equals, vk.Bool32(vk.False))
	c.Assert(rs.LineWidth, qt.Equals, float32(1))

	c.Assert(info.PMultisampleState.RasterizationSamples, qt.Equals, vk.SampleCount1Bit)

	blend := info.PColorBlendState.PAttachments[0]
	c.Assert(blend.BlendEnable, qt.Equals, vk.Bool32(vk.False))
	c.Assert(blend.ColorWriteMask, qt.Equals, vk.ColorComponentFlags(vk.ColorComponentRBit|vk.ColorComponentGBit|vk.ColorComponentBBit|vk.ColorComponentABit))
	c.Assert(info.Subpass, qt.Equals, uint32(0))

	p.Release()
	rp.Release()
	c.Assert(drv.Live(), qt.Equals, 1)
}

func TestNewPipelineEntryPoint(t *testing.T) {
	c := qt.New(t)

	drv, ld := newLogicalDevice(c, vkrtest.DefaultDevice())
	rp, err := renderer.NewRenderPass(ld, vk.FormatB8g8r8a8Unorm)
	c.Assert(err, qt.IsNil)

	_, err = renderer.NewPipeline(ld, rp, vk.Extent2D{Width: 800, Height: 600}, testShaders, "vs_main")
	c.Assert(err, qt.IsNil)
	c.Assert(drv.PipelineInfos[0].PStages[0].PName, qt.Equals, "vs_main\x00")
}

func TestNewPipelineFailures(t *testing.T) {
	for _, test := range []struct {
		call  string
		stage core.Stage
	}{
		{"CreateShaderModule", core.StageShaderModule},
		{"CreatePipelineLayout", core.StagePipelineLayout},
		{"CreateGraphicsPipeline", core.StagePipeline},
	} {
		t.Run(test.call, func(t *testing.T) {
			c := qt.New(t)

			drv, ld := newLogicalDevice(c, vkrtest.DefaultDevice())
			rp, err := renderer.NewRenderPass(ld, vk.FormatB8g8r8a8Unorm)
			c.Assert(err, qt.IsNil)

			drv.Fail = map[string]error{test.call: errors.New("out of host memory")}
			_, err = renderer.NewPipeline(ld, rp, vk.Extent2D{Width: 800, Height: 600}, testShaders, "")

			var rce *core.ResourceCreationError
			c.Assert(errors.As(err, &rce), qt.Equals, true)
			c.Assert(rce.Stage, qt.Equals, test.stage)
			c.Assert(drv.Live(), qt.Equals, 2)
		})
	}
}

func TestNewPipelineBadBytecode(t *testing.T) {
	c := qt.New(t)

	drv, ld := newLogicalDevice(c, vkrtest.DefaultDevice())
	rp, err := renderer.NewRenderPass(ld, vk.FormatB8g8r8a8Unorm)
	c.Assert(err, qt.IsNil)

	shaders := testShaders
	shaders.Fragment = []byte{1, 2, 3}
	_, err = renderer.NewPipeline(ld, rp, vk.Extent2D{Width: 800, Height: 600}, shaders, "")
	c.Assert(err, qt.ErrorMatches, `shader module creation failed: .*`)
	c.Assert(drv.Live(), qt.Equals, 2)
}
