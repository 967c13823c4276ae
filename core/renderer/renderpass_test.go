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

func TestRenderPassDescription(t *testing.T) {
	c := qt.New(t)

	attachments, subpasses, dependencies := renderer.RenderPassDescription(vk.FormatB8g8r8a8Unorm)

	c.Assert(attachments, qt.HasLen, 1)
	a := attachments[0]
	c.Assert(a.Format, qt.Equals, vk.FormatB8g8r8a8Unorm)
	c.Assert(a.Samples, qt.Equals, vk.SampleCount1Bit)
	c.Assert(a.LoadOp, qt.Equals, vk.AttachmentLoadOpClear)
	c.Assert(a.StoreOp, qt.Equals, vk.AttachmentStoreOpStore)
	c.Assert(a.InitialLayout, qt.Equals, vk.ImageLayoutUndefined)
	c.Assert(a.FinalLayout, qt.Equals, vk.ImageLayoutPresentSrc)

	c.Assert(subpasses, qt.HasLen, 1)
	s := subpasses[0]
	c.Assert(s.PipelineBindPoint, qt.Equals, vk.PipelineBindPointGraphics)
	c.Assert(s.ColorAttachmentCount, qt.Equals, uint32(1))
	c.Assert(s.PColorAttachments[0].Attachment, qt.Equals, uint32(0))
	c.Assert(s.PColorAttachments[0].Layout, qt.Equals, vk.ImageLayoutColorAttachmentOptimal)
	c.Assert(s.PDepthStencilAttachment == nil, qt.Equals, true)

	colorAccess := vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit)
	c.Assert(dependencies, qt.HasLen, 2)
	in, out := dependencies[0], dependencies[1]
	c.Assert(in.SrcSubpass, qt.Equals, uint32(vk.SubpassExternal))
	c.Assert(in.DstSubpass, qt.Equals, uint32(0))
	c.Assert(in.SrcStageMask, qt.Equals, vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit))
	c.Assert(in.DstStageMask, qt.Equals, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit))
	c.Assert(in.SrcAccessMask, qt.Equals, vk.AccessFlags(vk.AccessMemoryReadBit))
	c.Assert(in.DstAccessMask, qt.Equals, colorAccess)

	c.Assert(out.SrcSubpass, qt.Equals, uint32(0))
	c.Assert(out.DstSubpass, qt.Equals, uint32(vk.SubpassExternal))
	c.Assert(out.SrcStageMask, qt.Equals, in.DstStageMask)
	c.Assert(out.DstStageMask, qt.Equals, in.SrcStageMask)
	c.Assert(out.SrcAccessMask, qt.Equals, colorAccess)
	c.Assert(out.DstAccessMask, qt.Equals, vk.AccessFlags(vk.AccessMemoryReadBit))
}

func TestNewRenderPass(t *testing.T) {
	c := qt.New(t)

	drv, ld := newLogicalDevice(c, vkrtest.DefaultDevice())
	rp, err := renderer.NewRenderPass(ld, vk.FormatR8g8b8a8Unorm)
	c.Assert(err, qt.IsNil)
	c.Assert(rp.Dependencies, qt.HasLen, 2)

	c.Assert(drv.RenderPassInfos, qt.HasLen, 1)
	info := drv.RenderPassInfos[0]
	c.Assert(info.AttachmentCount, qt.Equals, uint32(1))
	c.Assert(info.SubpassCount, qt.Equals, uint32(1))
	c.Assert(info.DependencyCount, qt.Equals, uint32(2))
	c.Assert(info.PAttachments[0].Format, qt.Equals, vk.FormatR8g8b8a8Unorm)

	rp.Release()
	c.Assert(drv.Live(), qt.Equals, 1)
}

func TestNewRenderPassRejected(t *testing.T) {
	c := qt.New(t)

	drv, ld := newLogicalDevice(c, vkrtest.DefaultDevice())
	drv.Fail = map[string]error{"CreateRenderPass": nil}

	_, err := renderer.NewRenderPass(ld, vk.FormatR8g8b8a8Unorm)
	var rce *core.ResourceCreationError
	c.Assert(errors.As(err, &rce), qt.Equals, true)
	c.Assert(rce.Stage, qt.Equals, core.StageRenderPass)
}
