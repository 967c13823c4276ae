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

// RenderPass is a single subpass render pass drawing into one color attachment
type RenderPass struct {
	driver vkr.Driver
	device vk.Device

	Handle       vk.RenderPass
	Attachments  []vk.AttachmentDescription
	Subpasses    []vk.SubpassDescription
	Dependencies []vk.SubpassDependency
}

// RenderPassDescription describes the render pass for a swapchain format.
// The attachment is cleared, stored and handed over ready for presentation.
// The two external dependencies order the layout transitions against
// the presentation engine reading the image.
func RenderPassDescription(format vk.Format) ([]vk.AttachmentDescription, []vk.SubpassDescription, []vk.SubpassDependency) {
	attachments := []vk.AttachmentDescription{{
		Format:         format,
		Samples:        vk.SampleCount1Bit,
		LoadOp:         vk.AttachmentLoadOpClear,
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayoutUndefined,
		FinalLayout:    vk.ImageLayoutPresentSrc,
	}}

	subpasses := []vk.SubpassDescription{{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
	}}

	colorAccess := vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit)
	dependencies := []vk.SubpassDependency{
		{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			SrcAccessMask: vk.AccessFlags(vk.AccessMemoryReadBit),
			DstAccessMask: colorAccess,
		},
		{
			SrcSubpass:    0,
			DstSubpass:    vk.SubpassExternal,
			SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
			DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
			SrcAccessMask: colorAccess,
			DstAccessMask: vk.AccessFlags(vk.AccessMemoryReadBit),
		},
	}
	return attachments, subpasses, dependencies
}

// NewRenderPass creates the render pass for a swapchain format
func NewRenderPass(ld *device.LogicalDevice, format vk.Format) (*RenderPass, error) {
	attachments, subpasses, dependencies := RenderPassDescription(format)

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    uint32(len(subpasses)),
		PSubpasses:      subpasses,
		DependencyCount: uint32(len(dependencies)),
		PDependencies:   dependencies,
	}

	handle, err := ld.Driver().CreateRenderPass(ld.Handle, &rpci)
	if err != nil {
		return nil, core.NewResourceError(core.StageRenderPass, err)
	}

	log.WithField("format", format).Info("render pass created")
	return &RenderPass{
		driver:       ld.Driver(),
		device:       ld.Handle,
		Handle:       handle,
		Attachments:  attachments,
		Subpasses:    subpasses,
		Dependencies: dependencies,
	}, nil
}

// Release implements gfx.Releasable
func (r *RenderPass) Release() {
	r.driver.DestroyRenderPass(r.device, r.Handle)
}
