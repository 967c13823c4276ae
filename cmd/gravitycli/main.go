// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/devblok/gravity/device"
	"github.com/devblok/gravity/gfx/vkr"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

var debug = flag.Bool("vkdbg", false, "Load Vulkan validation layers")

type queueFamily struct {
	Index    uint32
	Count    uint32
	Graphics bool
	Compute  bool
	Transfer bool
}

type deviceReport struct {
	vkr.PhysicalDeviceInfo
	Type          string
	Selected      bool
	QueueFamilies []queueFamily
}

// instance is the part of vkr.Vulkan the report is built from
type instance interface {
	vkr.Driver
	DeviceInfo(vkr.PhysicalDevice) vkr.PhysicalDeviceInfo
	Destroy()
}

func main() {
	flag.Parse()

	vulkan, err := vkr.NewVulkan(vkr.DefaultApplicationInfo, nil, vkr.InstanceConfiguration{
		DebugMode: *debug,
	})
	if err != nil {
		log.WithError(err).Fatal("creating vulkan instance")
	}

	if err := run(os.Stdout, vulkan); err != nil {
		log.WithError(err).Error("device report failed")
		os.Exit(1)
	}
}

// run writes the report of every device as JSON to w and destroys inst
func run(w io.Writer, inst instance) error {
	defer inst.Destroy()

	reports, err := buildReport(inst)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(reports); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

func buildReport(inst instance) ([]deviceReport, error) {
	devices, err := inst.PhysicalDevices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}

	var selected *vkr.PhysicalDevice
	if pd, err := device.SelectFrom(devices); err == nil {
		selected = &pd
	} else {
		log.WithError(err).Warn("no device would be selected")
	}

	reports := make([]deviceReport, 0, len(devices))
	for _, pd := range devices {
		report := deviceReport{
			PhysicalDeviceInfo: inst.DeviceInfo(pd),
			Type:               deviceTypeName(pd.Type),
			Selected:           selected != nil && selected.Ordinal == pd.Ordinal,
		}
		for index, family := range inst.QueueFamilies(pd) {
			family.Deref()
			flags := vk.QueueFlagBits(family.QueueFlags)
			report.QueueFamilies = append(report.QueueFamilies, queueFamily{
				Index:    uint32(index),
				Count:    family.QueueCount,
				Graphics: flags&vk.QueueGraphicsBit != 0,
				Compute:  flags&vk.QueueComputeBit != 0,
				Transfer: flags&vk.QueueTransferBit != 0,
			})
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func deviceTypeName(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	default:
		return "other"
	}
}
