// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device picks the physical device to render with, resolves its
// queue families and creates the logical device.
package device

import (
	"fmt"

	"github.com/devblok/gravity/core"
	"github.com/devblok/gravity/gfx/vkr"
	log "github.com/sirupsen/logrus"
)

// MinimumAPIMajor is the lowest API major version a device may report
const MinimumAPIMajor = 1

// Select enumerates the devices of the driver and picks one with SelectFrom
func Select(drv vkr.Driver) (vkr.PhysicalDevice, error) {
	devices, err := drv.PhysicalDevices()
	if err != nil {
		return vkr.PhysicalDevice{}, fmt.Errorf("enumerating physical devices: %w", err)
	}
	return SelectFrom(devices)
}

// SelectFrom returns the first device in enumeration order that supports
// the minimum API version. Devices are not ranked.
func SelectFrom(devices []vkr.PhysicalDevice) (vkr.PhysicalDevice, error) {
	for _, pd := range devices {
		if vkr.VersionMajor(pd.APIVersion) >= MinimumAPIMajor {
			log.WithFields(log.Fields{
				"device":  pd.Name,
				"ordinal": pd.Ordinal,
				"api":     vkr.VersionString(pd.APIVersion),
			}).Info("physical device selected")
			return pd, nil
		}
		log.WithField("device", pd.String()).Debug("physical device skipped")
	}
	return vkr.PhysicalDevice{}, &core.NoSuitableDeviceError{Considered: len(devices)}
}
