// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import (
	"strconv"

	"github.com/devblok/gravity/gfx/vkr"
	log "github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"
)

// Index is an optional queue family index. The zero value is unset.
type Index struct {
	value uint32
	set   bool
}

// Unset is the absent index
var Unset = Index{}

// IndexOf returns a set index
func IndexOf(n uint32) Index {
	return Index{value: n, set: true}
}

// Get returns the index and whether it is set
func (i Index) Get() (uint32, bool) {
	return i.value, i.set
}

// IsSet reports whether the index holds a value
func (i Index) IsSet() bool {
	return i.set
}

func (i Index) String() string {
	if !i.set {
		return "unset"
	}
	return strconv.FormatUint(uint64(i.value), 10)
}

// QueueFamilyIndices holds the families used for drawing and presentation
type QueueFamilyIndices struct {
	Graphics Index
	Present  Index
}

// IsComplete is true when both families are known
func (q QueueFamilyIndices) IsComplete() bool {
	return q.Graphics.IsSet() && q.Present.IsSet()
}

// UniqueIndices returns the distinct set indices, graphics first
func (q QueueFamilyIndices) UniqueIndices() []uint32 {
	var unique []uint32
	if g, ok := q.Graphics.Get(); ok {
		unique = append(unique, g)
	}
	if p, ok := q.Present.Get(); ok && (len(unique) == 0 || unique[0] != p) {
		unique = append(unique, p)
	}
	return unique
}

// ResolveQueueFamilies scans families in index order and keeps the first
// graphics capable family and, independently, the first family that
// supportsPresent accepts. Once set an index is never replaced, the scan
// stops as soon as both are known.
func ResolveQueueFamilies(families []vk.QueueFamilyProperties, supportsPresent func(family uint32) bool) QueueFamilyIndices {
	var indices QueueFamilyIndices
	for idx, family := range families {
		i := uint32(idx)

		if !indices.Graphics.IsSet() && vk.QueueFlagBits(family.QueueFlags)&vk.QueueGraphicsBit != 0 {
			indices.Graphics = IndexOf(i)
		}

		if !indices.Present.IsSet() && supportsPresent(i) {
			indices.Present = IndexOf(i)
		}

		if indices.IsComplete() {
			break
		}
	}
	return indices
}

// FindQueueFamilies resolves the queue families of a device for the surface.
// A failed present support query counts as no support.
func FindQueueFamilies(drv vkr.Driver, pd vkr.PhysicalDevice, surface vk.Surface) QueueFamilyIndices {
	families := drv.QueueFamilies(pd)
	indices := ResolveQueueFamilies(families, func(family uint32) bool {
		supported, err := drv.SurfaceSupport(pd, family, surface)
		if err != nil {
			log.WithFields(log.Fields{
				"device": pd.Name,
				"family": family,
			}).WithError(err).Warn("present support query failed")
			return false
		}
		return supported
	})

	log.WithFields(log.Fields{
		"device":   pd.Name,
		"families": len(families),
		"graphics": indices.Graphics.String(),
		"present":  indices.Present.String(),
	}).Debug("queue families resolved")
	return indices
}
