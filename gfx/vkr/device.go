// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"fmt"
	"sync"

	vk "github.com/devblok/vulkan"

	"github.com/devblok/texel/gfx"
)

// DeviceConfiguration configures logical device creation.
type DeviceConfiguration struct {

	// DeviceIndex selects the physical device from the instance.
	DeviceIndex int

	// Extensions lists additional logical device extensions.
	Extensions []string
}

// NewDevice creates a logical device with transfer capability on
// the selected physical device, along with the command pool and
// allocator texture uploads need.
func NewDevice(instance *Instance, cfg DeviceConfiguration) (*Device, error) {
	available := instance.AvailableDevices()
	if cfg.DeviceIndex < 0 || cfg.DeviceIndex >= len(available) {
		return nil, fmt.Errorf("device index %d out of range, %d available", cfg.DeviceIndex, len(available))
	}
	physicalDevice := available[cfg.DeviceIndex]

	queueIndex, err := findQueueFamily(physicalDevice)
	if err != nil {
		return nil, err
	}

	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: queueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1, 0},
	}}

	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(cfg.Extensions)),
		PpEnabledExtensionNames: safeStrings(cfg.Extensions),
	}

	var logicalDevice vk.Device
	if err := vk.Error(vk.CreateDevice(physicalDevice, &dci, nil, &logicalDevice)); err != nil {
		return nil, errors.New("vk.CreateDevice(): " + err.Error())
	}

	var queue vk.Queue
	vk.GetDeviceQueue(logicalDevice, queueIndex, 0, &queue)

	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: queueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var commandPool vk.CommandPool
	if err := vk.Error(vk.CreateCommandPool(logicalDevice, &cpci, nil, &commandPool)); err != nil {
		vk.DestroyDevice(logicalDevice, nil)
		return nil, errors.New("vk.CreateCommandPool(): " + err.Error())
	}

	allocator, err := NewMemoryAllocator(logicalDevice, physicalDevice)
	if err != nil {
		vk.DestroyCommandPool(logicalDevice, commandPool, nil)
		vk.DestroyDevice(logicalDevice, nil)
		return nil, err
	}

	return &Device{
		physicalDevice: physicalDevice,
		logicalDevice:  logicalDevice,
		queue:          queue,
		queueIndex:     queueIndex,
		commandPool:    commandPool,
		allocator:      allocator,
	}, nil
}

// Device implements gfx.Device on top of a vulkan logical device.
// Creation calls may run concurrently; queue submission and command
// pool use are serialized internally.
type Device struct {
	physicalDevice vk.PhysicalDevice
	logicalDevice  vk.Device
	queue          vk.Queue
	queueIndex     uint32
	commandPool    vk.CommandPool
	allocator      *MemoryAllocator

	submitMu sync.Mutex
}

// Get returns the vulkan logical device handle.
func (d *Device) Get() vk.Device {
	return d.logicalDevice
}

// Allocator returns the device memory allocator.
func (d *Device) Allocator() *MemoryAllocator {
	return d.allocator
}

// FormatSupport implements gfx.Device. Capabilities are read from the
// optimal-tiling feature set, since images are created with optimal
// tiling.
func (d *Device) FormatSupport(format gfx.Format) (gfx.FormatFeatures, error) {
	native, err := nativeFormat(format)
	if err != nil {
		return 0, err
	}

	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.physicalDevice, native, &props)
	props.Deref()

	var features gfx.FormatFeatures
	tiling := props.OptimalTilingFeatures
	if tiling&vk.FormatFeatureFlags(vk.FormatFeatureSampledImageBit) != 0 {
		features |= gfx.FormatFeatureSampledImage2D
	}
	if tiling&vk.FormatFeatureFlags(vk.FormatFeatureTransferSrcBit) != 0 {
		features |= gfx.FormatFeatureTransferSrc
	}
	if tiling&vk.FormatFeatureFlags(vk.FormatFeatureTransferDstBit) != 0 {
		features |= gfx.FormatFeatureTransferDst
	}
	return features, nil
}

// CreateTexture2D implements gfx.Device. Pixel data goes through a
// host-visible staging buffer into a device-local, optimally tiled
// image, which ends in the shader-read-only layout.
func (d *Device) CreateTexture2D(desc gfx.TextureDesc, data []byte) (gfx.Texture, error) {
	native, err := nativeFormat(desc.Format)
	if err != nil {
		return nil, err
	}

	packed, err := packRows(desc, data)
	if err != nil {
		return nil, err
	}

	staging, err := NewBuffer(d.logicalDevice, uint(len(packed)), vk.BufferUsageTransferSrcBit, vk.SharingModeExclusive, d.allocator)
	if err != nil {
		return nil, err
	}
	defer staging.Release()
	staging.Mem().Write(packed)

	image, err := NewImage(d.logicalDevice, native, desc.Width, desc.Height, d.allocator)
	if err != nil {
		return nil, err
	}

	if err := d.upload(&staging, &image, desc.Width, desc.Height); err != nil {
		image.Release()
		return nil, err
	}

	return &Texture{
		device: d.logicalDevice,
		image:  image,
		width:  desc.Width,
		height: desc.Height,
	}, nil
}

// CreateView implements gfx.Device.
func (d *Device) CreateView(tex gfx.Texture) (gfx.TextureView, error) {
	native, ok := tex.(*Texture)
	if !ok {
		return nil, errors.New("texture was not created by this backend")
	}

	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    native.image.Get(),
		ViewType: vk.ImageViewType2d,
		Format:   native.image.Format(),
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(d.logicalDevice, &ivci, nil, &view)); err != nil {
		return nil, fmt.Errorf("vk.CreateImageView(): %s", err.Error())
	}
	return &TextureView{
		device: d.logicalDevice,
		view:   view,
	}, nil
}

// Release implements gfx.Releasable. The caller must have released
// every texture and view created from this device.
func (d *Device) Release() {
	vk.DeviceWaitIdle(d.logicalDevice)
	vk.DestroyCommandPool(d.logicalDevice, d.commandPool, nil)
	vk.DestroyDevice(d.logicalDevice, nil)
}

// upload records the layout transitions and the buffer-to-image copy
// into a single one-time command buffer and submits it.
func (d *Device) upload(staging *Buffer, image *Image, width, height uint32) error {
	d.submitMu.Lock()
	defer d.submitMu.Unlock()

	cmd, err := d.beginSingleTimeCommands()
	if err != nil {
		return err
	}

	recordTransition(cmd, image.Get(), vk.ImageLayoutUndefined, vk.ImageLayoutTransferDstOptimal)

	bic := vk.BufferImageCopy{
		ImageOffset: vk.Offset3D{},
		ImageExtent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vk.CmdCopyBufferToImage(cmd, staging.Get(), image.Get(), vk.ImageLayoutTransferDstOptimal, 1, []vk.BufferImageCopy{bic})

	recordTransition(cmd, image.Get(), vk.ImageLayoutTransferDstOptimal, vk.ImageLayoutShaderReadOnlyOptimal)

	return d.endSingleTimeCommands(cmd)
}

func (d *Device) beginSingleTimeCommands() (vk.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        d.commandPool,
		CommandBufferCount: 1,
	}

	commandBuffers := make([]vk.CommandBuffer, 1)
	if err := vk.Error(vk.AllocateCommandBuffers(d.logicalDevice, &cbai, commandBuffers)); err != nil {
		return nil, fmt.Errorf("vk.AllocateCommandBuffers(): %s", err.Error())
	}
	commandBuffer := commandBuffers[0]

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}

	if err := vk.Error(vk.BeginCommandBuffer(commandBuffer, &cbbi)); err != nil {
		vk.FreeCommandBuffers(d.logicalDevice, d.commandPool, 1, []vk.CommandBuffer{commandBuffer})
		return nil, fmt.Errorf("vk.BeginCommandBuffer(): %s", err.Error())
	}

	return commandBuffer, nil
}

func (d *Device) endSingleTimeCommands(commandBuffer vk.CommandBuffer) error {
	defer vk.FreeCommandBuffers(d.logicalDevice, d.commandPool, 1, []vk.CommandBuffer{commandBuffer})

	if err := vk.Error(vk.EndCommandBuffer(commandBuffer)); err != nil {
		return fmt.Errorf("vk.EndCommandBuffer(): %s", err.Error())
	}

	si := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{commandBuffer},
	}

	if err := vk.Error(vk.QueueSubmit(d.queue, 1, []vk.SubmitInfo{si}, nil)); err != nil {
		return fmt.Errorf("vk.QueueSubmit(): %s", err.Error())
	}
	vk.QueueWaitIdle(d.queue)
	return nil
}

func recordTransition(cmd vk.CommandBuffer, img vk.Image, old, new vk.ImageLayout) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           old,
		NewLayout:           new,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               img,
		SubresourceRange: vk.ImageSubresourceRange{
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
		},
	}

	var srcStage, dstStage vk.PipelineStageFlags
	if old == vk.ImageLayoutUndefined && new == vk.ImageLayoutTransferDstOptimal {
		barrier.SrcAccessMask = 0
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
	} else {
		barrier.SrcAccessMask = vk.AccessFlags(vk.AccessTransferWriteBit)
		barrier.DstAccessMask = vk.AccessFlags(vk.AccessShaderReadBit)
		srcStage = vk.PipelineStageFlags(vk.PipelineStageTransferBit)
		dstStage = vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit)
	}

	vk.CmdPipelineBarrier(cmd, srcStage, dstStage, 0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{barrier})
}

// packRows drops row padding so the staging buffer holds tightly
// packed pixels, which is what the copy command assumes.
func packRows(desc gfx.TextureDesc, data []byte) ([]byte, error) {
	tight := int(desc.Width) * desc.Format.PixelSize()
	pitch := int(desc.RowPitch)
	if pitch == 0 {
		pitch = tight
	}
	if pitch < tight {
		return nil, fmt.Errorf("row pitch %d smaller than packed row %d", pitch, tight)
	}
	if len(data) < pitch*int(desc.Height) {
		return nil, fmt.Errorf("pixel data short: have %d, need %d", len(data), pitch*int(desc.Height))
	}
	if pitch == tight {
		return data[:tight*int(desc.Height)], nil
	}

	packed := make([]byte, tight*int(desc.Height))
	for row := 0; row < int(desc.Height); row++ {
		copy(packed[row*tight:(row+1)*tight], data[row*pitch:row*pitch+tight])
	}
	return packed, nil
}

func findQueueFamily(device vk.PhysicalDevice) (uint32, error) {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	if queueFamilyCount == 0 {
		return 0, errors.New("vk.GetPhysicalDeviceQueueFamilyProperties(): no queue families on GPU")
	}
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	required := vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueTransferBit)
	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()
		if queueFamilies[i].QueueFlags&required == required {
			return i, nil
		}
	}
	return 0, errors.New("no queue family with graphics and transfer capability")
}
