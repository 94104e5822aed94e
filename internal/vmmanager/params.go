// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vmmanager

import (
	"github.com/juju/azure-cpi/internal/azureclient"
	"github.com/juju/azure-cpi/internal/imageutils"
)

// VMParameters are the parameters a VM was created with.
type VMParameters struct {
	InstanceID   string `yaml:"instance_id" json:"instance_id"`
	Name         string `yaml:"name" json:"name"`
	Location     string `yaml:"location" json:"location"`
	InstanceType string `yaml:"instance_type" json:"instance_type"`
	OSType       string `yaml:"os_type" json:"os_type"`

	ImageURI       string          `yaml:"image_uri,omitempty" json:"image_uri,omitempty"`
	ImageReference *ImageReference `yaml:"image_reference,omitempty" json:"image_reference,omitempty"`

	OSDisk        DiskParameters  `yaml:"os_disk" json:"os_disk"`
	EphemeralDisk *DiskParameters `yaml:"ephemeral_disk,omitempty" json:"ephemeral_disk,omitempty"`

	NetworkInterfaces []string `yaml:"network_interfaces" json:"network_interfaces"`
	AvailabilitySet   string   `yaml:"availability_set,omitempty" json:"availability_set,omitempty"`

	// ComputerName is set for Windows VMs.
	ComputerName string `yaml:"computer_name,omitempty" json:"computer_name,omitempty"`

	DiagnosticsStorageURI string `yaml:"diag_storage_uri,omitempty" json:"diag_storage_uri,omitempty"`
}

// ImageReference identifies a platform image.
type ImageReference struct {
	Publisher string `yaml:"publisher" json:"publisher"`
	Offer     string `yaml:"offer" json:"offer"`
	SKU       string `yaml:"sku" json:"sku"`
	Version   string `yaml:"version" json:"version"`
}

// DiskParameters describe a disk of a VM.
type DiskParameters struct {
	Name    string `yaml:"name" json:"name"`
	URI     string `yaml:"uri,omitempty" json:"uri,omitempty"`
	SizeGB  int    `yaml:"size_gb,omitempty" json:"size_gb,omitempty"`
	Caching string `yaml:"caching" json:"caching"`
}

func toDiskParameters(disk azureclient.Disk) DiskParameters {
	return DiskParameters{
		Name:    disk.Name,
		URI:     disk.URI,
		SizeGB:  disk.SizeGB,
		Caching: disk.Caching,
	}
}

func toImageReference(image *imageutils.PlatformImage) *ImageReference {
	if image == nil {
		return nil
	}
	return &ImageReference{
		Publisher: image.Publisher,
		Offer:     image.Offer,
		SKU:       image.SKU,
		Version:   image.Version,
	}
}

func newVMParameters(
	id InstanceID,
	instanceType string,
	vm azureclient.VirtualMachineParams,
	nics []azureclient.NetworkInterface,
	avset *azureclient.AvailabilitySet,
) VMParameters {
	params := VMParameters{
		InstanceID:            id.String(),
		Name:                  vm.Name,
		Location:              vm.Location,
		InstanceType:          instanceType,
		OSType:                vm.OSType,
		ImageURI:              vm.ImageURI,
		ImageReference:        toImageReference(vm.PlatformImage),
		OSDisk:                toDiskParameters(vm.OSDisk),
		ComputerName:          vm.ComputerName,
		DiagnosticsStorageURI: vm.DiagnosticsStorageURI,
	}
	if vm.EphemeralDisk != nil {
		disk := toDiskParameters(*vm.EphemeralDisk)
		params.EphemeralDisk = &disk
	}
	for _, nic := range nics {
		params.NetworkInterfaces = append(params.NetworkInterfaces, nic.Name)
	}
	if avset != nil {
		params.AvailabilitySet = avset.Name
	}
	return params
}
