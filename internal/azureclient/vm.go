// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azureclient

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v2"
)

const ephemeralDiskLUN = 0

// virtualMachine returns the ARM model of the VM described by params.
func virtualMachine(params VirtualMachineParams, nics []NetworkInterface, avset *AvailabilitySet) armcompute.VirtualMachine {
	props := &armcompute.VirtualMachineProperties{
		HardwareProfile: &armcompute.HardwareProfile{
			VMSize: to.Ptr(armcompute.VirtualMachineSizeTypes(params.Size)),
		},
		StorageProfile: storageProfile(params),
		OSProfile:      osProfile(params),
		NetworkProfile: &armcompute.NetworkProfile{},
	}
	for i, nic := range nics {
		props.NetworkProfile.NetworkInterfaces = append(props.NetworkProfile.NetworkInterfaces,
			&armcompute.NetworkInterfaceReference{
				ID: to.Ptr(nic.ID),
				Properties: &armcompute.NetworkInterfaceReferenceProperties{
					Primary: to.Ptr(i == 0),
				},
			})
	}
	if avset != nil {
		props.AvailabilitySet = &armcompute.SubResource{ID: to.Ptr(avset.ID)}
	}
	if params.DiagnosticsStorageURI != "" {
		props.DiagnosticsProfile = &armcompute.DiagnosticsProfile{
			BootDiagnostics: &armcompute.BootDiagnostics{
				Enabled:    to.Ptr(true),
				StorageURI: to.Ptr(params.DiagnosticsStorageURI),
			},
		}
	}
	return armcompute.VirtualMachine{
		Location:   to.Ptr(params.Location),
		Tags:       toTagPtrs(params.Tags),
		Properties: props,
	}
}

func osType(params VirtualMachineParams) armcompute.OperatingSystemTypes {
	if params.OSType == OSTypeWindows {
		return armcompute.OperatingSystemTypesWindows
	}
	return armcompute.OperatingSystemTypesLinux
}

func storageProfile(params VirtualMachineParams) *armcompute.StorageProfile {
	osDisk := &armcompute.OSDisk{
		Name:         to.Ptr(params.OSDisk.Name),
		CreateOption: to.Ptr(armcompute.DiskCreateOptionTypesFromImage),
		OSType:       to.Ptr(osType(params)),
	}
	if params.OSDisk.Caching != "" {
		osDisk.Caching = to.Ptr(armcompute.CachingTypes(params.OSDisk.Caching))
	}
	if params.OSDisk.SizeGB > 0 {
		osDisk.DiskSizeGB = to.Ptr(int32(params.OSDisk.SizeGB))
	}
	profile := &armcompute.StorageProfile{OSDisk: osDisk}

	switch {
	case params.PlatformImage != nil:
		profile.ImageReference = &armcompute.ImageReference{
			Publisher: to.Ptr(params.PlatformImage.Publisher),
			Offer:     to.Ptr(params.PlatformImage.Offer),
			SKU:       to.Ptr(params.PlatformImage.SKU),
			Version:   to.Ptr(params.PlatformImage.Version),
		}
	case params.Managed:
		profile.ImageReference = &armcompute.ImageReference{ID: to.Ptr(params.ImageURI)}
	default:
		osDisk.Image = &armcompute.VirtualHardDisk{URI: to.Ptr(params.ImageURI)}
	}
	if params.Managed {
		osDisk.ManagedDisk = &armcompute.ManagedDiskParameters{
			StorageAccountType: to.Ptr(armcompute.StorageAccountTypesStandardLRS),
		}
	} else {
		osDisk.Vhd = &armcompute.VirtualHardDisk{URI: to.Ptr(params.OSDisk.URI)}
	}

	if disk := params.EphemeralDisk; disk != nil {
		dataDisk := &armcompute.DataDisk{
			Lun:          to.Ptr(int32(ephemeralDiskLUN)),
			Name:         to.Ptr(disk.Name),
			CreateOption: to.Ptr(armcompute.DiskCreateOptionTypesEmpty),
			DiskSizeGB:   to.Ptr(int32(disk.SizeGB)),
		}
		if disk.Caching != "" {
			dataDisk.Caching = to.Ptr(armcompute.CachingTypes(disk.Caching))
		}
		if params.Managed {
			dataDisk.ManagedDisk = &armcompute.ManagedDiskParameters{
				StorageAccountType: to.Ptr(armcompute.StorageAccountTypesStandardLRS),
			}
		} else {
			dataDisk.Vhd = &armcompute.VirtualHardDisk{URI: to.Ptr(disk.URI)}
		}
		profile.DataDisks = []*armcompute.DataDisk{dataDisk}
	}
	return profile
}

func osProfile(params VirtualMachineParams) *armcompute.OSProfile {
	profile := &armcompute.OSProfile{}
	if params.CustomData != "" {
		profile.CustomData = to.Ptr(params.CustomData)
	}
	if params.OSType == OSTypeWindows {
		profile.ComputerName = to.Ptr(params.ComputerName)
		profile.AdminUsername = to.Ptr(params.WindowsUsername)
		profile.AdminPassword = to.Ptr(params.WindowsPassword)
		profile.WindowsConfiguration = &armcompute.WindowsConfiguration{
			EnableAutomaticUpdates: to.Ptr(false),
			ProvisionVMAgent:       to.Ptr(true),
		}
		return profile
	}
	profile.ComputerName = to.Ptr(params.Name)
	profile.AdminUsername = to.Ptr(params.SSHUsername)
	profile.LinuxConfiguration = &armcompute.LinuxConfiguration{
		DisablePasswordAuthentication: to.Ptr(true),
		SSH: &armcompute.SSHConfiguration{
			PublicKeys: []*armcompute.SSHPublicKey{{
				Path:    to.Ptr(fmt.Sprintf("/home/%s/.ssh/authorized_keys", params.SSHUsername)),
				KeyData: to.Ptr(params.SSHPublicKey),
			}},
		},
	}
	return profile
}
