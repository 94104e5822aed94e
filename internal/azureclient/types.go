// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azureclient

import (
	"strings"

	"github.com/juju/azure-cpi/internal/imageutils"
)

// Tags are the tags applied to a resource.
type Tags map[string]string

// ResourceGroup is an Azure resource group.
type ResourceGroup struct {
	Name     string
	Location string
}

// Subnet is a subnet of a virtual network.
type Subnet struct {
	ID   string
	Name string
}

// SecurityGroup is a network security group.
type SecurityGroup struct {
	ID   string
	Name string
}

// PublicIP is a public IP address resource.
type PublicIP struct {
	ID                   string
	Name                 string
	IPAddress            string
	Location             string
	IdleTimeoutInMinutes int
}

// PublicIPParams holds the parameters for creating a public IP.
type PublicIPParams struct {
	Name                 string
	Location             string
	Static               bool
	IdleTimeoutInMinutes int
	Tags                 Tags
}

// LoadBalancer is a load balancer with its backend address pools.
type LoadBalancer struct {
	ID                    string
	Name                  string
	BackendAddressPoolIDs []string
}

// NetworkInterface is a provisioned network interface.
type NetworkInterface struct {
	ID         string
	Name       string
	PrivateIP  string
	PublicIPID string
}

// NetworkInterfaceParams holds the parameters for creating a network
// interface with a single IP configuration.
type NetworkInterfaceParams struct {
	Name         string
	Location     string
	IPConfigName string
	Subnet       Subnet
	// SecurityGroup is optional.
	SecurityGroup *SecurityGroup
	// PrivateIP is empty for dynamically addressed interfaces.
	PrivateIP string
	// PublicIP is optional.
	PublicIP *PublicIP
	// LoadBalancer is optional.
	LoadBalancer *LoadBalancer
	Tags         Tags
}

// AvailabilitySet is an availability set, used both as the result of
// a lookup and as creation parameters.
type AvailabilitySet struct {
	ID                        string
	Name                      string
	Location                  string
	Tags                      Tags
	PlatformUpdateDomainCount int
	PlatformFaultDomainCount  int
	// Managed is true for availability sets which may hold VMs
	// with managed disks.
	Managed         bool
	VirtualMachines []string
}

// StorageAccount is a storage account.
type StorageAccount struct {
	ID           string
	Name         string
	Location     string
	BlobEndpoint string
}

// OS types.
const (
	OSTypeLinux   = "linux"
	OSTypeWindows = "windows"
)

// Disk describes a disk attached to a VM. URI is only set for
// unmanaged disks.
type Disk struct {
	Name    string
	URI     string
	SizeGB  int
	Caching string
}

// VirtualMachineParams holds the parameters for creating a VM.
type VirtualMachineParams struct {
	Name     string
	Location string
	Size     string
	Tags     Tags
	OSType   string

	// ImageURI is the source VHD for unmanaged disks, or the ID of a
	// managed image for managed disks. It is empty when PlatformImage
	// is set.
	ImageURI      string
	PlatformImage *imageutils.PlatformImage

	Managed       bool
	OSDisk        Disk
	EphemeralDisk *Disk

	// CustomData is base64 encoded.
	CustomData string

	SSHUsername  string
	SSHPublicKey string

	WindowsUsername string
	WindowsPassword string
	ComputerName    string

	// DiagnosticsStorageURI enables boot diagnostics when set.
	DiagnosticsStorageURI string
}

// IsInterfaceOf reports whether name is one of vmName's network interface
// names, which are vmName followed by a dash and a decimal index.
func IsInterfaceOf(name, vmName string) bool {
	index, ok := strings.CutPrefix(name, vmName+"-")
	if !ok || index == "" {
		return false
	}
	for _, r := range index {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
