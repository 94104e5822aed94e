// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package azureclient provides the calls the CPI makes against the Azure
// Resource Manager control plane. Every Get method returns an error
// satisfying errors.Is(err, errors.NotFound) when the resource does not
// exist. Long running operations are awaited before a call returns;
// an operation which was accepted but finished in a failed state is
// reported as an *AsyncOperationError.
package azureclient

import (
	"context"
)

// Client is the set of control plane calls used to provision a VM.
type Client interface {
	// GetResourceGroup returns the named resource group.
	GetResourceGroup(ctx context.Context, name string) (ResourceGroup, error)
	// CreateResourceGroup creates (or updates) the named resource group.
	CreateResourceGroup(ctx context.Context, name, location string) error

	// GetSubnet returns the subnet of the virtual network in the
	// resource group.
	GetSubnet(ctx context.Context, resourceGroup, vnet, subnet string) (Subnet, error)
	// GetSecurityGroup returns the named network security group.
	GetSecurityGroup(ctx context.Context, resourceGroup, name string) (SecurityGroup, error)

	GetPublicIP(ctx context.Context, resourceGroup, name string) (PublicIP, error)
	ListPublicIPs(ctx context.Context, resourceGroup string) ([]PublicIP, error)
	CreatePublicIP(ctx context.Context, resourceGroup string, params PublicIPParams) error
	DeletePublicIP(ctx context.Context, resourceGroup, name string) error

	GetLoadBalancer(ctx context.Context, resourceGroup, name string) (LoadBalancer, error)

	CreateNetworkInterface(ctx context.Context, resourceGroup string, params NetworkInterfaceParams) error
	GetNetworkInterface(ctx context.Context, resourceGroup, name string) (NetworkInterface, error)
	DeleteNetworkInterface(ctx context.Context, resourceGroup, name string) error
	// ListNetworkInterfacesByKeyword returns the network interfaces in
	// the resource group named "{keyword}-{index}".
	ListNetworkInterfacesByKeyword(ctx context.Context, resourceGroup, keyword string) ([]NetworkInterface, error)

	GetAvailabilitySet(ctx context.Context, resourceGroup, name string) (AvailabilitySet, error)
	// CreateAvailabilitySet creates the availability set, or updates it
	// in place if one with the same name exists.
	CreateAvailabilitySet(ctx context.Context, resourceGroup string, params AvailabilitySet) error

	// CreateVirtualMachine creates the VM with the given network
	// interfaces, the first of which is primary. avset may be nil.
	CreateVirtualMachine(
		ctx context.Context,
		resourceGroup string,
		params VirtualMachineParams,
		nics []NetworkInterface,
		avset *AvailabilitySet,
	) error
	DeleteVirtualMachine(ctx context.Context, resourceGroup, name string) error
	RestartVirtualMachine(ctx context.Context, resourceGroup, name string) error

	GetStorageAccount(ctx context.Context, resourceGroup, name string) (StorageAccount, error)

	// DeleteManagedDisk deletes the named managed disk. Deleting a disk
	// which does not exist is not an error.
	DeleteManagedDisk(ctx context.Context, resourceGroup, name string) error
}
