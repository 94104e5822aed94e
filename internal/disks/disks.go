// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package disks provides the OS and ephemeral disk descriptions of a VM,
// and their removal, for managed and unmanaged storage.
package disks

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/azure-cpi/internal/azureclient"
	"github.com/juju/azure-cpi/internal/imageutils"
)

var logger = loggo.GetLogger("azurecpi.disks")

const (
	osDiskPrefix        = "bosh-os"
	ephemeralDiskPrefix = "bosh-ephemeral"

	// DefaultCaching is the caching mode of disks when none is given.
	DefaultCaching = "ReadWrite"
	// DefaultEphemeralDiskSizeGB is the size of the ephemeral disk
	// when none is configured.
	DefaultEphemeralDiskSizeGB = 30
)

var validCaching = map[string]bool{
	"None":      true,
	"ReadOnly":  true,
	"ReadWrite": true,
}

// Options describes the disks requested for a VM.
type Options struct {
	// Caching applies to the OS disk.
	Caching string
	// RootDiskSizeGB overrides the size of the OS disk. It must not be
	// smaller than the image. Zero means the size of the image.
	RootDiskSizeGB int
	// UseRootDisk disables the ephemeral disk.
	UseRootDisk bool
	// EphemeralDiskSizeGB overrides the default ephemeral disk size.
	EphemeralDiskSizeGB int
}

// Provider supplies disk names and descriptions for a VM, and deletes
// disks and VM status artifacts. The scope of a disk is the storage
// account holding it for unmanaged storage, or the resource group for
// managed storage.
//
//go:generate go run go.uber.org/mock/mockgen -package mocks -destination mocks/provider_mock.go github.com/juju/azure-cpi/internal/disks Provider
type Provider interface {
	// Managed reports whether the provider uses managed disks.
	Managed() bool

	// GenerateOSDiskName returns a fresh OS disk name for the VM.
	GenerateOSDiskName(vmName string) string
	// GenerateEphemeralDiskName returns a fresh ephemeral disk name
	// for the VM.
	GenerateEphemeralDiskName(vmName string) string

	// OSDisk returns the OS disk with the given name.
	OSDisk(scope, name string, stemcell *imageutils.StemcellInfo, opts Options) (azureclient.Disk, error)
	// EphemeralDisk returns the ephemeral disk with the given name, or
	// nil if the VM has no ephemeral disk.
	EphemeralDisk(scope, name string, opts Options) *azureclient.Disk

	// DeleteDisk deletes the named disk. Deleting a disk which does
	// not exist is not an error.
	DeleteDisk(ctx context.Context, scope, name string) error
	// DeleteVMStatusArtifacts deletes status files left behind by the VM.
	DeleteVMStatusArtifacts(ctx context.Context, scope, vmName string) error
}

func generateDiskName(prefix, vmName string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, vmName, uuid.NewString()[:8])
}

// baseDisks holds the behaviour shared by both providers.
type baseDisks struct {
	ephemeralDiskSizeGB int
}

func (b baseDisks) GenerateOSDiskName(vmName string) string {
	return generateDiskName(osDiskPrefix, vmName)
}

func (b baseDisks) GenerateEphemeralDiskName(vmName string) string {
	return generateDiskName(ephemeralDiskPrefix, vmName)
}

// Validate checks the OS disk caching mode and that the root disk is
// not smaller than the stemcell image.
func (o Options) Validate(stemcell *imageutils.StemcellInfo) error {
	if o.Caching != "" && !validCaching[o.Caching] {
		return errors.NotValidf("caching %q", o.Caching)
	}
	if o.RootDiskSizeGB > 0 && stemcell != nil && o.RootDiskSizeGB < stemcell.ImageSizeGB() {
		return errors.NotValidf(
			"root disk size %dGiB smaller than image size %dGiB", o.RootDiskSizeGB, stemcell.ImageSizeGB(),
		)
	}
	return nil
}

func (b baseDisks) osDisk(name string, stemcell *imageutils.StemcellInfo, opts Options) (azureclient.Disk, error) {
	if err := opts.Validate(stemcell); err != nil {
		return azureclient.Disk{}, errors.Trace(err)
	}
	caching := opts.Caching
	if caching == "" {
		caching = DefaultCaching
	}
	return azureclient.Disk{Name: name, Caching: caching, SizeGB: opts.RootDiskSizeGB}, nil
}

func (b baseDisks) ephemeralDisk(name string, opts Options) *azureclient.Disk {
	if opts.UseRootDisk {
		return nil
	}
	size := opts.EphemeralDiskSizeGB
	if size <= 0 {
		size = b.ephemeralDiskSizeGB
	}
	if size <= 0 {
		size = DefaultEphemeralDiskSizeGB
	}
	return &azureclient.Disk{
		Name:    name,
		SizeGB:  size,
		Caching: DefaultCaching,
	}
}
