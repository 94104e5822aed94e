// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package disks

import (
	"context"

	"github.com/juju/errors"

	"github.com/juju/azure-cpi/internal/azureclient"
	"github.com/juju/azure-cpi/internal/imageutils"
)

// ManagedDiskDeleter deletes managed disks.
type ManagedDiskDeleter interface {
	DeleteManagedDisk(ctx context.Context, resourceGroup, name string) error
}

// ManagedProvider is a Provider for managed disks. The scope of a
// managed disk is its resource group.
type ManagedProvider struct {
	baseDisks
	client ManagedDiskDeleter
}

var _ Provider = (*ManagedProvider)(nil)

// NewManagedProvider returns a Provider for managed disks.
func NewManagedProvider(client ManagedDiskDeleter, ephemeralDiskSizeGB int) *ManagedProvider {
	return &ManagedProvider{
		baseDisks: baseDisks{ephemeralDiskSizeGB: ephemeralDiskSizeGB},
		client:    client,
	}
}

// Managed is part of the Provider interface.
func (p *ManagedProvider) Managed() bool {
	return true
}

// OSDisk is part of the Provider interface.
func (p *ManagedProvider) OSDisk(_, name string, stemcell *imageutils.StemcellInfo, opts Options) (azureclient.Disk, error) {
	disk, err := p.osDisk(name, stemcell, opts)
	return disk, errors.Trace(err)
}

// EphemeralDisk is part of the Provider interface.
func (p *ManagedProvider) EphemeralDisk(_, name string, opts Options) *azureclient.Disk {
	return p.ephemeralDisk(name, opts)
}

// DeleteDisk is part of the Provider interface.
func (p *ManagedProvider) DeleteDisk(ctx context.Context, resourceGroup, name string) error {
	logger.Debugf("deleting managed disk %q in %q", name, resourceGroup)
	return errors.Trace(p.client.DeleteManagedDisk(ctx, resourceGroup, name))
}

// DeleteVMStatusArtifacts is part of the Provider interface. Managed
// disks leave no status files behind.
func (p *ManagedProvider) DeleteVMStatusArtifacts(_ context.Context, _, _ string) error {
	return nil
}
