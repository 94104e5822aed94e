// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package disks

import (
	"context"
	"fmt"
	"strings"

	"github.com/juju/errors"

	"github.com/juju/azure-cpi/internal/azureclient"
	"github.com/juju/azure-cpi/internal/imageutils"
)

const (
	// DiskContainer is the blob container holding unmanaged disks and
	// VM status files.
	DiskContainer = "bosh"

	vhdSuffix    = ".vhd"
	statusSuffix = ".status"
)

// UnmanagedProvider is a Provider for VHD backed disks. The scope of an
// unmanaged disk is the storage account holding it.
type UnmanagedProvider struct {
	baseDisks
	blobStores            BlobStoreFactory
	storageEndpointSuffix string
}

var _ Provider = (*UnmanagedProvider)(nil)

// NewUnmanagedProvider returns a Provider for unmanaged disks.
func NewUnmanagedProvider(blobStores BlobStoreFactory, storageEndpointSuffix string, ephemeralDiskSizeGB int) *UnmanagedProvider {
	return &UnmanagedProvider{
		baseDisks:             baseDisks{ephemeralDiskSizeGB: ephemeralDiskSizeGB},
		blobStores:            blobStores,
		storageEndpointSuffix: storageEndpointSuffix,
	}
}

// Managed is part of the Provider interface.
func (p *UnmanagedProvider) Managed() bool {
	return false
}

func (p *UnmanagedProvider) diskURI(storageAccount, name string) string {
	return fmt.Sprintf("https://%s.blob.%s/%s/%s%s", storageAccount, p.storageEndpointSuffix, DiskContainer, name, vhdSuffix)
}

// OSDisk is part of the Provider interface.
func (p *UnmanagedProvider) OSDisk(storageAccount, name string, stemcell *imageutils.StemcellInfo, opts Options) (azureclient.Disk, error) {
	disk, err := p.osDisk(name, stemcell, opts)
	if err != nil {
		return azureclient.Disk{}, errors.Trace(err)
	}
	disk.URI = p.diskURI(storageAccount, name)
	return disk, nil
}

// EphemeralDisk is part of the Provider interface.
func (p *UnmanagedProvider) EphemeralDisk(storageAccount, name string, opts Options) *azureclient.Disk {
	disk := p.ephemeralDisk(name, opts)
	if disk != nil {
		disk.URI = p.diskURI(storageAccount, name)
	}
	return disk
}

// DeleteDisk is part of the Provider interface.
func (p *UnmanagedProvider) DeleteDisk(ctx context.Context, storageAccount, name string) error {
	logger.Debugf("deleting disk blob %q in storage account %q", name, storageAccount)
	store, err := p.blobStores(storageAccount)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Annotatef(store.DeleteBlob(ctx, DiskContainer, name+vhdSuffix), "deleting disk %q", name)
}

// DeleteVMStatusArtifacts is part of the Provider interface.
func (p *UnmanagedProvider) DeleteVMStatusArtifacts(ctx context.Context, storageAccount, vmName string) error {
	logger.Debugf("deleting status files of %q in storage account %q", vmName, storageAccount)
	store, err := p.blobStores(storageAccount)
	if err != nil {
		return errors.Trace(err)
	}
	names, err := store.ListBlobs(ctx, DiskContainer, vmName)
	if err != nil {
		return errors.Annotatef(err, "listing status files of %q", vmName)
	}
	for _, name := range names {
		if !strings.HasSuffix(name, statusSuffix) {
			continue
		}
		if err := store.DeleteBlob(ctx, DiskContainer, name); err != nil {
			return errors.Annotatef(err, "deleting status file %q", name)
		}
	}
	return nil
}
