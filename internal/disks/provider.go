// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package disks

// Config holds what is needed to construct either Provider.
type Config struct {
	UseManagedDisks       bool
	ManagedDisks          ManagedDiskDeleter
	BlobStores            BlobStoreFactory
	StorageEndpointSuffix string
	EphemeralDiskSizeGB   int
}

// NewProvider returns the managed disk Provider if the configuration
// asks for managed disks, and the unmanaged one otherwise. The choice
// is fixed for the lifetime of the returned Provider.
func NewProvider(cfg Config) Provider {
	if cfg.UseManagedDisks {
		return NewManagedProvider(cfg.ManagedDisks, cfg.EphemeralDiskSizeGB)
	}
	return NewUnmanagedProvider(cfg.BlobStores, cfg.StorageEndpointSuffix, cfg.EphemeralDiskSizeGB)
}
