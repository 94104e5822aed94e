// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vmmanager

import (
	"strings"

	"github.com/juju/errors"
)

const (
	instanceIDVMName         = "agent_id"
	instanceIDResourceGroup  = "resource_group_name"
	instanceIDStorageAccount = "storage_account_name"
)

// InstanceID identifies a VM created by the CPI.
type InstanceID struct {
	ResourceGroup string
	VMName        string
	// StorageAccount holds the VM's disks when they are unmanaged.
	StorageAccount string
}

// String returns the stable string form of the ID, in the form
// "agent_id:<vm>;resource_group_name:<rg>[;storage_account_name:<sa>]".
func (id InstanceID) String() string {
	parts := []string{
		instanceIDVMName + ":" + id.VMName,
		instanceIDResourceGroup + ":" + id.ResourceGroup,
	}
	if id.StorageAccount != "" {
		parts = append(parts, instanceIDStorageAccount+":"+id.StorageAccount)
	}
	return strings.Join(parts, ";")
}

// Validate returns an error if the ID is not valid.
func (id InstanceID) Validate() error {
	if id.VMName == "" {
		return errors.NotValidf("instance ID without VM name")
	}
	if id.ResourceGroup == "" {
		return errors.NotValidf("instance ID without resource group")
	}
	return nil
}

// ParseInstanceID parses the string form of an InstanceID.
func ParseInstanceID(s string) (InstanceID, error) {
	var id InstanceID
	for _, part := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(part, ":")
		if !ok || value == "" {
			return InstanceID{}, errors.NotValidf("instance ID %q", s)
		}
		switch key {
		case instanceIDVMName:
			id.VMName = value
		case instanceIDResourceGroup:
			id.ResourceGroup = value
		case instanceIDStorageAccount:
			id.StorageAccount = value
		default:
			return InstanceID{}, errors.NotValidf("instance ID %q with key %q", s, key)
		}
	}
	if err := id.Validate(); err != nil {
		return InstanceID{}, errors.Annotatef(err, "parsing %q", s)
	}
	return id, nil
}
