// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package availability resolves the availability set a VM is placed in,
// creating it on first use.
package availability

import (
	"context"
	"crypto/md5"
	"encoding/hex"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/azure-cpi/internal/azureclient"
)

var logger = loggo.GetLogger("azurecpi.availability")

const (
	// MaxNameLength is the longest name Azure accepts for an
	// availability set.
	MaxNameLength = 80

	DefaultPlatformUpdateDomainCount = 5

	defaultUnmanagedFaultDomainCount = 3
	defaultManagedFaultDomainCount   = 2

	// GroupTag is the environment metadata key naming the VM's group.
	GroupTag = "bosh.group"
)

// DefaultPlatformFaultDomainCount returns the number of fault domains
// of availability sets created for the storage mode.
func DefaultPlatformFaultDomainCount(managed bool) int {
	if managed {
		return defaultManagedFaultDomainCount
	}
	return defaultUnmanagedFaultDomainCount
}

// Directives are the availability settings of a VM's sizing directive.
type Directives struct {
	// Name is the explicit availability set name.
	Name                      string
	PlatformUpdateDomainCount int
	PlatformFaultDomainCount  int
}

// Name returns the availability set name for a VM, or "" if the VM is
// not placed in an availability set. An explicit name is used verbatim;
// otherwise the group from the environment metadata is used, shortened
// to fit MaxNameLength.
func Name(directives Directives, env map[string]string) string {
	if directives.Name != "" {
		return directives.Name
	}
	group := env[GroupTag]
	if group == "" {
		return ""
	}
	return truncateName(group)
}

// truncateName shortens names longer than MaxNameLength, keeping them
// unique through an MD5 prefix of the full name.
func truncateName(name string) string {
	if len(name) <= MaxNameLength {
		return name
	}
	sum := md5.Sum([]byte(name))
	return "az-" + hex.EncodeToString(sum[:]) + "-" + name[MaxNameLength:]
}

// Client is the subset of azureclient.Client used by the Manager.
type Client interface {
	GetAvailabilitySet(ctx context.Context, resourceGroup, name string) (azureclient.AvailabilitySet, error)
	CreateAvailabilitySet(ctx context.Context, resourceGroup string, params azureclient.AvailabilitySet) error
}

// Manager resolves availability sets.
type Manager struct {
	client Client
}

// NewManager returns a Manager.
func NewManager(client Client) *Manager {
	return &Manager{client: client}
}

// Request identifies the availability set to ensure.
type Request struct {
	ResourceGroup string
	Name          string
	Location      string
	Managed       bool
	Directives    Directives
}

// Ensure returns the named availability set. An absent set is created
// with the requested domain counts; an existing set whose managed flag
// disagrees with the request is updated, keeping its other attributes.
// An existing set which already matches is returned without change.
func (m *Manager) Ensure(ctx context.Context, req Request) (azureclient.AvailabilitySet, error) {
	existing, err := m.client.GetAvailabilitySet(ctx, req.ResourceGroup, req.Name)
	if err == nil {
		if existing.Managed == req.Managed {
			logger.Debugf("using availability set %q", req.Name)
			return existing, nil
		}
		logger.Infof("updating availability set %q to managed=%v", req.Name, req.Managed)
		params := azureclient.AvailabilitySet{
			Name:                      existing.Name,
			Location:                  existing.Location,
			Tags:                      existing.Tags,
			PlatformUpdateDomainCount: existing.PlatformUpdateDomainCount,
			PlatformFaultDomainCount:  existing.PlatformFaultDomainCount,
			Managed:                   req.Managed,
		}
		return m.create(ctx, req.ResourceGroup, params)
	}
	if !errors.Is(err, errors.NotFound) {
		return azureclient.AvailabilitySet{}, errors.Annotatef(err, "getting availability set %q", req.Name)
	}

	params := azureclient.AvailabilitySet{
		Name:                      req.Name,
		Location:                  req.Location,
		Tags:                      azureclient.Tags{"user-agent": "bosh"},
		PlatformUpdateDomainCount: req.Directives.PlatformUpdateDomainCount,
		PlatformFaultDomainCount:  req.Directives.PlatformFaultDomainCount,
		Managed:                   req.Managed,
	}
	if params.PlatformUpdateDomainCount == 0 {
		params.PlatformUpdateDomainCount = DefaultPlatformUpdateDomainCount
	}
	if params.PlatformFaultDomainCount == 0 {
		params.PlatformFaultDomainCount = DefaultPlatformFaultDomainCount(req.Managed)
	}
	logger.Infof("creating availability set %q", req.Name)
	return m.create(ctx, req.ResourceGroup, params)
}

func (m *Manager) create(ctx context.Context, resourceGroup string, params azureclient.AvailabilitySet) (azureclient.AvailabilitySet, error) {
	if err := m.client.CreateAvailabilitySet(ctx, resourceGroup, params); err != nil {
		return azureclient.AvailabilitySet{}, errors.Annotatef(err, "creating availability set %q", params.Name)
	}
	avset, err := m.client.GetAvailabilitySet(ctx, resourceGroup, params.Name)
	if err != nil {
		return azureclient.AvailabilitySet{}, errors.Annotatef(err, "getting availability set %q", params.Name)
	}
	return avset, nil
}
