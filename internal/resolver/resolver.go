// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package resolver looks up the network resources a VM refers to by
// name: subnets, network security groups, public IPs and load balancers.
// Lookups in a resource group other than the default one fall back to
// the default resource group.
package resolver

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/azure-cpi/internal/azureclient"
	"github.com/juju/azure-cpi/internal/cpierrors"
)

var logger = loggo.GetLogger("azurecpi.resolver")

// Client is the subset of azureclient.Client used by the Resolver.
type Client interface {
	GetSubnet(ctx context.Context, resourceGroup, vnet, subnet string) (azureclient.Subnet, error)
	GetSecurityGroup(ctx context.Context, resourceGroup, name string) (azureclient.SecurityGroup, error)
	ListPublicIPs(ctx context.Context, resourceGroup string) ([]azureclient.PublicIP, error)
	GetLoadBalancer(ctx context.Context, resourceGroup, name string) (azureclient.LoadBalancer, error)
}

// Resolver resolves network resources by name.
type Resolver struct {
	client               Client
	defaultResourceGroup string
}

// New returns a Resolver which falls back to defaultResourceGroup.
func New(client Client, defaultResourceGroup string) *Resolver {
	return &Resolver{
		client:               client,
		defaultResourceGroup: defaultResourceGroup,
	}
}

// DefaultResourceGroup returns the fallback resource group.
func (r *Resolver) DefaultResourceGroup() string {
	return r.defaultResourceGroup
}

// resourceGroups returns the resource groups to search, in order.
func (r *Resolver) resourceGroups(resourceGroup string) []string {
	if resourceGroup == "" || resourceGroup == r.defaultResourceGroup {
		return []string{r.defaultResourceGroup}
	}
	return []string{resourceGroup, r.defaultResourceGroup}
}

// ResolveSubnet returns the subnet of the virtual network, looked up in
// resourceGroup and then the default resource group.
func (r *Resolver) ResolveSubnet(ctx context.Context, resourceGroup, vnet, subnet string) (azureclient.Subnet, error) {
	groups := r.resourceGroups(resourceGroup)
	for _, rg := range groups {
		result, err := r.client.GetSubnet(ctx, rg, vnet, subnet)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, errors.NotFound) {
			return azureclient.Subnet{}, errors.Trace(err)
		}
		logger.Debugf("subnet %s/%s not found in %q", vnet, subnet, rg)
	}
	return azureclient.Subnet{}, cpierrors.Resolutionf(
		"Cannot find the subnet `%s/%s' in the resource group `%s'", vnet, subnet, groups[0],
	)
}

// ResolveSecurityGroup returns the named network security group, looked
// up in resourceGroup and then the default resource group.
func (r *Resolver) ResolveSecurityGroup(ctx context.Context, resourceGroup, name string) (azureclient.SecurityGroup, error) {
	for _, rg := range r.resourceGroups(resourceGroup) {
		nsg, err := r.client.GetSecurityGroup(ctx, rg, name)
		if err == nil {
			return nsg, nil
		}
		if !errors.Is(err, errors.NotFound) {
			return azureclient.SecurityGroup{}, errors.Trace(err)
		}
		logger.Debugf("network security group %q not found in %q", name, rg)
	}
	return azureclient.SecurityGroup{}, cpierrors.Resolutionf("Cannot find the network security group `%s'", name)
}

// ResolvePublicIP returns the public IP in the resource group whose
// address is address.
func (r *Resolver) ResolvePublicIP(ctx context.Context, resourceGroup, address string) (azureclient.PublicIP, error) {
	if resourceGroup == "" {
		resourceGroup = r.defaultResourceGroup
	}
	ips, err := r.client.ListPublicIPs(ctx, resourceGroup)
	if err != nil {
		return azureclient.PublicIP{}, errors.Trace(err)
	}
	for _, ip := range ips {
		if ip.IPAddress == address {
			return ip, nil
		}
	}
	return azureclient.PublicIP{}, cpierrors.Resolutionf(
		"Cannot find the public IP address `%s' in the resource group `%s'", address, resourceGroup,
	)
}

// ResolveLoadBalancer returns the named load balancer in the default
// resource group.
func (r *Resolver) ResolveLoadBalancer(ctx context.Context, name string) (azureclient.LoadBalancer, error) {
	lb, err := r.client.GetLoadBalancer(ctx, r.defaultResourceGroup, name)
	if errors.Is(err, errors.NotFound) {
		return azureclient.LoadBalancer{}, cpierrors.Resolutionf("Cannot find the load balancer `%s'", name)
	}
	return lb, errors.Trace(err)
}
