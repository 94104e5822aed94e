// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package nic creates the network interfaces of a VM, one per network,
// together with the dynamic public IP attached to the primary one.
package nic

import (
	"context"
	"fmt"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/azure-cpi/internal/azureclient"
	"github.com/juju/azure-cpi/internal/cpierrors"
	"github.com/juju/azure-cpi/internal/resolver"
)

var logger = loggo.GetLogger("azurecpi.nic")

const (
	// DefaultIdleTimeoutInMinutes is the idle timeout of dynamic
	// public IPs when none is configured.
	DefaultIdleTimeoutInMinutes = 4
)

// NetworkSpec describes one compute network of a VM.
type NetworkSpec struct {
	// ResourceGroup of the virtual network. Empty means the default
	// resource group.
	ResourceGroup  string
	VirtualNetwork string
	Subnet         string
	// SecurityGroup overrides the default network security group.
	SecurityGroup string
	// PrivateIP is set for statically addressed networks.
	PrivateIP string
}

// VIPSpec describes the VIP network of a VM: an existing public IP,
// identified by its address.
type VIPSpec struct {
	ResourceGroup string
	PublicIP      string
}

// Request describes the network interfaces to create for a VM.
type Request struct {
	// ResourceGroup is where the interfaces and the dynamic public
	// IP are created.
	ResourceGroup string
	VMName        string
	Location      string
	Networks      []NetworkSpec
	VIP           *VIPSpec
	// LoadBalancer is attached to the primary interface.
	LoadBalancer string
	// SecurityGroup takes precedence over the security groups of
	// the networks.
	SecurityGroup         string
	AssignDynamicPublicIP bool
	Tags                  azureclient.Tags
}

// Validate returns an error if the request is not valid.
func (r Request) Validate() error {
	if r.VMName == "" {
		return errors.NotValidf("empty VMName")
	}
	if r.ResourceGroup == "" {
		return errors.NotValidf("empty ResourceGroup")
	}
	if len(r.Networks) == 0 {
		return errors.NotValidf("request without networks")
	}
	return nil
}

// Client is the subset of azureclient.Client used by the Provisioner.
type Client interface {
	resolver.Client
	GetPublicIP(ctx context.Context, resourceGroup, name string) (azureclient.PublicIP, error)
	CreatePublicIP(ctx context.Context, resourceGroup string, params azureclient.PublicIPParams) error
	CreateNetworkInterface(ctx context.Context, resourceGroup string, params azureclient.NetworkInterfaceParams) error
	GetNetworkInterface(ctx context.Context, resourceGroup, name string) (azureclient.NetworkInterface, error)
	DeleteNetworkInterface(ctx context.Context, resourceGroup, name string) error
	ListNetworkInterfacesByKeyword(ctx context.Context, resourceGroup, keyword string) ([]azureclient.NetworkInterface, error)
}

// Provisioner creates network interfaces.
type Provisioner struct {
	client               Client
	resolver             *resolver.Resolver
	defaultSecurityGroup string
	idleTimeoutInMinutes int
}

// NewProvisioner returns a Provisioner. Networks without a security
// group use defaultSecurityGroup; dynamic public IPs are created with
// the given idle timeout, or DefaultIdleTimeoutInMinutes if zero.
func NewProvisioner(client Client, resolver *resolver.Resolver, defaultSecurityGroup string, idleTimeoutInMinutes int) *Provisioner {
	if idleTimeoutInMinutes <= 0 {
		idleTimeoutInMinutes = DefaultIdleTimeoutInMinutes
	}
	return &Provisioner{
		client:               client,
		resolver:             resolver,
		defaultSecurityGroup: defaultSecurityGroup,
		idleTimeoutInMinutes: idleTimeoutInMinutes,
	}
}

// InterfaceName returns the name of the VM's interface at index.
func InterfaceName(vmName string, index int) string {
	return fmt.Sprintf("%s-%d", vmName, index)
}

// IPConfigName returns the IP configuration name of the interface at index.
func IPConfigName(index int) string {
	return fmt.Sprintf("ipconfig%d", index)
}

// Provision resolves every resource the VM's interfaces refer to, then
// creates the interfaces in network order and returns them. Nothing is
// created unless every subnet and security group resolves.
//
// If creating an interface fails, every interface whose name starts
// with the VM name is deleted and a *cpierrors.NICProvisioningError is
// returned.
func (p *Provisioner) Provision(ctx context.Context, req Request) ([]azureclient.NetworkInterface, error) {
	if err := req.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	params, err := p.resolve(ctx, req)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if req.VIP == nil && req.AssignDynamicPublicIP {
		ip, err := p.ensureDynamicPublicIP(ctx, req)
		if err != nil {
			return nil, errors.Trace(err)
		}
		params[0].PublicIP = &ip
	}

	for _, nicParams := range params {
		logger.Debugf("creating network interface %q for %q", nicParams.Name, req.VMName)
		if err := p.client.CreateNetworkInterface(ctx, req.ResourceGroup, nicParams); err != nil {
			logger.Errorf("creating network interface %q: %v", nicParams.Name, err)
			if cleanupErr := p.DeleteByKeyword(ctx, req.ResourceGroup, req.VMName, set.NewStrings()); cleanupErr != nil {
				return nil, cpierrors.NewCleanupError(cleanupErr, err)
			}
			return nil, &cpierrors.NICProvisioningError{Name: nicParams.Name, Err: err}
		}
	}

	nics := make([]azureclient.NetworkInterface, len(params))
	for i, nicParams := range params {
		nic, err := p.client.GetNetworkInterface(ctx, req.ResourceGroup, nicParams.Name)
		if err != nil {
			return nil, errors.Annotatef(err, "reading network interface %q", nicParams.Name)
		}
		nics[i] = nic
	}
	return nics, nil
}

// resolve returns the parameters of every interface of the request.
func (p *Provisioner) resolve(ctx context.Context, req Request) ([]azureclient.NetworkInterfaceParams, error) {
	var lb *azureclient.LoadBalancer
	if req.LoadBalancer != "" {
		resolved, err := p.resolver.ResolveLoadBalancer(ctx, req.LoadBalancer)
		if err != nil {
			return nil, errors.Trace(err)
		}
		lb = &resolved
	}

	var vip *azureclient.PublicIP
	if req.VIP != nil {
		resolved, err := p.resolver.ResolvePublicIP(ctx, req.VIP.ResourceGroup, req.VIP.PublicIP)
		if err != nil {
			return nil, errors.Trace(err)
		}
		vip = &resolved
	}

	params := make([]azureclient.NetworkInterfaceParams, len(req.Networks))
	for i, network := range req.Networks {
		nsgName := req.SecurityGroup
		if nsgName == "" {
			nsgName = network.SecurityGroup
		}
		if nsgName == "" {
			nsgName = p.defaultSecurityGroup
		}
		nsg, err := p.resolver.ResolveSecurityGroup(ctx, network.ResourceGroup, nsgName)
		if err != nil {
			return nil, errors.Trace(err)
		}
		subnet, err := p.resolver.ResolveSubnet(ctx, network.ResourceGroup, network.VirtualNetwork, network.Subnet)
		if err != nil {
			return nil, errors.Trace(err)
		}
		params[i] = azureclient.NetworkInterfaceParams{
			Name:          InterfaceName(req.VMName, i),
			Location:      req.Location,
			IPConfigName:  IPConfigName(i),
			Subnet:        subnet,
			SecurityGroup: &nsg,
			PrivateIP:     network.PrivateIP,
			Tags:          req.Tags,
		}
	}
	params[0].PublicIP = vip
	params[0].LoadBalancer = lb
	return params, nil
}

// ensureDynamicPublicIP returns the dynamic public IP named after the
// VM, creating it if it does not exist.
func (p *Provisioner) ensureDynamicPublicIP(ctx context.Context, req Request) (azureclient.PublicIP, error) {
	ip, err := p.client.GetPublicIP(ctx, req.ResourceGroup, req.VMName)
	if err == nil {
		logger.Debugf("reusing dynamic public IP %q", req.VMName)
		return ip, nil
	}
	if !errors.Is(err, errors.NotFound) {
		return azureclient.PublicIP{}, errors.Trace(err)
	}
	logger.Debugf("creating dynamic public IP %q with idle timeout %d", req.VMName, p.idleTimeoutInMinutes)
	if err := p.client.CreatePublicIP(ctx, req.ResourceGroup, azureclient.PublicIPParams{
		Name:                 req.VMName,
		Location:             req.Location,
		IdleTimeoutInMinutes: p.idleTimeoutInMinutes,
		Tags:                 req.Tags,
	}); err != nil {
		return azureclient.PublicIP{}, errors.Trace(err)
	}
	ip, err = p.client.GetPublicIP(ctx, req.ResourceGroup, req.VMName)
	return ip, errors.Trace(err)
}

// DeleteByKeyword deletes every network interface in the resource group
// named after vmName's interfaces, skipping the names in deleted. Deleted
// names are added to deleted.
func (p *Provisioner) DeleteByKeyword(ctx context.Context, resourceGroup, vmName string, deleted set.Strings) error {
	nics, err := p.client.ListNetworkInterfacesByKeyword(ctx, resourceGroup, vmName)
	if err != nil {
		return errors.Annotatef(err, "listing network interfaces of %q", vmName)
	}
	names := make([]string, 0, len(nics))
	for _, nic := range nics {
		names = append(names, nic.Name)
	}
	return errors.Trace(p.DeleteInterfaces(ctx, resourceGroup, names, deleted))
}

// DeleteInterfaces deletes the named network interfaces, skipping the
// names in deleted, and stops at the first failure.
func (p *Provisioner) DeleteInterfaces(ctx context.Context, resourceGroup string, names []string, deleted set.Strings) error {
	for _, name := range names {
		if deleted.Contains(name) {
			continue
		}
		logger.Debugf("deleting network interface %q", name)
		if err := p.client.DeleteNetworkInterface(ctx, resourceGroup, name); err != nil {
			return errors.Annotatef(err, "deleting network interface %q", name)
		}
		deleted.Add(name)
	}
	return nil
}
