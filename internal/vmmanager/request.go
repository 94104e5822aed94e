// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vmmanager

import (
	"github.com/juju/azure-cpi/internal/availability"
	"github.com/juju/azure-cpi/internal/azureclient"
	"github.com/juju/azure-cpi/internal/cpierrors"
	"github.com/juju/azure-cpi/internal/disks"
	"github.com/juju/azure-cpi/internal/imageutils"
	"github.com/juju/azure-cpi/internal/nic"
)

// Network types.
const (
	NetworkManual  = "manual"
	NetworkDynamic = "dynamic"
	NetworkVIP     = "vip"
)

// ResourcePool is the sizing directive of a VM.
type ResourcePool struct {
	InstanceType string `yaml:"instance_type" json:"instance_type"`

	// StorageAccountName holds the disks of a VM using unmanaged
	// storage. It defaults to the configured storage account.
	StorageAccountName string `yaml:"storage_account_name,omitempty" json:"storage_account_name,omitempty"`

	AvailabilitySet           string `yaml:"availability_set,omitempty" json:"availability_set,omitempty"`
	PlatformUpdateDomainCount int    `yaml:"platform_update_domain_count,omitempty" json:"platform_update_domain_count,omitempty"`
	PlatformFaultDomainCount  int    `yaml:"platform_fault_domain_count,omitempty" json:"platform_fault_domain_count,omitempty"`

	Caching       string        `yaml:"caching,omitempty" json:"caching,omitempty"`
	RootDisk      RootDisk      `yaml:"root_disk,omitempty" json:"root_disk,omitempty"`
	EphemeralDisk EphemeralDisk `yaml:"ephemeral_disk,omitempty" json:"ephemeral_disk,omitempty"`

	LoadBalancer          string `yaml:"load_balancer,omitempty" json:"load_balancer,omitempty"`
	SecurityGroup         string `yaml:"security_group,omitempty" json:"security_group,omitempty"`
	AssignDynamicPublicIP bool   `yaml:"assign_dynamic_public_ip,omitempty" json:"assign_dynamic_public_ip,omitempty"`

	Tags map[string]string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// RootDisk overrides the OS disk size, in GiB.
type RootDisk struct {
	Size int `yaml:"size,omitempty" json:"size,omitempty"`
}

// EphemeralDisk configures the ephemeral disk. Size is in GiB.
type EphemeralDisk struct {
	UseRootDisk bool `yaml:"use_root_disk,omitempty" json:"use_root_disk,omitempty"`
	Size        int  `yaml:"size,omitempty" json:"size,omitempty"`
}

func (rp ResourcePool) diskOptions() disks.Options {
	return disks.Options{
		Caching:             rp.Caching,
		RootDiskSizeGB:      rp.RootDisk.Size,
		UseRootDisk:         rp.EphemeralDisk.UseRootDisk,
		EphemeralDiskSizeGB: rp.EphemeralDisk.Size,
	}
}

func (rp ResourcePool) availabilityDirectives() availability.Directives {
	return availability.Directives{
		Name:                      rp.AvailabilitySet,
		PlatformUpdateDomainCount: rp.PlatformUpdateDomainCount,
		PlatformFaultDomainCount:  rp.PlatformFaultDomainCount,
	}
}

// Network is one network of a VM.
type Network struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type"`
	// IP is the static private address of a manual network, or the
	// public address of a VIP network.
	IP  string   `yaml:"ip,omitempty" json:"ip,omitempty"`
	DNS []string `yaml:"dns,omitempty" json:"dns,omitempty"`
	// Default lists what the network is the default for, e.g. "dns".
	Default []string `yaml:"default,omitempty" json:"default,omitempty"`

	ResourceGroupName  string `yaml:"resource_group_name,omitempty" json:"resource_group_name,omitempty"`
	VirtualNetworkName string `yaml:"virtual_network_name,omitempty" json:"virtual_network_name,omitempty"`
	SubnetName         string `yaml:"subnet_name,omitempty" json:"subnet_name,omitempty"`
	SecurityGroup      string `yaml:"security_group,omitempty" json:"security_group,omitempty"`
}

func (n Network) isDefaultFor(what string) bool {
	for _, d := range n.Default {
		if d == what {
			return true
		}
	}
	return false
}

// CreateRequest describes a VM to create.
type CreateRequest struct {
	InstanceID   InstanceID
	Location     string
	Stemcell     *imageutils.StemcellInfo
	ResourcePool ResourcePool
	Networks     []Network
	// Env is the environment metadata of the VM. The "bosh.group"
	// entry names its availability set when the resource pool does not.
	Env map[string]string
}

// validate checks the request before any provider call.
func (r CreateRequest) validate() error {
	if r.ResourcePool.InstanceType == "" {
		return cpierrors.Validationf("missing required cloud property `instance_type'")
	}
	if err := r.InstanceID.Validate(); err != nil {
		return cpierrors.Validationf("%v", err)
	}
	if r.Location == "" {
		return cpierrors.Validationf("missing location")
	}
	if r.Stemcell == nil {
		return cpierrors.Validationf("missing stemcell")
	}
	if err := r.ResourcePool.diskOptions().Validate(r.Stemcell); err != nil {
		return cpierrors.Validationf("%v", err)
	}
	var vips, compute int
	for _, network := range r.Networks {
		switch network.Type {
		case NetworkVIP:
			vips++
			if network.IP == "" {
				return cpierrors.Validationf("vip network %q without ip", network.Name)
			}
		case NetworkManual, NetworkDynamic:
			compute++
			if network.VirtualNetworkName == "" || network.SubnetName == "" {
				return cpierrors.Validationf("network %q without virtual_network_name or subnet_name", network.Name)
			}
			if network.Type == NetworkManual && network.IP == "" {
				return cpierrors.Validationf("manual network %q without ip", network.Name)
			}
		default:
			return cpierrors.Validationf("network %q has unsupported type %q", network.Name, network.Type)
		}
	}
	if compute == 0 {
		return cpierrors.Validationf("at least one manual or dynamic network is required")
	}
	if vips > 1 {
		return cpierrors.Validationf("more than one vip network")
	}
	return nil
}

// nicRequest returns the network interface request of a VM.
func (r CreateRequest) nicRequest(tags azureclient.Tags) nic.Request {
	req := nic.Request{
		ResourceGroup:         r.InstanceID.ResourceGroup,
		VMName:                r.InstanceID.VMName,
		Location:              r.Location,
		LoadBalancer:          r.ResourcePool.LoadBalancer,
		SecurityGroup:         r.ResourcePool.SecurityGroup,
		AssignDynamicPublicIP: r.ResourcePool.AssignDynamicPublicIP,
		Tags:                  tags,
	}
	for _, network := range r.Networks {
		if network.Type == NetworkVIP {
			req.VIP = &nic.VIPSpec{
				ResourceGroup: network.ResourceGroupName,
				PublicIP:      network.IP,
			}
			continue
		}
		spec := nic.NetworkSpec{
			ResourceGroup:  network.ResourceGroupName,
			VirtualNetwork: network.VirtualNetworkName,
			Subnet:         network.SubnetName,
			SecurityGroup:  network.SecurityGroup,
		}
		if network.Type == NetworkManual {
			spec.PrivateIP = network.IP
		}
		req.Networks = append(req.Networks, spec)
	}
	return req
}

// nameservers returns the DNS servers of the network which is the
// default for DNS, or else of the first network declaring any.
func (r CreateRequest) nameservers() []string {
	var first []string
	for _, network := range r.Networks {
		if network.Type == NetworkVIP || len(network.DNS) == 0 {
			continue
		}
		if network.isDefaultFor("dns") {
			return network.DNS
		}
		if first == nil {
			first = network.DNS
		}
	}
	return first
}

// mergeTags returns the request tags with the CPI's user agent tag.
func mergeTags(tags map[string]string) azureclient.Tags {
	result := make(azureclient.Tags, len(tags)+1)
	for k, v := range tags {
		result[k] = v
	}
	result[userAgentTag] = userAgent
	return result
}
