// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azureclient

import (
	"context"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v2"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/network/armnetwork"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/resources/armresources"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/azure-cpi/internal/errorutils"
	"github.com/juju/azure-cpi/internal/imageutils"
)

var logger = loggo.GetLogger("azurecpi.azureclient")

const (
	// defaultPollFrequency is how often a long running operation
	// is polled for completion.
	defaultPollFrequency = 5 * time.Second

	avsetSKUAligned = "Aligned"
	avsetSKUClassic = "Classic"
)

// Config holds the parameters for an AzureClient.
type Config struct {
	SubscriptionID string
	Credential     azcore.TokenCredential
	// ClientOptions is optional.
	ClientOptions *arm.ClientOptions
	// Clock is used for throttling backoff. Defaults to the wall clock.
	Clock clock.Clock
	// PollFrequency defaults to 5 seconds.
	PollFrequency time.Duration
}

// Validate returns an error if the config is not valid.
func (cfg Config) Validate() error {
	if cfg.SubscriptionID == "" {
		return errors.NotValidf("empty SubscriptionID")
	}
	if cfg.Credential == nil {
		return errors.NotValidf("nil Credential")
	}
	return nil
}

// AzureClient is a Client backed by the Azure SDK.
type AzureClient struct {
	resourceGroups *armresources.ResourceGroupsClient
	subnets        *armnetwork.SubnetsClient
	securityGroups *armnetwork.SecurityGroupsClient
	publicIPs      *armnetwork.PublicIPAddressesClient
	loadBalancers  *armnetwork.LoadBalancersClient
	interfaces     *armnetwork.InterfacesClient
	availSets      *armcompute.AvailabilitySetsClient
	vms            *armcompute.VirtualMachinesClient
	disks          *armcompute.DisksClient
	images         *armcompute.VirtualMachineImagesClient
	accounts       *armstorage.AccountsClient

	caller        backoffAPIRequestCaller
	pollFrequency time.Duration
}

var _ Client = (*AzureClient)(nil)

// NewClient returns an AzureClient for the subscription.
func NewClient(cfg Config) (*AzureClient, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.PollFrequency <= 0 {
		cfg.PollFrequency = defaultPollFrequency
	}
	sub, cred, opts := cfg.SubscriptionID, cfg.Credential, cfg.ClientOptions
	c := &AzureClient{
		caller:        backoffAPIRequestCaller{clock: cfg.Clock},
		pollFrequency: cfg.PollFrequency,
	}
	var err error
	if c.resourceGroups, err = armresources.NewResourceGroupsClient(sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if c.subnets, err = armnetwork.NewSubnetsClient(sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if c.securityGroups, err = armnetwork.NewSecurityGroupsClient(sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if c.publicIPs, err = armnetwork.NewPublicIPAddressesClient(sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if c.loadBalancers, err = armnetwork.NewLoadBalancersClient(sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if c.interfaces, err = armnetwork.NewInterfacesClient(sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if c.availSets, err = armcompute.NewAvailabilitySetsClient(sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if c.vms, err = armcompute.NewVirtualMachinesClient(sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if c.disks, err = armcompute.NewDisksClient(sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if c.images, err = armcompute.NewVirtualMachineImagesClient(sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	if c.accounts, err = armstorage.NewAccountsClient(sub, cred, opts); err != nil {
		return nil, errors.Trace(err)
	}
	return c, nil
}

// ImageVersions returns the lister of platform image versions.
func (c *AzureClient) ImageVersions() imageutils.ImageVersionLister {
	return c.images
}

// notFound normalises a provider "not found" answer to errors.NotFound.
// Other errors are annotated with what was being fetched.
func notFound(err error, format string, args ...interface{}) error {
	if errorutils.IsNotFoundError(err) {
		return errors.NotFoundf(format, args...)
	}
	return errors.Annotatef(err, "getting "+format, args...)
}

// awaitDone waits for a long running operation to complete.
func awaitDone[T any](ctx context.Context, poller *runtime.Poller[T], frequency time.Duration) (T, error) {
	resp, err := poller.PollUntilDone(ctx, &runtime.PollUntilDoneOptions{Frequency: frequency})
	if err != nil {
		return resp, asyncError(err)
	}
	return resp, nil
}

func toValue[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

func toTagPtrs(tags Tags) map[string]*string {
	if len(tags) == 0 {
		return nil
	}
	result := make(map[string]*string, len(tags))
	for k, v := range tags {
		result[k] = to.Ptr(v)
	}
	return result
}

func fromTagPtrs(tags map[string]*string) Tags {
	if len(tags) == 0 {
		return nil
	}
	result := make(Tags, len(tags))
	for k, v := range tags {
		result[k] = toValue(v)
	}
	return result
}

// GetResourceGroup is part of the Client interface.
func (c *AzureClient) GetResourceGroup(ctx context.Context, name string) (ResourceGroup, error) {
	logger.Debugf("getting resource group %q", name)
	var resp armresources.ResourceGroupsClientGetResponse
	err := c.caller.call(func() (err error) {
		resp, err = c.resourceGroups.Get(ctx, name, nil)
		return err
	})
	if err != nil {
		return ResourceGroup{}, notFound(err, "resource group %q", name)
	}
	return ResourceGroup{
		Name:     toValue(resp.Name),
		Location: toValue(resp.Location),
	}, nil
}

// CreateResourceGroup is part of the Client interface.
func (c *AzureClient) CreateResourceGroup(ctx context.Context, name, location string) error {
	logger.Debugf("creating resource group %q in %q", name, location)
	err := c.caller.call(func() error {
		_, err := c.resourceGroups.CreateOrUpdate(ctx, name, armresources.ResourceGroup{
			Location: to.Ptr(location),
		}, nil)
		return err
	})
	return errors.Annotatef(err, "creating resource group %q", name)
}

// GetSubnet is part of the Client interface.
func (c *AzureClient) GetSubnet(ctx context.Context, resourceGroup, vnet, subnet string) (Subnet, error) {
	logger.Debugf("getting subnet %s/%s in %q", vnet, subnet, resourceGroup)
	var resp armnetwork.SubnetsClientGetResponse
	err := c.caller.call(func() (err error) {
		resp, err = c.subnets.Get(ctx, resourceGroup, vnet, subnet, nil)
		return err
	})
	if err != nil {
		return Subnet{}, notFound(err, "subnet %s/%s", vnet, subnet)
	}
	return Subnet{ID: toValue(resp.ID), Name: toValue(resp.Name)}, nil
}

// GetSecurityGroup is part of the Client interface.
func (c *AzureClient) GetSecurityGroup(ctx context.Context, resourceGroup, name string) (SecurityGroup, error) {
	logger.Debugf("getting network security group %q in %q", name, resourceGroup)
	var resp armnetwork.SecurityGroupsClientGetResponse
	err := c.caller.call(func() (err error) {
		resp, err = c.securityGroups.Get(ctx, resourceGroup, name, nil)
		return err
	})
	if err != nil {
		return SecurityGroup{}, notFound(err, "network security group %q", name)
	}
	return SecurityGroup{ID: toValue(resp.ID), Name: toValue(resp.Name)}, nil
}

func toPublicIP(ip *armnetwork.PublicIPAddress) PublicIP {
	result := PublicIP{
		ID:       toValue(ip.ID),
		Name:     toValue(ip.Name),
		Location: toValue(ip.Location),
	}
	if props := ip.Properties; props != nil {
		result.IPAddress = toValue(props.IPAddress)
		result.IdleTimeoutInMinutes = int(toValue(props.IdleTimeoutInMinutes))
	}
	return result
}

// GetPublicIP is part of the Client interface.
func (c *AzureClient) GetPublicIP(ctx context.Context, resourceGroup, name string) (PublicIP, error) {
	logger.Debugf("getting public IP %q in %q", name, resourceGroup)
	var resp armnetwork.PublicIPAddressesClientGetResponse
	err := c.caller.call(func() (err error) {
		resp, err = c.publicIPs.Get(ctx, resourceGroup, name, nil)
		return err
	})
	if err != nil {
		return PublicIP{}, notFound(err, "public IP %q", name)
	}
	return toPublicIP(&resp.PublicIPAddress), nil
}

// ListPublicIPs is part of the Client interface.
func (c *AzureClient) ListPublicIPs(ctx context.Context, resourceGroup string) ([]PublicIP, error) {
	logger.Debugf("listing public IPs in %q", resourceGroup)
	var result []PublicIP
	pager := c.publicIPs.NewListPager(resourceGroup, nil)
	for pager.More() {
		var next armnetwork.PublicIPAddressesClientListResponse
		err := c.caller.call(func() (err error) {
			next, err = pager.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, errors.Annotatef(err, "listing public IPs in %q", resourceGroup)
		}
		for _, ip := range next.Value {
			if ip == nil {
				continue
			}
			result = append(result, toPublicIP(ip))
		}
	}
	return result, nil
}

// CreatePublicIP is part of the Client interface.
func (c *AzureClient) CreatePublicIP(ctx context.Context, resourceGroup string, params PublicIPParams) error {
	logger.Debugf("creating public IP %q in %q", params.Name, resourceGroup)
	method := armnetwork.IPAllocationMethodDynamic
	if params.Static {
		method = armnetwork.IPAllocationMethodStatic
	}
	ip := armnetwork.PublicIPAddress{
		Location: to.Ptr(params.Location),
		Tags:     toTagPtrs(params.Tags),
		Properties: &armnetwork.PublicIPAddressPropertiesFormat{
			PublicIPAllocationMethod: to.Ptr(method),
			IdleTimeoutInMinutes:     to.Ptr(int32(params.IdleTimeoutInMinutes)),
		},
	}
	err := c.caller.call(func() error {
		poller, err := c.publicIPs.BeginCreateOrUpdate(ctx, resourceGroup, params.Name, ip, nil)
		if err == nil {
			_, err = awaitDone(ctx, poller, c.pollFrequency)
		}
		return err
	})
	return errors.Annotatef(err, "creating public IP %q", params.Name)
}

// DeletePublicIP is part of the Client interface.
func (c *AzureClient) DeletePublicIP(ctx context.Context, resourceGroup, name string) error {
	logger.Debugf("deleting public IP %q in %q", name, resourceGroup)
	err := c.caller.call(func() error {
		poller, err := c.publicIPs.BeginDelete(ctx, resourceGroup, name, nil)
		if err == nil {
			_, err = awaitDone(ctx, poller, c.pollFrequency)
		}
		return err
	})
	if err != nil && !errorutils.IsNotFoundError(err) {
		return errors.Annotatef(err, "deleting public IP %q", name)
	}
	return nil
}

// GetLoadBalancer is part of the Client interface.
func (c *AzureClient) GetLoadBalancer(ctx context.Context, resourceGroup, name string) (LoadBalancer, error) {
	logger.Debugf("getting load balancer %q in %q", name, resourceGroup)
	var resp armnetwork.LoadBalancersClientGetResponse
	err := c.caller.call(func() (err error) {
		resp, err = c.loadBalancers.Get(ctx, resourceGroup, name, nil)
		return err
	})
	if err != nil {
		return LoadBalancer{}, notFound(err, "load balancer %q", name)
	}
	lb := LoadBalancer{ID: toValue(resp.ID), Name: toValue(resp.Name)}
	if resp.Properties != nil {
		for _, pool := range resp.Properties.BackendAddressPools {
			if pool != nil && pool.ID != nil {
				lb.BackendAddressPoolIDs = append(lb.BackendAddressPoolIDs, *pool.ID)
			}
		}
	}
	return lb, nil
}

// CreateNetworkInterface is part of the Client interface.
func (c *AzureClient) CreateNetworkInterface(ctx context.Context, resourceGroup string, params NetworkInterfaceParams) error {
	logger.Debugf("creating network interface %q in %q", params.Name, resourceGroup)
	ipProps := &armnetwork.InterfaceIPConfigurationPropertiesFormat{
		Subnet:                    &armnetwork.Subnet{ID: to.Ptr(params.Subnet.ID)},
		PrivateIPAllocationMethod: to.Ptr(armnetwork.IPAllocationMethodDynamic),
		Primary:                   to.Ptr(true),
	}
	if params.PrivateIP != "" {
		ipProps.PrivateIPAddress = to.Ptr(params.PrivateIP)
		ipProps.PrivateIPAllocationMethod = to.Ptr(armnetwork.IPAllocationMethodStatic)
	}
	if params.PublicIP != nil {
		ipProps.PublicIPAddress = &armnetwork.PublicIPAddress{ID: to.Ptr(params.PublicIP.ID)}
	}
	if params.LoadBalancer != nil {
		for _, id := range params.LoadBalancer.BackendAddressPoolIDs {
			ipProps.LoadBalancerBackendAddressPools = append(
				ipProps.LoadBalancerBackendAddressPools,
				&armnetwork.BackendAddressPool{ID: to.Ptr(id)},
			)
		}
	}
	nic := armnetwork.Interface{
		Location: to.Ptr(params.Location),
		Tags:     toTagPtrs(params.Tags),
		Properties: &armnetwork.InterfacePropertiesFormat{
			IPConfigurations: []*armnetwork.InterfaceIPConfiguration{{
				Name:       to.Ptr(params.IPConfigName),
				Properties: ipProps,
			}},
		},
	}
	if params.SecurityGroup != nil {
		nic.Properties.NetworkSecurityGroup = &armnetwork.SecurityGroup{ID: to.Ptr(params.SecurityGroup.ID)}
	}
	err := c.caller.call(func() error {
		poller, err := c.interfaces.BeginCreateOrUpdate(ctx, resourceGroup, params.Name, nic, nil)
		if err == nil {
			_, err = awaitDone(ctx, poller, c.pollFrequency)
		}
		return err
	})
	return errors.Annotatef(err, "creating network interface %q", params.Name)
}

func toNetworkInterface(nic *armnetwork.Interface) NetworkInterface {
	result := NetworkInterface{ID: toValue(nic.ID), Name: toValue(nic.Name)}
	if nic.Properties == nil {
		return result
	}
	for _, ipConfig := range nic.Properties.IPConfigurations {
		if ipConfig == nil || ipConfig.Properties == nil {
			continue
		}
		result.PrivateIP = toValue(ipConfig.Properties.PrivateIPAddress)
		if pip := ipConfig.Properties.PublicIPAddress; pip != nil {
			result.PublicIPID = toValue(pip.ID)
		}
		break
	}
	return result
}

// GetNetworkInterface is part of the Client interface.
func (c *AzureClient) GetNetworkInterface(ctx context.Context, resourceGroup, name string) (NetworkInterface, error) {
	logger.Debugf("getting network interface %q in %q", name, resourceGroup)
	var resp armnetwork.InterfacesClientGetResponse
	err := c.caller.call(func() (err error) {
		resp, err = c.interfaces.Get(ctx, resourceGroup, name, nil)
		return err
	})
	if err != nil {
		return NetworkInterface{}, notFound(err, "network interface %q", name)
	}
	return toNetworkInterface(&resp.Interface), nil
}

// DeleteNetworkInterface is part of the Client interface.
func (c *AzureClient) DeleteNetworkInterface(ctx context.Context, resourceGroup, name string) error {
	logger.Debugf("deleting network interface %q in %q", name, resourceGroup)
	err := c.caller.call(func() error {
		poller, err := c.interfaces.BeginDelete(ctx, resourceGroup, name, nil)
		if err == nil {
			_, err = awaitDone(ctx, poller, c.pollFrequency)
		}
		return err
	})
	if err != nil && !errorutils.IsNotFoundError(err) {
		return errors.Annotatef(err, "deleting network interface %q", name)
	}
	return nil
}

// ListNetworkInterfacesByKeyword is part of the Client interface.
func (c *AzureClient) ListNetworkInterfacesByKeyword(ctx context.Context, resourceGroup, keyword string) ([]NetworkInterface, error) {
	logger.Debugf("listing network interfaces matching %q in %q", keyword, resourceGroup)
	var result []NetworkInterface
	pager := c.interfaces.NewListPager(resourceGroup, nil)
	for pager.More() {
		var next armnetwork.InterfacesClientListResponse
		err := c.caller.call(func() (err error) {
			next, err = pager.NextPage(ctx)
			return err
		})
		if errorutils.IsNotFoundError(err) {
			// The resource group does not exist yet.
			return nil, nil
		}
		if err != nil {
			return nil, errors.Annotatef(err, "listing network interfaces in %q", resourceGroup)
		}
		for _, nic := range next.Value {
			if nic == nil || !IsInterfaceOf(toValue(nic.Name), keyword) {
				continue
			}
			result = append(result, toNetworkInterface(nic))
		}
	}
	return result, nil
}

// GetAvailabilitySet is part of the Client interface.
func (c *AzureClient) GetAvailabilitySet(ctx context.Context, resourceGroup, name string) (AvailabilitySet, error) {
	logger.Debugf("getting availability set %q in %q", name, resourceGroup)
	var resp armcompute.AvailabilitySetsClientGetResponse
	err := c.caller.call(func() (err error) {
		resp, err = c.availSets.Get(ctx, resourceGroup, name, nil)
		return err
	})
	if err != nil {
		return AvailabilitySet{}, notFound(err, "availability set %q", name)
	}
	avset := AvailabilitySet{
		ID:       toValue(resp.ID),
		Name:     toValue(resp.Name),
		Location: toValue(resp.Location),
		Tags:     fromTagPtrs(resp.Tags),
	}
	if resp.SKU != nil {
		avset.Managed = strings.EqualFold(toValue(resp.SKU.Name), avsetSKUAligned)
	}
	if props := resp.Properties; props != nil {
		avset.PlatformUpdateDomainCount = int(toValue(props.PlatformUpdateDomainCount))
		avset.PlatformFaultDomainCount = int(toValue(props.PlatformFaultDomainCount))
		for _, vm := range props.VirtualMachines {
			if vm != nil && vm.ID != nil {
				avset.VirtualMachines = append(avset.VirtualMachines, *vm.ID)
			}
		}
	}
	return avset, nil
}

// CreateAvailabilitySet is part of the Client interface.
func (c *AzureClient) CreateAvailabilitySet(ctx context.Context, resourceGroup string, params AvailabilitySet) error {
	logger.Debugf("creating availability set %q in %q (managed: %v)", params.Name, resourceGroup, params.Managed)
	sku := avsetSKUClassic
	if params.Managed {
		sku = avsetSKUAligned
	}
	avset := armcompute.AvailabilitySet{
		Location: to.Ptr(params.Location),
		Tags:     toTagPtrs(params.Tags),
		SKU:      &armcompute.SKU{Name: to.Ptr(sku)},
		Properties: &armcompute.AvailabilitySetProperties{
			PlatformUpdateDomainCount: to.Ptr(int32(params.PlatformUpdateDomainCount)),
			PlatformFaultDomainCount:  to.Ptr(int32(params.PlatformFaultDomainCount)),
		},
	}
	err := c.caller.call(func() error {
		_, err := c.availSets.CreateOrUpdate(ctx, resourceGroup, params.Name, avset, nil)
		return err
	})
	return errors.Annotatef(err, "creating availability set %q", params.Name)
}

// CreateVirtualMachine is part of the Client interface.
func (c *AzureClient) CreateVirtualMachine(
	ctx context.Context,
	resourceGroup string,
	params VirtualMachineParams,
	nics []NetworkInterface,
	avset *AvailabilitySet,
) error {
	logger.Debugf("creating virtual machine %q in %q", params.Name, resourceGroup)
	vm := virtualMachine(params, nics, avset)
	// Submitted once; the caller decides whether a failure is retried.
	poller, err := c.vms.BeginCreateOrUpdate(ctx, resourceGroup, params.Name, vm, nil)
	if err != nil {
		return errors.Annotatef(err, "creating virtual machine %q", params.Name)
	}
	if _, err := awaitDone(ctx, poller, c.pollFrequency); err != nil {
		return errors.Annotatef(err, "creating virtual machine %q", params.Name)
	}
	return nil
}

// DeleteVirtualMachine is part of the Client interface.
func (c *AzureClient) DeleteVirtualMachine(ctx context.Context, resourceGroup, name string) error {
	logger.Debugf("deleting virtual machine %q in %q", name, resourceGroup)
	err := c.caller.call(func() error {
		poller, err := c.vms.BeginDelete(ctx, resourceGroup, name, nil)
		if err == nil {
			_, err = awaitDone(ctx, poller, c.pollFrequency)
		}
		return err
	})
	if err != nil && !errorutils.IsNotFoundError(err) {
		return errors.Annotatef(err, "deleting virtual machine %q", name)
	}
	return nil
}

// RestartVirtualMachine is part of the Client interface.
func (c *AzureClient) RestartVirtualMachine(ctx context.Context, resourceGroup, name string) error {
	logger.Debugf("restarting virtual machine %q in %q", name, resourceGroup)
	err := c.caller.call(func() error {
		poller, err := c.vms.BeginRestart(ctx, resourceGroup, name, nil)
		if err == nil {
			_, err = awaitDone(ctx, poller, c.pollFrequency)
		}
		return err
	})
	return errors.Annotatef(err, "restarting virtual machine %q", name)
}

// GetStorageAccount is part of the Client interface.
func (c *AzureClient) GetStorageAccount(ctx context.Context, resourceGroup, name string) (StorageAccount, error) {
	logger.Debugf("getting storage account %q in %q", name, resourceGroup)
	var resp armstorage.AccountsClientGetPropertiesResponse
	err := c.caller.call(func() (err error) {
		resp, err = c.accounts.GetProperties(ctx, resourceGroup, name, nil)
		return err
	})
	if err != nil {
		return StorageAccount{}, notFound(err, "storage account %q", name)
	}
	account := StorageAccount{
		ID:       toValue(resp.ID),
		Name:     toValue(resp.Name),
		Location: toValue(resp.Location),
	}
	if resp.Properties != nil && resp.Properties.PrimaryEndpoints != nil {
		account.BlobEndpoint = toValue(resp.Properties.PrimaryEndpoints.Blob)
	}
	return account, nil
}

// DeleteManagedDisk is part of the Client interface.
func (c *AzureClient) DeleteManagedDisk(ctx context.Context, resourceGroup, name string) error {
	logger.Debugf("deleting managed disk %q in %q", name, resourceGroup)
	err := c.caller.call(func() error {
		poller, err := c.disks.BeginDelete(ctx, resourceGroup, name, nil)
		if err == nil {
			_, err = awaitDone(ctx, poller, c.pollFrequency)
		}
		return err
	})
	if err != nil && !errorutils.IsNotFoundError(err) {
		return errors.Annotatef(err, "deleting managed disk %q", name)
	}
	return nil
}
