// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package clienttesting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/juju/errors"
	"github.com/juju/testing"

	"github.com/juju/azure-cpi/internal/azureclient"
)

// FakeClient is an in-memory azureclient.Client. Every call is recorded
// on the embedded Stub. Resources created through the fake can be read
// back; resources may also be seeded directly through the Add methods.
type FakeClient struct {
	testing.Stub

	mu                sync.Mutex
	methodErrors      map[string][]error
	resourceGroups    map[string]azureclient.ResourceGroup
	subnets           map[string]azureclient.Subnet
	securityGroups    map[string]azureclient.SecurityGroup
	publicIPs         map[string]azureclient.PublicIP
	loadBalancers     map[string]azureclient.LoadBalancer
	networkInterfaces map[string]azureclient.NetworkInterface
	availabilitySets  map[string]azureclient.AvailabilitySet
	storageAccounts   map[string]azureclient.StorageAccount
	virtualMachines   map[string]azureclient.VirtualMachineParams

	// CreatedNetworkInterfaces records the parameters of every
	// successful CreateNetworkInterface call, in order.
	CreatedNetworkInterfaces []azureclient.NetworkInterfaceParams
	// CreatedPublicIPs records the parameters of every successful
	// CreatePublicIP call, in order.
	CreatedPublicIPs []azureclient.PublicIPParams
	// CreatedAvailabilitySets records the parameters of every
	// successful CreateAvailabilitySet call, in order.
	CreatedAvailabilitySets []azureclient.AvailabilitySet
	// CreatedVirtualMachines records the parameters of every
	// CreateVirtualMachine call, successful or not, in order.
	CreatedVirtualMachines []azureclient.VirtualMachineParams
}

var _ azureclient.Client = (*FakeClient)(nil)

// NewFakeClient returns an empty FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		methodErrors:      make(map[string][]error),
		resourceGroups:    make(map[string]azureclient.ResourceGroup),
		subnets:           make(map[string]azureclient.Subnet),
		securityGroups:    make(map[string]azureclient.SecurityGroup),
		publicIPs:         make(map[string]azureclient.PublicIP),
		loadBalancers:     make(map[string]azureclient.LoadBalancer),
		networkInterfaces: make(map[string]azureclient.NetworkInterface),
		availabilitySets:  make(map[string]azureclient.AvailabilitySet),
		storageAccounts:   make(map[string]azureclient.StorageAccount),
		virtualMachines:   make(map[string]azureclient.VirtualMachineParams),
	}
}

// SetMethodErrors queues errors to be returned by successive calls of
// the named method. A nil entry lets that call succeed. Once the queue
// is drained the method succeeds.
func (f *FakeClient) SetMethodErrors(method string, errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methodErrors[method] = append(f.methodErrors[method], errs...)
}

func (f *FakeClient) call(method string, args ...interface{}) error {
	f.AddCall(method, args...)
	f.mu.Lock()
	defer f.mu.Unlock()
	errs := f.methodErrors[method]
	if len(errs) == 0 {
		return nil
	}
	f.methodErrors[method] = errs[1:]
	return errs[0]
}

func key(parts ...string) string {
	return strings.Join(parts, "/")
}

func resourceID(rg, provider, name string) string {
	return fmt.Sprintf("/subscriptions/sub/resourceGroups/%s/providers/%s/%s", rg, provider, name)
}

// AddResourceGroup seeds a resource group.
func (f *FakeClient) AddResourceGroup(name, location string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resourceGroups[name] = azureclient.ResourceGroup{Name: name, Location: location}
}

// AddSubnet seeds a subnet and returns it.
func (f *FakeClient) AddSubnet(rg, vnet, name string) azureclient.Subnet {
	f.mu.Lock()
	defer f.mu.Unlock()
	subnet := azureclient.Subnet{
		ID:   resourceID(rg, "Microsoft.Network/virtualNetworks", vnet+"/subnets/"+name),
		Name: name,
	}
	f.subnets[key(rg, vnet, name)] = subnet
	return subnet
}

// AddSecurityGroup seeds a network security group and returns it.
func (f *FakeClient) AddSecurityGroup(rg, name string) azureclient.SecurityGroup {
	f.mu.Lock()
	defer f.mu.Unlock()
	nsg := azureclient.SecurityGroup{
		ID:   resourceID(rg, "Microsoft.Network/networkSecurityGroups", name),
		Name: name,
	}
	f.securityGroups[key(rg, name)] = nsg
	return nsg
}

// AddPublicIP seeds a public IP and returns it.
func (f *FakeClient) AddPublicIP(rg string, ip azureclient.PublicIP) azureclient.PublicIP {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ip.ID == "" {
		ip.ID = resourceID(rg, "Microsoft.Network/publicIPAddresses", ip.Name)
	}
	f.publicIPs[key(rg, ip.Name)] = ip
	return ip
}

// AddLoadBalancer seeds a load balancer and returns it.
func (f *FakeClient) AddLoadBalancer(rg, name string) azureclient.LoadBalancer {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := resourceID(rg, "Microsoft.Network/loadBalancers", name)
	lb := azureclient.LoadBalancer{
		ID:                    id,
		Name:                  name,
		BackendAddressPoolIDs: []string{id + "/backendAddressPools/pool"},
	}
	f.loadBalancers[key(rg, name)] = lb
	return lb
}

// AddNetworkInterface seeds a network interface and returns it.
func (f *FakeClient) AddNetworkInterface(rg, name string) azureclient.NetworkInterface {
	f.mu.Lock()
	defer f.mu.Unlock()
	nic := azureclient.NetworkInterface{
		ID:   resourceID(rg, "Microsoft.Network/networkInterfaces", name),
		Name: name,
	}
	f.networkInterfaces[key(rg, name)] = nic
	return nic
}

// AddAvailabilitySet seeds an availability set and returns it.
func (f *FakeClient) AddAvailabilitySet(rg string, avset azureclient.AvailabilitySet) azureclient.AvailabilitySet {
	f.mu.Lock()
	defer f.mu.Unlock()
	if avset.ID == "" {
		avset.ID = resourceID(rg, "Microsoft.Compute/availabilitySets", avset.Name)
	}
	f.availabilitySets[key(rg, avset.Name)] = avset
	return avset
}

// AddStorageAccount seeds a storage account.
func (f *FakeClient) AddStorageAccount(rg string, account azureclient.StorageAccount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storageAccounts[key(rg, account.Name)] = account
}

// NetworkInterfaceNames returns the names of the network interfaces
// which currently exist in the resource group, sorted.
func (f *FakeClient) NetworkInterfaceNames(rg string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for k, nic := range f.networkInterfaces {
		if strings.HasPrefix(k, rg+"/") {
			names = append(names, nic.Name)
		}
	}
	sort.Strings(names)
	return names
}

// HasPublicIP reports whether the named public IP exists.
func (f *FakeClient) HasPublicIP(rg, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.publicIPs[key(rg, name)]
	return ok
}

// HasVirtualMachine reports whether the named VM exists.
func (f *FakeClient) HasVirtualMachine(rg, name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.virtualMachines[key(rg, name)]
	return ok
}

// GetResourceGroup is part of the azureclient.Client interface.
func (f *FakeClient) GetResourceGroup(_ context.Context, name string) (azureclient.ResourceGroup, error) {
	if err := f.call("GetResourceGroup", name); err != nil {
		return azureclient.ResourceGroup{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	group, ok := f.resourceGroups[name]
	if !ok {
		return azureclient.ResourceGroup{}, errors.NotFoundf("resource group %q", name)
	}
	return group, nil
}

// CreateResourceGroup is part of the azureclient.Client interface.
func (f *FakeClient) CreateResourceGroup(_ context.Context, name, location string) error {
	if err := f.call("CreateResourceGroup", name, location); err != nil {
		return err
	}
	f.AddResourceGroup(name, location)
	return nil
}

// GetSubnet is part of the azureclient.Client interface.
func (f *FakeClient) GetSubnet(_ context.Context, rg, vnet, subnet string) (azureclient.Subnet, error) {
	if err := f.call("GetSubnet", rg, vnet, subnet); err != nil {
		return azureclient.Subnet{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	result, ok := f.subnets[key(rg, vnet, subnet)]
	if !ok {
		return azureclient.Subnet{}, errors.NotFoundf("subnet %s/%s", vnet, subnet)
	}
	return result, nil
}

// GetSecurityGroup is part of the azureclient.Client interface.
func (f *FakeClient) GetSecurityGroup(_ context.Context, rg, name string) (azureclient.SecurityGroup, error) {
	if err := f.call("GetSecurityGroup", rg, name); err != nil {
		return azureclient.SecurityGroup{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	nsg, ok := f.securityGroups[key(rg, name)]
	if !ok {
		return azureclient.SecurityGroup{}, errors.NotFoundf("network security group %q", name)
	}
	return nsg, nil
}

// GetPublicIP is part of the azureclient.Client interface.
func (f *FakeClient) GetPublicIP(_ context.Context, rg, name string) (azureclient.PublicIP, error) {
	if err := f.call("GetPublicIP", rg, name); err != nil {
		return azureclient.PublicIP{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ip, ok := f.publicIPs[key(rg, name)]
	if !ok {
		return azureclient.PublicIP{}, errors.NotFoundf("public IP %q", name)
	}
	return ip, nil
}

// ListPublicIPs is part of the azureclient.Client interface.
func (f *FakeClient) ListPublicIPs(_ context.Context, rg string) ([]azureclient.PublicIP, error) {
	if err := f.call("ListPublicIPs", rg); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []azureclient.PublicIP
	for k, ip := range f.publicIPs {
		if strings.HasPrefix(k, rg+"/") {
			result = append(result, ip)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// CreatePublicIP is part of the azureclient.Client interface.
func (f *FakeClient) CreatePublicIP(_ context.Context, rg string, params azureclient.PublicIPParams) error {
	if err := f.call("CreatePublicIP", rg, params); err != nil {
		return err
	}
	f.AddPublicIP(rg, azureclient.PublicIP{
		Name:                 params.Name,
		Location:             params.Location,
		IdleTimeoutInMinutes: params.IdleTimeoutInMinutes,
	})
	f.mu.Lock()
	f.CreatedPublicIPs = append(f.CreatedPublicIPs, params)
	f.mu.Unlock()
	return nil
}

// DeletePublicIP is part of the azureclient.Client interface.
func (f *FakeClient) DeletePublicIP(_ context.Context, rg, name string) error {
	if err := f.call("DeletePublicIP", rg, name); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.publicIPs, key(rg, name))
	return nil
}

// GetLoadBalancer is part of the azureclient.Client interface.
func (f *FakeClient) GetLoadBalancer(_ context.Context, rg, name string) (azureclient.LoadBalancer, error) {
	if err := f.call("GetLoadBalancer", rg, name); err != nil {
		return azureclient.LoadBalancer{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	lb, ok := f.loadBalancers[key(rg, name)]
	if !ok {
		return azureclient.LoadBalancer{}, errors.NotFoundf("load balancer %q", name)
	}
	return lb, nil
}

// CreateNetworkInterface is part of the azureclient.Client interface.
func (f *FakeClient) CreateNetworkInterface(_ context.Context, rg string, params azureclient.NetworkInterfaceParams) error {
	if err := f.call("CreateNetworkInterface", rg, params); err != nil {
		return err
	}
	nic := f.AddNetworkInterface(rg, params.Name)
	f.mu.Lock()
	defer f.mu.Unlock()
	nic.PrivateIP = params.PrivateIP
	if params.PublicIP != nil {
		nic.PublicIPID = params.PublicIP.ID
	}
	f.networkInterfaces[key(rg, params.Name)] = nic
	f.CreatedNetworkInterfaces = append(f.CreatedNetworkInterfaces, params)
	return nil
}

// GetNetworkInterface is part of the azureclient.Client interface.
func (f *FakeClient) GetNetworkInterface(_ context.Context, rg, name string) (azureclient.NetworkInterface, error) {
	if err := f.call("GetNetworkInterface", rg, name); err != nil {
		return azureclient.NetworkInterface{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	nic, ok := f.networkInterfaces[key(rg, name)]
	if !ok {
		return azureclient.NetworkInterface{}, errors.NotFoundf("network interface %q", name)
	}
	return nic, nil
}

// DeleteNetworkInterface is part of the azureclient.Client interface.
func (f *FakeClient) DeleteNetworkInterface(_ context.Context, rg, name string) error {
	if err := f.call("DeleteNetworkInterface", rg, name); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.networkInterfaces, key(rg, name))
	return nil
}

// ListNetworkInterfacesByKeyword is part of the azureclient.Client interface.
func (f *FakeClient) ListNetworkInterfacesByKeyword(_ context.Context, rg, keyword string) ([]azureclient.NetworkInterface, error) {
	if err := f.call("ListNetworkInterfacesByKeyword", rg, keyword); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []azureclient.NetworkInterface
	for k, nic := range f.networkInterfaces {
		if strings.HasPrefix(k, rg+"/") && azureclient.IsInterfaceOf(nic.Name, keyword) {
			result = append(result, nic)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// GetAvailabilitySet is part of the azureclient.Client interface.
func (f *FakeClient) GetAvailabilitySet(_ context.Context, rg, name string) (azureclient.AvailabilitySet, error) {
	if err := f.call("GetAvailabilitySet", rg, name); err != nil {
		return azureclient.AvailabilitySet{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	avset, ok := f.availabilitySets[key(rg, name)]
	if !ok {
		return azureclient.AvailabilitySet{}, errors.NotFoundf("availability set %q", name)
	}
	return avset, nil
}

// CreateAvailabilitySet is part of the azureclient.Client interface.
func (f *FakeClient) CreateAvailabilitySet(_ context.Context, rg string, params azureclient.AvailabilitySet) error {
	if err := f.call("CreateAvailabilitySet", rg, params); err != nil {
		return err
	}
	f.AddAvailabilitySet(rg, params)
	f.mu.Lock()
	f.CreatedAvailabilitySets = append(f.CreatedAvailabilitySets, params)
	f.mu.Unlock()
	return nil
}

// CreateVirtualMachine is part of the azureclient.Client interface.
func (f *FakeClient) CreateVirtualMachine(
	_ context.Context,
	rg string,
	params azureclient.VirtualMachineParams,
	nics []azureclient.NetworkInterface,
	avset *azureclient.AvailabilitySet,
) error {
	err := f.call("CreateVirtualMachine", rg, params, nics, avset)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreatedVirtualMachines = append(f.CreatedVirtualMachines, params)
	if err != nil {
		return err
	}
	f.virtualMachines[key(rg, params.Name)] = params
	return nil
}

// DeleteVirtualMachine is part of the azureclient.Client interface.
func (f *FakeClient) DeleteVirtualMachine(_ context.Context, rg, name string) error {
	if err := f.call("DeleteVirtualMachine", rg, name); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.virtualMachines, key(rg, name))
	return nil
}

// RestartVirtualMachine is part of the azureclient.Client interface.
func (f *FakeClient) RestartVirtualMachine(_ context.Context, rg, name string) error {
	return f.call("RestartVirtualMachine", rg, name)
}

// GetStorageAccount is part of the azureclient.Client interface.
func (f *FakeClient) GetStorageAccount(_ context.Context, rg, name string) (azureclient.StorageAccount, error) {
	if err := f.call("GetStorageAccount", rg, name); err != nil {
		return azureclient.StorageAccount{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.storageAccounts[key(rg, name)]
	if !ok {
		return azureclient.StorageAccount{}, errors.NotFoundf("storage account %q", name)
	}
	return account, nil
}

// DeleteManagedDisk is part of the azureclient.Client interface.
func (f *FakeClient) DeleteManagedDisk(_ context.Context, rg, name string) error {
	return f.call("DeleteManagedDisk", rg, name)
}
