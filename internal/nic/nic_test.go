// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package nic_test

import (
	"context"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/azure-cpi/internal/azureclient"
	"github.com/juju/azure-cpi/internal/azureclient/clienttesting"
	"github.com/juju/azure-cpi/internal/cpierrors"
	"github.com/juju/azure-cpi/internal/nic"
	"github.com/juju/azure-cpi/internal/resolver"
)

const (
	defaultRG  = "default-rg"
	instanceRG = "instance-rg"
	vmName     = "vm-1234"
)

type provisionerSuite struct {
	testing.IsolationSuite

	client      *clienttesting.FakeClient
	provisioner *nic.Provisioner

	subnet azureclient.Subnet
	nsg    azureclient.SecurityGroup
}

var _ = gc.Suite(&provisionerSuite{})

func (s *provisionerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.client = clienttesting.NewFakeClient()
	s.subnet = s.client.AddSubnet(defaultRG, "vnet", "subnet")
	s.nsg = s.client.AddSecurityGroup(defaultRG, "default-nsg")
	s.provisioner = nic.NewProvisioner(s.client, resolver.New(s.client, defaultRG), "default-nsg", 0)
}

func (s *provisionerSuite) request(networks ...nic.NetworkSpec) nic.Request {
	if len(networks) == 0 {
		networks = []nic.NetworkSpec{{VirtualNetwork: "vnet", Subnet: "subnet"}}
	}
	return nic.Request{
		ResourceGroup: instanceRG,
		VMName:        vmName,
		Location:      "westus",
		Networks:      networks,
		Tags:          azureclient.Tags{"user-agent": "bosh"},
	}
}

func (s *provisionerSuite) TestValidate(c *gc.C) {
	req := s.request()
	req.VMName = ""
	_, err := s.provisioner.Provision(context.Background(), req)
	c.Assert(err, gc.ErrorMatches, "empty VMName not valid")

	req = s.request()
	req.Networks = nil
	_, err = s.provisioner.Provision(context.Background(), req)
	c.Assert(err, jc.ErrorIs, errors.NotValid)
	s.client.CheckNoCalls(c)
}

func (s *provisionerSuite) TestProvisionTwoNetworks(c *gc.C) {
	s.client.AddSubnet(defaultRG, "vnet", "subnet2")
	req := s.request(
		nic.NetworkSpec{VirtualNetwork: "vnet", Subnet: "subnet", PrivateIP: "10.0.0.5"},
		nic.NetworkSpec{VirtualNetwork: "vnet", Subnet: "subnet2"},
	)
	nics, err := s.provisioner.Provision(context.Background(), req)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(nics, gc.HasLen, 2)
	c.Assert(nics[0].Name, gc.Equals, "vm-1234-0")
	c.Assert(nics[0].PrivateIP, gc.Equals, "10.0.0.5")
	c.Assert(nics[1].Name, gc.Equals, "vm-1234-1")

	created := s.client.CreatedNetworkInterfaces
	c.Assert(created, gc.HasLen, 2)
	c.Assert(created[0].IPConfigName, gc.Equals, "ipconfig0")
	c.Assert(created[1].IPConfigName, gc.Equals, "ipconfig1")
	c.Assert(created[0].Subnet, jc.DeepEquals, s.subnet)
	c.Assert(created[1].Subnet.Name, gc.Equals, "subnet2")
	c.Assert(created[0].SecurityGroup, jc.DeepEquals, &s.nsg)
	c.Assert(created[0].PublicIP, gc.IsNil)
	c.Assert(created[0].LoadBalancer, gc.IsNil)
	c.Assert(created[0].Location, gc.Equals, "westus")
	c.Assert(created[0].Tags, jc.DeepEquals, azureclient.Tags{"user-agent": "bosh"})
	c.Assert(s.client.CreatedPublicIPs, gc.HasLen, 0)
}

func (s *provisionerSuite) TestResolvesEverythingBeforeCreating(c *gc.C) {
	req := s.request(
		nic.NetworkSpec{VirtualNetwork: "vnet", Subnet: "subnet"},
		nic.NetworkSpec{VirtualNetwork: "vnet", Subnet: "missing"},
	)
	_, err := s.provisioner.Provision(context.Background(), req)
	c.Assert(err, gc.ErrorMatches, "Cannot find the subnet `vnet/missing' in the resource group `default-rg'")
	c.Assert(cpierrors.IsResolution(err), jc.IsTrue)
	c.Assert(s.client.CreatedNetworkInterfaces, gc.HasLen, 0)
}

func (s *provisionerSuite) TestSecurityGroupPrecedence(c *gc.C) {
	s.client.AddSecurityGroup(defaultRG, "network-nsg")
	directive := s.client.AddSecurityGroup("network-rg", "directive-nsg")
	s.client.AddSubnet("network-rg", "vnet", "subnet")

	req := s.request(
		nic.NetworkSpec{ResourceGroup: "network-rg", VirtualNetwork: "vnet", Subnet: "subnet", SecurityGroup: "network-nsg"},
	)
	req.SecurityGroup = "directive-nsg"
	_, err := s.provisioner.Provision(context.Background(), req)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(s.client.CreatedNetworkInterfaces[0].SecurityGroup, jc.DeepEquals, &directive)
}

func (s *provisionerSuite) TestNetworkSecurityGroupFallsBackToDefaultResourceGroup(c *gc.C) {
	networkNSG := s.client.AddSecurityGroup(defaultRG, "network-nsg")
	s.client.AddSubnet("network-rg", "vnet", "subnet")

	req := s.request(
		nic.NetworkSpec{ResourceGroup: "network-rg", VirtualNetwork: "vnet", Subnet: "subnet", SecurityGroup: "network-nsg"},
	)
	_, err := s.provisioner.Provision(context.Background(), req)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(s.client.CreatedNetworkInterfaces[0].SecurityGroup, jc.DeepEquals, &networkNSG)
	s.client.CheckCall(c, 0, "GetSecurityGroup", "network-rg", "network-nsg")
	s.client.CheckCall(c, 1, "GetSecurityGroup", defaultRG, "network-nsg")
}

func (s *provisionerSuite) TestSecurityGroupNotFound(c *gc.C) {
	req := s.request(nic.NetworkSpec{VirtualNetwork: "vnet", Subnet: "subnet", SecurityGroup: "missing"})
	_, err := s.provisioner.Provision(context.Background(), req)
	c.Assert(err, gc.ErrorMatches, "Cannot find the network security group `missing'")
	c.Assert(s.client.CreatedNetworkInterfaces, gc.HasLen, 0)
}

func (s *provisionerSuite) TestVIPAndLoadBalancerOnPrimaryOnly(c *gc.C) {
	s.client.AddSubnet(defaultRG, "vnet", "subnet2")
	vip := s.client.AddPublicIP("vip-rg", azureclient.PublicIP{Name: "vip", IPAddress: "1.2.3.4"})
	lb := s.client.AddLoadBalancer(defaultRG, "lb")

	req := s.request(
		nic.NetworkSpec{VirtualNetwork: "vnet", Subnet: "subnet"},
		nic.NetworkSpec{VirtualNetwork: "vnet", Subnet: "subnet2"},
	)
	req.VIP = &nic.VIPSpec{ResourceGroup: "vip-rg", PublicIP: "1.2.3.4"}
	req.LoadBalancer = "lb"
	req.AssignDynamicPublicIP = true

	nics, err := s.provisioner.Provision(context.Background(), req)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(nics[0].PublicIPID, gc.Equals, vip.ID)

	created := s.client.CreatedNetworkInterfaces
	c.Assert(created[0].PublicIP, jc.DeepEquals, &vip)
	c.Assert(created[0].LoadBalancer, jc.DeepEquals, &lb)
	c.Assert(created[1].PublicIP, gc.IsNil)
	c.Assert(created[1].LoadBalancer, gc.IsNil)
	// A VIP takes precedence over a dynamic public IP.
	c.Assert(s.client.CreatedPublicIPs, gc.HasLen, 0)
}

func (s *provisionerSuite) TestVIPNotFound(c *gc.C) {
	s.client.AddPublicIP(defaultRG, azureclient.PublicIP{Name: "vip", IPAddress: "1.2.3.5"})
	req := s.request()
	req.VIP = &nic.VIPSpec{PublicIP: "1.2.3.4"}
	_, err := s.provisioner.Provision(context.Background(), req)
	c.Assert(err, gc.ErrorMatches, "Cannot find the public IP address `1.2.3.4' in the resource group `default-rg'")
	c.Assert(cpierrors.IsResolution(err), jc.IsTrue)
}

func (s *provisionerSuite) TestLoadBalancerNotFound(c *gc.C) {
	req := s.request()
	req.LoadBalancer = "missing"
	_, err := s.provisioner.Provision(context.Background(), req)
	c.Assert(err, gc.ErrorMatches, "Cannot find the load balancer `missing'")
	c.Assert(cpierrors.IsResolution(err), jc.IsTrue)
}

func (s *provisionerSuite) TestDynamicPublicIPDefaultIdleTimeout(c *gc.C) {
	req := s.request()
	req.AssignDynamicPublicIP = true
	nics, err := s.provisioner.Provision(context.Background(), req)
	c.Assert(err, jc.ErrorIsNil)

	c.Assert(s.client.CreatedPublicIPs, jc.DeepEquals, []azureclient.PublicIPParams{{
		Name:                 vmName,
		Location:             "westus",
		IdleTimeoutInMinutes: 4,
		Tags:                 azureclient.Tags{"user-agent": "bosh"},
	}})
	c.Assert(s.client.HasPublicIP(instanceRG, vmName), jc.IsTrue)
	pip := s.client.CreatedNetworkInterfaces[0].PublicIP
	c.Assert(pip, gc.NotNil)
	c.Assert(pip.Name, gc.Equals, vmName)
	c.Assert(nics[0].PublicIPID, gc.Equals, pip.ID)
}

func (s *provisionerSuite) TestDynamicPublicIPConfiguredIdleTimeout(c *gc.C) {
	s.provisioner = nic.NewProvisioner(s.client, resolver.New(s.client, defaultRG), "default-nsg", 20)
	req := s.request()
	req.AssignDynamicPublicIP = true
	_, err := s.provisioner.Provision(context.Background(), req)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(s.client.CreatedPublicIPs[0].IdleTimeoutInMinutes, gc.Equals, 20)
}

func (s *provisionerSuite) TestDynamicPublicIPReused(c *gc.C) {
	existing := s.client.AddPublicIP(instanceRG, azureclient.PublicIP{Name: vmName, IPAddress: "5.6.7.8"})
	req := s.request()
	req.AssignDynamicPublicIP = true
	_, err := s.provisioner.Provision(context.Background(), req)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(s.client.CreatedPublicIPs, gc.HasLen, 0)
	c.Assert(s.client.CreatedNetworkInterfaces[0].PublicIP, jc.DeepEquals, &existing)
}

func (s *provisionerSuite) TestDynamicPublicIPError(c *gc.C) {
	s.client.SetMethodErrors("GetPublicIP", errors.New("boom"))
	req := s.request()
	req.AssignDynamicPublicIP = true
	_, err := s.provisioner.Provision(context.Background(), req)
	c.Assert(err, gc.ErrorMatches, "boom")
	c.Assert(s.client.CreatedNetworkInterfaces, gc.HasLen, 0)
}

func (s *provisionerSuite) TestCreateFailureDeletesMatchingInterfaces(c *gc.C) {
	s.client.AddSubnet(defaultRG, "vnet", "subnet2")
	// Left behind by an earlier attempt.
	s.client.AddNetworkInterface(instanceRG, "vm-1234-7")
	s.client.AddNetworkInterface(instanceRG, "other-vm-0")
	s.client.SetMethodErrors("CreateNetworkInterface", nil, errors.New("quota exceeded"))

	req := s.request(
		nic.NetworkSpec{VirtualNetwork: "vnet", Subnet: "subnet"},
		nic.NetworkSpec{VirtualNetwork: "vnet", Subnet: "subnet2"},
	)
	_, err := s.provisioner.Provision(context.Background(), req)
	c.Assert(err, gc.ErrorMatches, `creating network interface "vm-1234-1": quota exceeded`)
	c.Assert(cpierrors.IsNICProvisioning(err), jc.IsTrue)
	c.Assert(s.client.NetworkInterfaceNames(instanceRG), jc.DeepEquals, []string{"other-vm-0"})
	s.client.CheckCall(c, len(s.client.Calls())-3, "ListNetworkInterfacesByKeyword", instanceRG, vmName)
}

func (s *provisionerSuite) TestCreateFailureKeepsSiblingInterfaces(c *gc.C) {
	s.client.AddNetworkInterface(instanceRG, "vm-1234-0")
	s.client.AddNetworkInterface(instanceRG, "vm-12345-0")
	s.client.AddNetworkInterface(instanceRG, "vm-1234a-0")
	s.client.AddNetworkInterface(instanceRG, "vm-1234-data")
	s.client.SetMethodErrors("CreateNetworkInterface", errors.New("quota exceeded"))

	_, err := s.provisioner.Provision(context.Background(), s.request())
	c.Assert(cpierrors.IsNICProvisioning(err), jc.IsTrue)
	c.Assert(s.client.NetworkInterfaceNames(instanceRG), jc.DeepEquals, []string{
		"vm-1234-data", "vm-12345-0", "vm-1234a-0",
	})
}

func (s *provisionerSuite) TestDeleteByKeywordKeepsSiblingInterfaces(c *gc.C) {
	s.client.AddNetworkInterface(instanceRG, "vm-1-0")
	s.client.AddNetworkInterface(instanceRG, "vm-1-12")
	s.client.AddNetworkInterface(instanceRG, "vm-12-0")

	deleted := set.NewStrings()
	err := s.provisioner.DeleteByKeyword(context.Background(), instanceRG, "vm-1", deleted)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(deleted.SortedValues(), jc.DeepEquals, []string{"vm-1-0", "vm-1-12"})
	c.Assert(s.client.NetworkInterfaceNames(instanceRG), jc.DeepEquals, []string{"vm-12-0"})
}

func (s *provisionerSuite) TestCreateFailureCleanupErrorMasks(c *gc.C) {
	s.client.SetMethodErrors("CreateNetworkInterface", errors.New("quota exceeded"))
	s.client.SetMethodErrors("ListNetworkInterfacesByKeyword", errors.New("list failed"))

	_, err := s.provisioner.Provision(context.Background(), s.request())
	c.Assert(err, gc.ErrorMatches, `cleaning up after failed provisioning: listing network interfaces of "vm-1234": list failed`)
	c.Assert(cpierrors.IsCleanup(err), jc.IsTrue)
	c.Assert(cpierrors.IsNICProvisioning(err), jc.IsFalse)
}

func (s *provisionerSuite) TestDeleteInterfacesAtMostOnce(c *gc.C) {
	s.client.AddNetworkInterface(instanceRG, "vm-1234-0")
	s.client.AddNetworkInterface(instanceRG, "vm-1234-1")
	deleted := set.NewStrings("vm-1234-0")

	err := s.provisioner.DeleteByKeyword(context.Background(), instanceRG, vmName, deleted)
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(deleted.SortedValues(), jc.DeepEquals, []string{"vm-1234-0", "vm-1234-1"})
	s.client.CheckCalls(c, []testing.StubCall{
		{FuncName: "ListNetworkInterfacesByKeyword", Args: []interface{}{instanceRG, vmName}},
		{FuncName: "DeleteNetworkInterface", Args: []interface{}{instanceRG, "vm-1234-1"}},
	})

	s.client.ResetCalls()
	err = s.provisioner.DeleteInterfaces(context.Background(), instanceRG, []string{"vm-1234-0", "vm-1234-1"}, deleted)
	c.Assert(err, jc.ErrorIsNil)
	s.client.CheckNoCalls(c)
}

func (s *provisionerSuite) TestDeleteInterfacesError(c *gc.C) {
	s.client.SetMethodErrors("DeleteNetworkInterface", errors.New("boom"))
	deleted := set.NewStrings()
	err := s.provisioner.DeleteInterfaces(context.Background(), instanceRG, []string{"vm-1234-0", "vm-1234-1"}, deleted)
	c.Assert(err, gc.ErrorMatches, `deleting network interface "vm-1234-0": boom`)
	c.Assert(deleted.IsEmpty(), jc.IsTrue)
	s.client.CheckCallNames(c, "DeleteNetworkInterface")
}
