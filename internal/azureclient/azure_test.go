// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azureclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/azure-cpi/internal/azureclient"
	"github.com/juju/azure-cpi/internal/azuretesting"
	"github.com/juju/azure-cpi/internal/imageutils"
)

type clientSuite struct {
	testing.IsolationSuite

	sender *azuretesting.MockSender
	clock  *testclock.Clock
	client *azureclient.AzureClient
}

var _ = gc.Suite(&clientSuite{})

func (s *clientSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.sender = &azuretesting.MockSender{}
	s.clock = testclock.NewClock(time.Now())
	var err error
	s.client, err = azureclient.NewClient(azureclient.Config{
		SubscriptionID: "subscription-id",
		Credential:     &azuretesting.FakeCredential{},
		ClientOptions: &arm.ClientOptions{
			ClientOptions: policy.ClientOptions{
				Transport: s.sender,
				Retry:     policy.RetryOptions{MaxRetries: -1},
			},
		},
		Clock:         s.clock,
		PollFrequency: time.Second,
	})
	c.Assert(err, jc.ErrorIsNil)
}

func (s *clientSuite) requestBody(c *gc.C, index int) map[string]interface{} {
	reqs := s.sender.Requests()
	c.Assert(len(reqs) > index, jc.IsTrue)
	data, err := io.ReadAll(reqs[index].Body)
	c.Assert(err, jc.ErrorIsNil)
	var body map[string]interface{}
	c.Assert(json.Unmarshal(data, &body), jc.ErrorIsNil)
	return body
}

func (s *clientSuite) TestConfigValidate(c *gc.C) {
	_, err := azureclient.NewClient(azureclient.Config{Credential: &azuretesting.FakeCredential{}})
	c.Assert(err, gc.ErrorMatches, "empty SubscriptionID not valid")
	_, err = azureclient.NewClient(azureclient.Config{SubscriptionID: "sub"})
	c.Assert(err, gc.ErrorMatches, "nil Credential not valid")
}

func (s *clientSuite) TestGetSubnet(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithContent(`{"id": "subnet-id", "name": "subnet"}`))
	subnet, err := s.client.GetSubnet(context.Background(), "rg", "vnet", "subnet")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(subnet, jc.DeepEquals, azureclient.Subnet{ID: "subnet-id", Name: "subnet"})
	c.Assert(s.sender.Requests()[0].URL.Path, gc.Equals,
		"/subscriptions/subscription-id/resourceGroups/rg/providers/Microsoft.Network/virtualNetworks/vnet/subnets/subnet")
}

func (s *clientSuite) TestGetSubnetNotFound(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithStatus("404 Not Found", http.StatusNotFound))
	_, err := s.client.GetSubnet(context.Background(), "rg", "vnet", "subnet")
	c.Assert(err, jc.Satisfies, errors.IsNotFound)
	c.Assert(err, gc.ErrorMatches, "subnet vnet/subnet not found")
}

func (s *clientSuite) TestGetSecurityGroupError(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithStatus("500 Internal Server Error", http.StatusInternalServerError))
	_, err := s.client.GetSecurityGroup(context.Background(), "rg", "nsg")
	c.Assert(err, gc.ErrorMatches, `(?s)getting network security group "nsg": .*`)
	c.Assert(errors.Is(err, errors.NotFound), jc.IsFalse)
}

func (s *clientSuite) TestThrottledCallIsRetried(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithStatus("429 Too Many Requests", http.StatusTooManyRequests))
	s.sender.AppendResponse(azuretesting.NewResponseWithContent(`{"name": "rg", "location": "westus"}`))

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Check(s.clock.WaitAdvance(5*time.Second, testing.LongWait, 1), jc.ErrorIsNil)
	}()
	group, err := s.client.GetResourceGroup(context.Background(), "rg")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(group, jc.DeepEquals, azureclient.ResourceGroup{Name: "rg", Location: "westus"})
	<-done
	c.Assert(s.sender.Requests(), gc.HasLen, 2)
}

func (s *clientSuite) TestListPublicIPs(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithContent(`{"value": [
		{"id": "ip-0", "name": "vm-name", "location": "westus", "properties": {"ipAddress": "1.2.3.4", "idleTimeoutInMinutes": 4}},
		{"id": "ip-1", "name": "vip", "location": "westus", "properties": {"ipAddress": "5.6.7.8"}}
	]}`))
	ips, err := s.client.ListPublicIPs(context.Background(), "rg")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(ips, jc.DeepEquals, []azureclient.PublicIP{
		{ID: "ip-0", Name: "vm-name", Location: "westus", IPAddress: "1.2.3.4", IdleTimeoutInMinutes: 4},
		{ID: "ip-1", Name: "vip", Location: "westus", IPAddress: "5.6.7.8"},
	})
}

func (s *clientSuite) TestListNetworkInterfacesByKeyword(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithContent(`{"value": [
		{"id": "nic-0", "name": "vm-name-0", "properties": {"ipConfigurations": [{"properties": {"privateIPAddress": "10.0.0.4"}}]}},
		{"id": "nic-x", "name": "other-vm-0"},
		{"id": "nic-y", "name": "vm-name-2-0"},
		{"id": "nic-z", "name": "vm-names-0"},
		{"id": "nic-1", "name": "vm-name-1"}
	]}`))
	nics, err := s.client.ListNetworkInterfacesByKeyword(context.Background(), "rg", "vm-name")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(nics, jc.DeepEquals, []azureclient.NetworkInterface{
		{ID: "nic-0", Name: "vm-name-0", PrivateIP: "10.0.0.4"},
		{ID: "nic-1", Name: "vm-name-1"},
	})
}

func (s *clientSuite) TestIsInterfaceOf(c *gc.C) {
	for i, test := range []struct {
		name   string
		expect bool
	}{
		{"vm-1-0", true},
		{"vm-1-15", true},
		{"vm-1", false},
		{"vm-1-", false},
		{"vm-12-0", false},
		{"vm-1a-0", false},
		{"vm-1-0-0", false},
		{"vm-1-x", false},
	} {
		c.Logf("test %d: %q", i, test.name)
		c.Check(azureclient.IsInterfaceOf(test.name, "vm-1"), gc.Equals, test.expect)
	}
}

func (s *clientSuite) TestListNetworkInterfacesByKeywordMissingResourceGroup(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithStatus("404 Not Found", http.StatusNotFound))
	nics, err := s.client.ListNetworkInterfacesByKeyword(context.Background(), "rg", "vm-name")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(nics, gc.HasLen, 0)
}

func (s *clientSuite) TestCreateNetworkInterface(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithContent(`{"id": "nic-0", "name": "vm-name-0", "properties": {"provisioningState": "Succeeded"}}`))
	err := s.client.CreateNetworkInterface(context.Background(), "rg", azureclient.NetworkInterfaceParams{
		Name:          "vm-name-0",
		Location:      "westus",
		IPConfigName:  "ipconfig0",
		Subnet:        azureclient.Subnet{ID: "subnet-id"},
		SecurityGroup: &azureclient.SecurityGroup{ID: "nsg-id"},
		PrivateIP:     "10.0.0.4",
		PublicIP:      &azureclient.PublicIP{ID: "ip-id"},
		LoadBalancer:  &azureclient.LoadBalancer{BackendAddressPoolIDs: []string{"pool-id"}},
		Tags:          azureclient.Tags{"user-agent": "bosh"},
	})
	c.Assert(err, jc.ErrorIsNil)

	body := s.requestBody(c, 0)
	props := body["properties"].(map[string]interface{})
	c.Assert(props["networkSecurityGroup"], jc.DeepEquals, map[string]interface{}{"id": "nsg-id"})
	ipConfig := props["ipConfigurations"].([]interface{})[0].(map[string]interface{})
	c.Assert(ipConfig["name"], gc.Equals, "ipconfig0")
	ipProps := ipConfig["properties"].(map[string]interface{})
	c.Assert(ipProps["privateIPAddress"], gc.Equals, "10.0.0.4")
	c.Assert(ipProps["privateIPAllocationMethod"], gc.Equals, "Static")
	c.Assert(ipProps["publicIPAddress"], jc.DeepEquals, map[string]interface{}{"id": "ip-id"})
	c.Assert(ipProps["loadBalancerBackendAddressPools"], jc.DeepEquals, []interface{}{
		map[string]interface{}{"id": "pool-id"},
	})
}

func (s *clientSuite) TestGetAvailabilitySet(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithContent(`{
		"id": "avset-id", "name": "avset", "location": "westus",
		"tags": {"user-agent": "bosh"},
		"sku": {"name": "Aligned"},
		"properties": {
			"platformUpdateDomainCount": 5,
			"platformFaultDomainCount": 2,
			"virtualMachines": [{"id": "vm-id"}]
		}
	}`))
	avset, err := s.client.GetAvailabilitySet(context.Background(), "rg", "avset")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(avset, jc.DeepEquals, azureclient.AvailabilitySet{
		ID:                        "avset-id",
		Name:                      "avset",
		Location:                  "westus",
		Tags:                      azureclient.Tags{"user-agent": "bosh"},
		PlatformUpdateDomainCount: 5,
		PlatformFaultDomainCount:  2,
		Managed:                   true,
		VirtualMachines:           []string{"vm-id"},
	})
}

func (s *clientSuite) TestCreateAvailabilitySetClassic(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithContent(`{"id": "avset-id"}`))
	err := s.client.CreateAvailabilitySet(context.Background(), "rg", azureclient.AvailabilitySet{
		Name:                      "avset",
		Location:                  "westus",
		PlatformUpdateDomainCount: 5,
		PlatformFaultDomainCount:  3,
	})
	c.Assert(err, jc.ErrorIsNil)
	body := s.requestBody(c, 0)
	c.Assert(body["sku"], jc.DeepEquals, map[string]interface{}{"name": "Classic"})
	c.Assert(body["properties"], jc.DeepEquals, map[string]interface{}{
		"platformUpdateDomainCount": float64(5),
		"platformFaultDomainCount":  float64(3),
	})
}

func (s *clientSuite) vmParams() azureclient.VirtualMachineParams {
	return azureclient.VirtualMachineParams{
		Name:     "vm-name",
		Location: "westus",
		Size:     "Standard_D1",
		OSType:   azureclient.OSTypeLinux,
		PlatformImage: &imageutils.PlatformImage{
			Publisher: "Canonical", Offer: "UbuntuServer", SKU: "16.04-LTS", Version: "16.04.201705240",
		},
		Managed:       true,
		OSDisk:        azureclient.Disk{Name: "bosh-disk-os-vm-name", Caching: "ReadWrite", SizeGB: 30},
		EphemeralDisk: &azureclient.Disk{Name: "bosh-disk-ephemeral-vm-name", Caching: "ReadWrite", SizeGB: 30},
		CustomData:    "e30=",
		SSHUsername:   "vcap",
		SSHPublicKey:  "ssh-rsa AAAA",
	}
}

func (s *clientSuite) TestCreateVirtualMachine(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithContent(`{"id": "vm-id", "properties": {"provisioningState": "Succeeded"}}`))
	params := s.vmParams()
	params.DiagnosticsStorageURI = "https://sa.blob.core.windows.net/"
	err := s.client.CreateVirtualMachine(context.Background(), "rg", params,
		[]azureclient.NetworkInterface{{ID: "nic-0"}, {ID: "nic-1"}},
		&azureclient.AvailabilitySet{ID: "avset-id"},
	)
	c.Assert(err, jc.ErrorIsNil)

	body := s.requestBody(c, 0)
	props := body["properties"].(map[string]interface{})
	c.Assert(props["hardwareProfile"], jc.DeepEquals, map[string]interface{}{"vmSize": "Standard_D1"})
	c.Assert(props["availabilitySet"], jc.DeepEquals, map[string]interface{}{"id": "avset-id"})
	c.Assert(props["networkProfile"], jc.DeepEquals, map[string]interface{}{
		"networkInterfaces": []interface{}{
			map[string]interface{}{"id": "nic-0", "properties": map[string]interface{}{"primary": true}},
			map[string]interface{}{"id": "nic-1", "properties": map[string]interface{}{"primary": false}},
		},
	})
	c.Assert(props["diagnosticsProfile"], jc.DeepEquals, map[string]interface{}{
		"bootDiagnostics": map[string]interface{}{
			"enabled":    true,
			"storageUri": "https://sa.blob.core.windows.net/",
		},
	})
	storage := props["storageProfile"].(map[string]interface{})
	c.Assert(storage["imageReference"], jc.DeepEquals, map[string]interface{}{
		"publisher": "Canonical",
		"offer":     "UbuntuServer",
		"sku":       "16.04-LTS",
		"version":   "16.04.201705240",
	})
	c.Assert(storage["dataDisks"], gc.HasLen, 1)
	osProfile := props["osProfile"].(map[string]interface{})
	c.Assert(osProfile["adminUsername"], gc.Equals, "vcap")
	c.Assert(osProfile["customData"], gc.Equals, "e30=")
}

func (s *clientSuite) TestCreateVirtualMachineAsyncFailed(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithContent(`{"id": "vm-id", "properties": {"provisioningState": "Failed"}}`))
	err := s.client.CreateVirtualMachine(context.Background(), "rg", s.vmParams(), []azureclient.NetworkInterface{{ID: "nic-0"}}, nil)
	status, ok := azureclient.AsyncOperationStatus(err)
	c.Assert(ok, jc.IsTrue)
	c.Assert(status, gc.Equals, "Failed")
}

func (s *clientSuite) TestCreateVirtualMachineAsyncCanceled(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithContent(`{"id": "vm-id", "properties": {"provisioningState": "Canceled"}}`))
	err := s.client.CreateVirtualMachine(context.Background(), "rg", s.vmParams(), []azureclient.NetworkInterface{{ID: "nic-0"}}, nil)
	status, ok := azureclient.AsyncOperationStatus(err)
	c.Assert(ok, jc.IsTrue)
	c.Assert(status, gc.Equals, "Canceled")
}

func (s *clientSuite) TestCreateVirtualMachineSynchronousError(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithBodyAndStatus(
		`{"error": {"code": "InvalidParameter", "message": "bad size"}}`, "400 Bad Request", http.StatusBadRequest,
	))
	err := s.client.CreateVirtualMachine(context.Background(), "rg", s.vmParams(), []azureclient.NetworkInterface{{ID: "nic-0"}}, nil)
	c.Assert(err, gc.NotNil)
	_, ok := azureclient.AsyncOperationStatus(err)
	c.Assert(ok, jc.IsFalse)
}

func (s *clientSuite) TestDeleteVirtualMachineNotFound(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithStatus("404 Not Found", http.StatusNotFound))
	err := s.client.DeleteVirtualMachine(context.Background(), "rg", "vm-name")
	c.Assert(err, jc.ErrorIsNil)
}

func (s *clientSuite) TestGetStorageAccount(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithContent(`{
		"id": "sa-id", "name": "sa", "location": "westus",
		"properties": {"primaryEndpoints": {"blob": "https://sa.blob.core.windows.net/"}}
	}`))
	account, err := s.client.GetStorageAccount(context.Background(), "rg", "sa")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(account, jc.DeepEquals, azureclient.StorageAccount{
		ID: "sa-id", Name: "sa", Location: "westus", BlobEndpoint: "https://sa.blob.core.windows.net/",
	})
}

func (s *clientSuite) TestLookupEnvironment(c *gc.C) {
	env, err := azureclient.LookupEnvironment("AzureChinaCloud")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(env.StorageEndpointSuffix, gc.Equals, "core.chinacloudapi.cn")
	_, err = azureclient.LookupEnvironment("Mars")
	c.Assert(err, gc.ErrorMatches, `azure environment "Mars" not valid`)
}
