// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azureclient

import (
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/juju/errors"
)

// Environment is an Azure cloud environment.
type Environment struct {
	Name string
	// Cloud holds the Active Directory and Resource Manager endpoints.
	Cloud cloud.Configuration
	// StorageEndpointSuffix is the suffix of blob service host names.
	StorageEndpointSuffix string
}

var environments = map[string]Environment{
	"AzureCloud": {
		Name:                  "AzureCloud",
		Cloud:                 cloud.AzurePublic,
		StorageEndpointSuffix: "core.windows.net",
	},
	"AzureChinaCloud": {
		Name:                  "AzureChinaCloud",
		Cloud:                 cloud.AzureChina,
		StorageEndpointSuffix: "core.chinacloudapi.cn",
	},
	"AzureUSGovernment": {
		Name:                  "AzureUSGovernment",
		Cloud:                 cloud.AzureGovernment,
		StorageEndpointSuffix: "core.usgovcloudapi.net",
	},
}

// LookupEnvironment returns the named environment.
func LookupEnvironment(name string) (Environment, error) {
	env, ok := environments[name]
	if !ok {
		return Environment{}, errors.NotValidf("azure environment %q", name)
	}
	return env, nil
}
