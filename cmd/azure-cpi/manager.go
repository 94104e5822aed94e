// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/juju/errors"

	"github.com/juju/azure-cpi/internal/azureclient"
	"github.com/juju/azure-cpi/internal/config"
	"github.com/juju/azure-cpi/internal/disks"
	"github.com/juju/azure-cpi/internal/vmmanager"
)

type newManagerFunc func(cfg *config.Config, metrics *vmmanager.Metrics) (*vmmanager.Manager, error)

// newManager returns a Manager talking to the Azure subscription in
// the configuration.
func newManager(cfg *config.Config, metrics *vmmanager.Metrics) (*vmmanager.Manager, error) {
	env, err := cfg.Environment()
	if err != nil {
		return nil, errors.Trace(err)
	}
	cred, err := azureclient.NewCredential(env, cfg.ServicePrincipal())
	if err != nil {
		return nil, errors.Trace(err)
	}
	clientOpts := policy.ClientOptions{Cloud: env.Cloud}
	client, err := azureclient.NewClient(azureclient.Config{
		SubscriptionID: cfg.Azure.SubscriptionID,
		Credential:     cred,
		ClientOptions:  &arm.ClientOptions{ClientOptions: clientOpts},
	})
	if err != nil {
		return nil, errors.Annotate(err, "creating Azure client")
	}
	provider := disks.NewProvider(disks.Config{
		UseManagedDisks:       cfg.Azure.UseManagedDisks,
		ManagedDisks:          client,
		BlobStores:            disks.NewBlobStoreFactory(env.StorageEndpointSuffix, cred, &azblob.ClientOptions{ClientOptions: clientOpts}),
		StorageEndpointSuffix: env.StorageEndpointSuffix,
		EphemeralDiskSizeGB:   cfg.Azure.EphemeralDiskSizeGB,
	})
	managerCfg := managerConfig(cfg, client, provider, metrics)
	managerCfg.ImageVersions = client.ImageVersions()
	return vmmanager.NewManager(managerCfg)
}

// managerConfig maps the CPI configuration onto a Manager's.
func managerConfig(
	cfg *config.Config,
	client azureclient.Client,
	provider disks.Provider,
	metrics *vmmanager.Metrics,
) vmmanager.Config {
	return vmmanager.Config{
		Client:                       client,
		Disks:                        provider,
		ResourceGroup:                cfg.Azure.ResourceGroupName,
		StorageAccount:               cfg.Azure.StorageAccountName,
		DefaultSecurityGroup:         cfg.Azure.DefaultSecurityGroup,
		PublicIPIdleTimeoutInMinutes: cfg.Azure.PublicIPIdleTimeoutInMinutes,
		SSHUser:                      cfg.Azure.SSHUser,
		SSHPublicKey:                 cfg.Azure.SSHPublicKey,
		RegistryEndpoint:             cfg.Registry.Endpoint,
		DebugMode:                    cfg.Azure.DebugMode,
		Metrics:                      metrics,
	}
}
