// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package config loads the CPI configuration file.
package config

import (
	"os"

	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/yaml.v2"

	"github.com/juju/azure-cpi/internal/azureclient"
)

const (
	attrAzure    = "azure"
	attrRegistry = "registry"

	attrEnvironment          = "environment"
	attrSubscriptionID       = "subscription_id"
	attrTenantID             = "tenant_id"
	attrClientID             = "client_id"
	attrClientSecret         = "client_secret"
	attrResourceGroupName    = "resource_group_name"
	attrStorageAccountName   = "storage_account_name"
	attrDefaultSecurityGroup = "default_security_group"
	attrSSHUser              = "ssh_user"
	attrSSHPublicKey         = "ssh_public_key"
	attrUseManagedDisks      = "use_managed_disks"
	attrPIPIdleTimeout       = "pip_idle_timeout_in_minutes"
	attrDebugMode            = "debug_mode"
	attrEphemeralDiskSize    = "ephemeral_disk_size_gb"

	attrEndpoint = "endpoint"

	// DefaultEnvironment is the Azure environment used when none is
	// configured.
	DefaultEnvironment = "AzureCloud"

	minPIPIdleTimeout = 4
	maxPIPIdleTimeout = 30
)

var azureFields = schema.Fields{
	attrEnvironment:          schema.String(),
	attrSubscriptionID:       schema.String(),
	attrTenantID:             schema.String(),
	attrClientID:             schema.String(),
	attrClientSecret:         schema.String(),
	attrResourceGroupName:    schema.String(),
	attrStorageAccountName:   schema.String(),
	attrDefaultSecurityGroup: schema.String(),
	attrSSHUser:              schema.String(),
	attrSSHPublicKey:         schema.String(),
	attrUseManagedDisks:      schema.Bool(),
	attrPIPIdleTimeout:       schema.ForceInt(),
	attrDebugMode:            schema.Bool(),
	attrEphemeralDiskSize:    schema.ForceInt(),
}

var azureDefaults = schema.Defaults{
	attrEnvironment:        DefaultEnvironment,
	attrStorageAccountName: "",
	attrSSHUser:            "vcap",
	attrSSHPublicKey:       "",
	attrUseManagedDisks:    false,
	attrPIPIdleTimeout:     minPIPIdleTimeout,
	attrDebugMode:          false,
	attrEphemeralDiskSize:  30,
}

var registryFields = schema.Fields{
	attrEndpoint: schema.String(),
}

var configChecker = schema.FieldMap(schema.Fields{
	attrAzure:    schema.FieldMap(azureFields, azureDefaults),
	attrRegistry: schema.FieldMap(registryFields, nil),
}, nil)

// Config is the CPI configuration.
type Config struct {
	Azure    Azure
	Registry Registry
}

// Azure holds the Azure account and the defaults applied to VMs.
type Azure struct {
	Environment    string
	SubscriptionID string
	TenantID       string
	ClientID       string
	ClientSecret   string

	// ResourceGroupName is the default resource group.
	ResourceGroupName string
	// StorageAccountName is the default storage account. It holds
	// boot diagnostics and unmanaged disks.
	StorageAccountName   string
	DefaultSecurityGroup string

	SSHUser string
	// SSHPublicKey is needed by Linux VMs only.
	SSHPublicKey string

	UseManagedDisks              bool
	PublicIPIdleTimeoutInMinutes int
	DebugMode                    bool
	EphemeralDiskSizeGB          int
}

// Registry is where agents fetch their settings from.
type Registry struct {
	Endpoint string
}

// ReadFile reads and validates the configuration file at path.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Annotate(err, "reading CPI configuration")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Annotatef(err, "loading %q", path)
	}
	return cfg, nil
}

// Parse parses and validates a YAML configuration document.
func Parse(data []byte) (*Config, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewNotValid(err, "parsing CPI configuration")
	}
	coerced, err := configChecker.Coerce(raw, nil)
	if err != nil {
		return nil, errors.NewNotValid(err, "invalid CPI configuration")
	}
	attrs := coerced.(map[string]interface{})
	azure := attrs[attrAzure].(map[string]interface{})
	registry := attrs[attrRegistry].(map[string]interface{})

	cfg := &Config{
		Azure: Azure{
			Environment:                  azure[attrEnvironment].(string),
			SubscriptionID:               azure[attrSubscriptionID].(string),
			TenantID:                     azure[attrTenantID].(string),
			ClientID:                     azure[attrClientID].(string),
			ClientSecret:                 azure[attrClientSecret].(string),
			ResourceGroupName:            azure[attrResourceGroupName].(string),
			StorageAccountName:           azure[attrStorageAccountName].(string),
			DefaultSecurityGroup:         azure[attrDefaultSecurityGroup].(string),
			SSHUser:                      azure[attrSSHUser].(string),
			SSHPublicKey:                 azure[attrSSHPublicKey].(string),
			UseManagedDisks:              azure[attrUseManagedDisks].(bool),
			PublicIPIdleTimeoutInMinutes: azure[attrPIPIdleTimeout].(int),
			DebugMode:                    azure[attrDebugMode].(bool),
			EphemeralDiskSizeGB:          azure[attrEphemeralDiskSize].(int),
		},
		Registry: Registry{
			Endpoint: registry[attrEndpoint].(string),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return cfg, nil
}

// Validate returns an error if the configuration is not valid.
func (cfg *Config) Validate() error {
	for _, required := range []struct {
		attr, value string
	}{
		{attrSubscriptionID, cfg.Azure.SubscriptionID},
		{attrTenantID, cfg.Azure.TenantID},
		{attrClientID, cfg.Azure.ClientID},
		{attrClientSecret, cfg.Azure.ClientSecret},
		{attrResourceGroupName, cfg.Azure.ResourceGroupName},
		{attrDefaultSecurityGroup, cfg.Azure.DefaultSecurityGroup},
	} {
		if required.value == "" {
			return errors.NotValidf("empty %s.%s", attrAzure, required.attr)
		}
	}
	if cfg.Registry.Endpoint == "" {
		return errors.NotValidf("empty %s.%s", attrRegistry, attrEndpoint)
	}
	if _, err := azureclient.LookupEnvironment(cfg.Azure.Environment); err != nil {
		return errors.Trace(err)
	}
	timeout := cfg.Azure.PublicIPIdleTimeoutInMinutes
	if timeout < minPIPIdleTimeout || timeout > maxPIPIdleTimeout {
		return errors.NotValidf(
			"%s.%s %d (must be between %d and %d)",
			attrAzure, attrPIPIdleTimeout, timeout, minPIPIdleTimeout, maxPIPIdleTimeout,
		)
	}
	if cfg.Azure.EphemeralDiskSizeGB <= 0 {
		return errors.NotValidf("%s.%s %d", attrAzure, attrEphemeralDiskSize, cfg.Azure.EphemeralDiskSizeGB)
	}
	if !cfg.Azure.UseManagedDisks && cfg.Azure.StorageAccountName == "" {
		return errors.NotValidf("empty %s.%s with unmanaged disks", attrAzure, attrStorageAccountName)
	}
	return nil
}

// Environment returns the configured Azure environment.
func (cfg *Config) Environment() (azureclient.Environment, error) {
	return azureclient.LookupEnvironment(cfg.Azure.Environment)
}

// ServicePrincipal returns the credentials the CPI authenticates with.
func (cfg *Config) ServicePrincipal() azureclient.ServicePrincipal {
	return azureclient.ServicePrincipal{
		TenantID:     cfg.Azure.TenantID,
		ClientID:     cfg.Azure.ClientID,
		ClientSecret: cfg.Azure.ClientSecret,
	}
}
