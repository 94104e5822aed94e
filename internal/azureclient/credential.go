// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azureclient

import (
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/juju/errors"
)

// ServicePrincipal holds the credentials of a service principal.
type ServicePrincipal struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// NewCredential returns a token credential for the service principal
// in the environment.
func NewCredential(env Environment, sp ServicePrincipal) (azcore.TokenCredential, error) {
	cred, err := azidentity.NewClientSecretCredential(
		sp.TenantID, sp.ClientID, sp.ClientSecret,
		&azidentity.ClientSecretCredentialOptions{
			ClientOptions: policy.ClientOptions{Cloud: env.Cloud},
		},
	)
	if err != nil {
		return nil, errors.Annotate(err, "creating client secret credential")
	}
	return cred, nil
}
