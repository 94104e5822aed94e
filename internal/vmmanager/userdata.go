// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vmmanager

import (
	"encoding/base64"
	"encoding/json"

	"github.com/juju/errors"
)

// userData is read by the agent on first boot to find the registry.
type userData struct {
	Registry   registryData `json:"registry"`
	Server     serverData   `json:"server"`
	DNS        dnsData      `json:"dns"`
	InstanceID string       `json:"instance-id,omitempty"`
}

type registryData struct {
	Endpoint string `json:"endpoint"`
}

type serverData struct {
	Name string `json:"name"`
}

type dnsData struct {
	Nameserver []string `json:"nameserver"`
}

// linuxCustomData returns the base64 encoded custom data of a Linux VM.
// The server name is the instance ID.
func linuxCustomData(registryEndpoint string, id InstanceID, nameservers []string) (string, error) {
	return encodeUserData(userData{
		Registry: registryData{Endpoint: registryEndpoint},
		Server:   serverData{Name: id.String()},
		DNS:      dnsData{Nameserver: nameservers},
	})
}

// windowsCustomData returns the base64 encoded custom data of a Windows
// VM. The server name is the generated computer name, so the instance
// ID is carried separately.
func windowsCustomData(registryEndpoint string, id InstanceID, computerName string, nameservers []string) (string, error) {
	return encodeUserData(userData{
		Registry:   registryData{Endpoint: registryEndpoint},
		Server:     serverData{Name: computerName},
		DNS:        dnsData{Nameserver: nameservers},
		InstanceID: id.String(),
	})
}

func encodeUserData(data userData) (string, error) {
	if data.DNS.Nameserver == nil {
		data.DNS.Nameserver = []string{}
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", errors.Annotate(err, "encoding user data")
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
