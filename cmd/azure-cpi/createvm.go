// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/juju/azure-cpi/internal/config"
	"github.com/juju/azure-cpi/internal/imageutils"
	"github.com/juju/azure-cpi/internal/vmmanager"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"

	vmNamePrefix = "bosh-vm-"
)

// createVMRequest is the request file of create-vm.
type createVMRequest struct {
	// Name defaults to a generated name.
	Name string `yaml:"name"`
	// ResourceGroupName defaults to the configured resource group.
	ResourceGroupName string                 `yaml:"resource_group_name"`
	Location          string                 `yaml:"location"`
	Stemcell          stemcellRequest        `yaml:"stemcell"`
	ResourcePool      vmmanager.ResourcePool `yaml:"resource_pool"`
	Networks          []vmmanager.Network    `yaml:"networks"`
	Env               map[string]string      `yaml:"env"`
}

type stemcellRequest struct {
	URI      string                      `yaml:"uri"`
	Metadata imageutils.StemcellMetadata `yaml:"metadata"`
}

func readCreateVMRequest(path string) (createVMRequest, error) {
	var req createVMRequest
	data, err := os.ReadFile(path)
	if err != nil {
		return req, errors.Annotate(err, "reading request")
	}
	if err := yaml.Unmarshal(data, &req); err != nil {
		return req, errors.NewNotValid(err, fmt.Sprintf("parsing request %q", path))
	}
	if req.Name == "" {
		req.Name = vmNamePrefix + uuid.NewString()
	}
	return req, nil
}

type createVMCommand struct {
	newManager newManagerFunc

	configPath  string
	requestPath string
	format      string
	metricsPath string
}

func newCreateVMCommand(newManager newManagerFunc) *cobra.Command {
	c := &createVMCommand{newManager: newManager}
	cmd := &cobra.Command{
		Use:   "create-vm --config <cpi.yaml> --request <request.yaml>",
		Short: "Create a VM",
		Long: `Create a VM from a request file and print the parameters it was
created with.

The request names the VM, its location, stemcell, resource pool,
networks and environment. A VM which fails in provisioning is retried
up to 3 times; if every attempt fails, the VM, its disks and network
interfaces are left in place for diagnosis. Any other failure removes
what was created for the VM.`,
		Args: cobra.NoArgs,
		PreRunE: func(*cobra.Command, []string) error {
			if c.format != formatYAML && c.format != formatJSON {
				return errors.NotValidf("output format %q", c.format)
			}
			return nil
		},
		RunE: c.run,
	}
	cmd.Flags().StringVar(&c.configPath, "config", "", "path to the CPI configuration")
	cmd.Flags().StringVar(&c.requestPath, "request", "", "path to the VM request")
	cmd.Flags().StringVar(&c.format, "format", formatYAML, "output format (yaml|json)")
	cmd.Flags().StringVar(&c.metricsPath, "metrics-file", "", "write provisioning metrics to this file")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func (c *createVMCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.ReadFile(c.configPath)
	if err != nil {
		return errors.Trace(err)
	}
	req, err := readCreateVMRequest(c.requestPath)
	if err != nil {
		return errors.Trace(err)
	}
	stemcell, err := imageutils.NewStemcellInfo(req.Stemcell.URI, req.Stemcell.Metadata)
	if err != nil {
		return errors.Annotate(err, "reading stemcell")
	}

	metrics := vmmanager.NewMetrics()
	manager, err := c.newManager(cfg, metrics)
	if err != nil {
		return errors.Trace(err)
	}
	params, err := manager.Create(cmd.Context(), vmmanager.CreateRequest{
		InstanceID:   manager.InstanceID(req.ResourceGroupName, req.Name, req.ResourcePool),
		Location:     req.Location,
		Stemcell:     stemcell,
		ResourcePool: req.ResourcePool,
		Networks:     req.Networks,
		Env:          req.Env,
	})
	if c.metricsPath != "" {
		if werr := writeMetrics(c.metricsPath, metrics); werr != nil {
			logger.Warningf("writing metrics: %v", werr)
		}
	}
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(writeOutput(cmd.OutOrStdout(), c.format, params))
}

func writeMetrics(path string, metrics *vmmanager.Metrics) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(metrics); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(prometheus.WriteToTextfile(path, registry))
}

func writeOutput(w io.Writer, format string, v interface{}) error {
	if format == formatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return errors.Trace(encoder.Encode(v))
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Trace(err)
	}
	_, err = w.Write(data)
	return errors.Trace(err)
}
