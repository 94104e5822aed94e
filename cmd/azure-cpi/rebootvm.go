// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/juju/azure-cpi/internal/config"
	"github.com/juju/azure-cpi/internal/vmmanager"
)

func newRebootVMCommand(newManager newManagerFunc) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "reboot-vm --config <cpi.yaml> <instance-id>",
		Short: "Reboot a VM",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := vmmanager.ParseInstanceID(args[0])
			if err != nil {
				return errors.Trace(err)
			}
			cfg, err := config.ReadFile(configPath)
			if err != nil {
				return errors.Trace(err)
			}
			manager, err := newManager(cfg, nil)
			if err != nil {
				return errors.Trace(err)
			}
			return errors.Trace(manager.Reboot(cmd.Context(), id))
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the CPI configuration")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
