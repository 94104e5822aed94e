// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"os"

	"github.com/juju/loggo"
	"github.com/spf13/cobra"
)

var logger = loggo.GetLogger("azurecpi.cmd")

func main() {
	if err := newRootCommand(newManager).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand returns the azure-cpi command. Managers are built
// with newManager.
func newRootCommand(newManager newManagerFunc) *cobra.Command {
	var loggingConfig string
	root := &cobra.Command{
		Use:   "azure-cpi",
		Short: "Create and reboot BOSH VMs on Azure",
		Long: `azure-cpi creates Azure VMs together with the network interfaces,
availability set and disks they depend on, and reboots them.

VMs which fail to provision are retried or cleaned up; see create-vm.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if loggingConfig == "" {
				return nil
			}
			return loggo.ConfigureLoggers(loggingConfig)
		},
	}
	root.PersistentFlags().StringVar(
		&loggingConfig, "logging-config", "",
		`logging levels, e.g. "<root>=INFO;azurecpi.vmmanager=DEBUG"`,
	)
	root.AddCommand(
		newCreateVMCommand(newManager),
		newRebootVMCommand(newManager),
	)
	return root
}
