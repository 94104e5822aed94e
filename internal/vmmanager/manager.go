// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package vmmanager creates VMs together with the network interfaces,
// availability set and disks they depend on. A VM which fails to
// provision is cleaned up according to how it failed: failures in
// provisioning are retried, other failures remove everything created
// for the VM.
package vmmanager

import (
	"context"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/juju/azure-cpi/internal/availability"
	"github.com/juju/azure-cpi/internal/azureclient"
	"github.com/juju/azure-cpi/internal/cpierrors"
	"github.com/juju/azure-cpi/internal/disks"
	"github.com/juju/azure-cpi/internal/imageutils"
	"github.com/juju/azure-cpi/internal/nic"
	"github.com/juju/azure-cpi/internal/resolver"
)

var logger = loggo.GetLogger("azurecpi.vmmanager")

const (
	userAgentTag = "user-agent"
	userAgent    = "bosh"
)

// Config holds the parameters of a Manager.
type Config struct {
	Client azureclient.Client
	// Disks is fixed for the lifetime of the Manager, and decides
	// whether VMs use managed disks.
	Disks disks.Provider

	// ResourceGroup is the default resource group.
	ResourceGroup string
	// StorageAccount is the default storage account. It holds boot
	// diagnostics, and the disks of VMs using unmanaged storage
	// which do not name another account.
	StorageAccount string

	DefaultSecurityGroup         string
	PublicIPIdleTimeoutInMinutes int

	SSHUser      string
	SSHPublicKey string

	RegistryEndpoint string

	// DebugMode enables boot diagnostics.
	DebugMode bool

	// ImageVersions resolves "latest" platform image versions. If nil,
	// "latest" is passed to Azure as is.
	ImageVersions imageutils.ImageVersionLister

	// Metrics is optional.
	Metrics *Metrics
}

// Validate returns an error if the config is not valid.
func (cfg Config) Validate() error {
	if cfg.Client == nil {
		return errors.NotValidf("nil Client")
	}
	if cfg.Disks == nil {
		return errors.NotValidf("nil Disks")
	}
	if cfg.ResourceGroup == "" {
		return errors.NotValidf("empty ResourceGroup")
	}
	if cfg.DefaultSecurityGroup == "" {
		return errors.NotValidf("empty DefaultSecurityGroup")
	}
	if cfg.RegistryEndpoint == "" {
		return errors.NotValidf("empty RegistryEndpoint")
	}
	return nil
}

// Manager creates and reboots VMs.
type Manager struct {
	cfg    Config
	client azureclient.Client
	disks  disks.Provider
	nics   *nic.Provisioner
	avsets *availability.Manager
}

// NewManager returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &Manager{
		cfg:    cfg,
		client: cfg.Client,
		disks:  cfg.Disks,
		nics: nic.NewProvisioner(
			cfg.Client,
			resolver.New(cfg.Client, cfg.ResourceGroup),
			cfg.DefaultSecurityGroup,
			cfg.PublicIPIdleTimeoutInMinutes,
		),
		avsets: availability.NewManager(cfg.Client),
	}, nil
}

// InstanceID returns the ID of the VM with the given name in the
// resource group. VMs using unmanaged storage also record the storage
// account holding their disks.
func (m *Manager) InstanceID(resourceGroup, vmName string, pool ResourcePool) InstanceID {
	id := InstanceID{ResourceGroup: resourceGroup, VMName: vmName}
	if resourceGroup == "" {
		id.ResourceGroup = m.cfg.ResourceGroup
	}
	if !m.disks.Managed() {
		id.StorageAccount = pool.StorageAccountName
		if id.StorageAccount == "" {
			id.StorageAccount = m.cfg.StorageAccount
		}
	}
	return id
}

// Create creates the VM described by the request and returns the
// parameters it was created with.
//
// A VM which fails in provisioning is deleted, with its disks, and
// created again up to MaxCreateAttempts times in total. If the last
// attempt fails too, everything is left in place and a
// *cpierrors.RetriesExhaustedError is returned. Any other creation
// failure removes the VM, its disks, its network interfaces and its
// dynamic public IP, and returns a *cpierrors.TerminalProvisioningError.
// If removing something fails, a *cpierrors.CleanupError is returned
// instead of the error which caused the removal.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (VMParameters, error) {
	op := &createOperation{
		Manager:     m,
		req:         req,
		tags:        mergeTags(req.ResourcePool.Tags),
		deletedNICs: set.NewStrings(),
	}
	return op.run(ctx)
}

// Reboot restarts the VM.
func (m *Manager) Reboot(ctx context.Context, id InstanceID) error {
	logger.Infof("rebooting virtual machine %q in %q", id.VMName, id.ResourceGroup)
	return m.client.RestartVirtualMachine(ctx, id.ResourceGroup, id.VMName)
}

// diagnosticsURI returns the blob endpoint receiving boot diagnostics,
// or "" if diagnostics are disabled. Diagnostics are only written to a
// storage account in the VM's location.
func (m *Manager) diagnosticsURI(ctx context.Context, location string) string {
	if !m.cfg.DebugMode {
		return ""
	}
	if m.cfg.StorageAccount == "" {
		logger.Warningf("no default storage account, boot diagnostics disabled")
		return ""
	}
	account, err := m.client.GetStorageAccount(ctx, m.cfg.ResourceGroup, m.cfg.StorageAccount)
	if err != nil {
		logger.Warningf("boot diagnostics disabled: %v", err)
		return ""
	}
	if !strings.EqualFold(account.Location, location) {
		logger.Debugf(
			"storage account %q is in %q, not %q: boot diagnostics disabled",
			account.Name, account.Location, location,
		)
		return ""
	}
	return account.BlobEndpoint
}

// createOperation holds the state of one Create call.
type createOperation struct {
	*Manager
	req  CreateRequest
	tags azureclient.Tags

	interfaces  []azureclient.NetworkInterface
	deletedNICs set.Strings
	avset       *azureclient.AvailabilitySet
	vm          azureclient.VirtualMachineParams

	attempts int
	// err is the error Create returns, unless the VM is created.
	err error
}

func (op *createOperation) resourceGroup() string {
	return op.req.InstanceID.ResourceGroup
}

func (op *createOperation) vmName() string {
	return op.req.InstanceID.VMName
}

// diskScope is where the VM's disks live.
func (op *createOperation) diskScope() string {
	if op.disks.Managed() {
		return op.resourceGroup()
	}
	return op.req.InstanceID.StorageAccount
}

func (op *createOperation) run(ctx context.Context) (VMParameters, error) {
	var prev state
	s := stateResolving
	for !s.final() {
		err := op.step(ctx, s)
		next := transition(s, op.attempts, err)
		logger.Debugf("creating %q: %v -> %v", op.vmName(), s, next)
		op.record(next, err)
		prev, s = s, next
	}

	outcome := op.outcome(prev, s)
	op.cfg.Metrics.outcome(outcome)
	if s == stateSucceeded {
		logger.Infof("created virtual machine %q", op.vmName())
		return newVMParameters(op.req.InstanceID, op.req.ResourcePool.InstanceType, op.vm, op.interfaces, op.avset), nil
	}
	logger.Errorf("creating virtual machine %q (%s): %v", op.vmName(), outcome, op.err)
	return VMParameters{}, op.err
}

// step runs the action of the state.
func (op *createOperation) step(ctx context.Context, s state) error {
	switch s {
	case stateResolving:
		return op.resolve(ctx)
	case stateProvisioning:
		return op.provision(ctx)
	case stateRetryCleanup:
		return op.cleanupForRetry(ctx)
	case stateTerminalCleanup:
		return op.cleanupAll(ctx)
	case stateAbortCleanup:
		return op.abort(ctx)
	}
	return errors.Errorf("unexpected state %v", s)
}

// record updates the error to return on entering next, where err is
// the result of the step which led there.
func (op *createOperation) record(next state, err error) {
	switch next {
	case stateAbortCleanup, stateRetryCleanup:
		op.err = err
	case stateTerminalCleanup:
		op.err = &cpierrors.TerminalProvisioningError{VMName: op.vmName(), Err: err}
	case stateExhausted:
		op.err = &cpierrors.RetriesExhaustedError{VMName: op.vmName(), Attempts: op.attempts, Err: err}
	case stateCleanupFailed:
		op.err = cpierrors.NewCleanupError(err, op.err)
	case stateProvisioning, stateSucceeded:
		op.err = nil
	}
}

func (op *createOperation) outcome(prev, final state) string {
	switch {
	case final == stateSucceeded:
		return OutcomeSucceeded
	case final == stateExhausted:
		return OutcomeExhausted
	case final == stateCleanupFailed, cpierrors.IsCleanup(op.err):
		return OutcomeCleanupFailed
	case prev == stateTerminalCleanup:
		return OutcomeTerminal
	}
	return OutcomeAborted
}

// resolve validates the request, then creates or resolves the resource
// group, network interfaces and availability set of the VM, and builds
// the VM parameters.
func (op *createOperation) resolve(ctx context.Context) error {
	if err := op.req.validate(); err != nil {
		return errors.Trace(err)
	}
	if !op.req.Stemcell.IsWindows() && op.cfg.SSHPublicKey == "" {
		return cpierrors.Validationf("missing ssh_public_key for Linux VM %q", op.vmName())
	}
	if err := op.ensureResourceGroup(ctx); err != nil {
		return errors.Trace(err)
	}

	interfaces, err := op.nics.Provision(ctx, op.req.nicRequest(op.tags))
	if err != nil {
		return errors.Trace(err)
	}
	op.interfaces = interfaces

	if name := availability.Name(op.req.ResourcePool.availabilityDirectives(), op.req.Env); name != "" {
		avset, err := op.avsets.Ensure(ctx, availability.Request{
			ResourceGroup: op.resourceGroup(),
			Name:          name,
			Location:      op.req.Location,
			Managed:       op.disks.Managed(),
			Directives:    op.req.ResourcePool.availabilityDirectives(),
		})
		if err != nil {
			return errors.Trace(err)
		}
		op.avset = &avset
	}

	return errors.Trace(op.buildVM(ctx))
}

func (op *createOperation) ensureResourceGroup(ctx context.Context) error {
	rg := op.resourceGroup()
	_, err := op.client.GetResourceGroup(ctx, rg)
	if err == nil {
		return nil
	}
	if !errors.Is(err, errors.NotFound) {
		return errors.Trace(err)
	}
	logger.Infof("creating resource group %q in %q", rg, op.req.Location)
	return errors.Trace(op.client.CreateResourceGroup(ctx, rg, op.req.Location))
}

func (op *createOperation) buildVM(ctx context.Context) error {
	stemcell := op.req.Stemcell
	if !op.disks.Managed() && op.diskScope() == "" {
		return cpierrors.Validationf("missing storage account for unmanaged disks")
	}
	op.vm = azureclient.VirtualMachineParams{
		Name:     op.vmName(),
		Location: op.req.Location,
		Size:     op.req.ResourcePool.InstanceType,
		Tags:     op.tags,
		OSType:   stemcell.OSType,
		Managed:  op.disks.Managed(),
	}
	if stemcell.IsLightStemcell() {
		image := *stemcell.PlatformImage
		if op.cfg.ImageVersions != nil {
			resolved, err := imageutils.ResolveLatest(ctx, image, op.req.Location, op.cfg.ImageVersions)
			if err != nil {
				return errors.Trace(err)
			}
			image = resolved
		}
		op.vm.PlatformImage = &image
	} else {
		op.vm.ImageURI = stemcell.URI
	}
	if err := op.generateDisks(); err != nil {
		return errors.Trace(err)
	}
	op.vm.DiagnosticsStorageURI = op.diagnosticsURI(ctx, op.req.Location)

	var err error
	nameservers := op.req.nameservers()
	if stemcell.IsWindows() {
		op.vm.WindowsUsername = windowsUsername()
		op.vm.WindowsPassword = windowsPassword()
		op.vm.ComputerName = windowsComputerName()
		op.vm.CustomData, err = windowsCustomData(op.cfg.RegistryEndpoint, op.req.InstanceID, op.vm.ComputerName, nameservers)
	} else {
		op.vm.SSHUsername = op.cfg.SSHUser
		op.vm.SSHPublicKey = op.cfg.SSHPublicKey
		op.vm.CustomData, err = linuxCustomData(op.cfg.RegistryEndpoint, op.req.InstanceID, nameservers)
	}
	return errors.Trace(err)
}

// generateDisks gives the VM freshly named disks.
func (op *createOperation) generateDisks() error {
	opts := op.req.ResourcePool.diskOptions()
	osDisk, err := op.disks.OSDisk(
		op.diskScope(), op.disks.GenerateOSDiskName(op.vmName()), op.req.Stemcell, opts,
	)
	if err != nil {
		return errors.Trace(err)
	}
	op.vm.OSDisk = osDisk
	op.vm.EphemeralDisk = op.disks.EphemeralDisk(
		op.diskScope(), op.disks.GenerateEphemeralDiskName(op.vmName()), opts,
	)
	return nil
}

func (op *createOperation) provision(ctx context.Context) error {
	op.attempts++
	op.cfg.Metrics.attempt()
	logger.Infof("creating virtual machine %q (attempt %d of %d)", op.vmName(), op.attempts, MaxCreateAttempts)
	return op.client.CreateVirtualMachine(ctx, op.resourceGroup(), op.vm, op.interfaces, op.avset)
}

// cleanupForRetry removes the VM and its disks, then gives the VM new
// disk names for the next attempt.
func (op *createOperation) cleanupForRetry(ctx context.Context) error {
	op.cfg.Metrics.retry()
	logger.Warningf("virtual machine %q failed in provisioning, retrying: %v", op.vmName(), op.err)
	if err := op.deleteVMAndDisks(ctx); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(op.generateDisks())
}

// cleanupAll removes everything created for the VM.
func (op *createOperation) cleanupAll(ctx context.Context) error {
	if err := op.deleteVMAndDisks(ctx); err != nil {
		return errors.Trace(err)
	}
	names := make([]string, len(op.interfaces))
	for i, iface := range op.interfaces {
		names[i] = iface.Name
	}
	if err := op.nics.DeleteInterfaces(ctx, op.resourceGroup(), names, op.deletedNICs); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(op.deleteDynamicPublicIP(ctx))
}

// abort removes what an earlier attempt to create the VM may have left
// behind. Network interfaces are already gone if creating one failed.
func (op *createOperation) abort(ctx context.Context) error {
	if !cpierrors.IsNICProvisioning(op.err) {
		if err := op.nics.DeleteByKeyword(ctx, op.resourceGroup(), op.vmName(), op.deletedNICs); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(op.deleteDynamicPublicIP(ctx))
}

func (op *createOperation) deleteVMAndDisks(ctx context.Context) error {
	rg, vmName, scope := op.resourceGroup(), op.vmName(), op.diskScope()
	logger.Debugf("deleting virtual machine %q and its disks", vmName)
	if err := op.client.DeleteVirtualMachine(ctx, rg, vmName); err != nil {
		return errors.Trace(err)
	}
	if err := op.disks.DeleteDisk(ctx, scope, op.vm.OSDisk.Name); err != nil {
		return errors.Trace(err)
	}
	if op.vm.EphemeralDisk != nil {
		if err := op.disks.DeleteDisk(ctx, scope, op.vm.EphemeralDisk.Name); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(op.disks.DeleteVMStatusArtifacts(ctx, scope, vmName))
}

// deleteDynamicPublicIP deletes the public IP named after the VM, if
// there is one.
func (op *createOperation) deleteDynamicPublicIP(ctx context.Context) error {
	rg, vmName := op.resourceGroup(), op.vmName()
	_, err := op.client.GetPublicIP(ctx, rg, vmName)
	if errors.Is(err, errors.NotFound) {
		return nil
	}
	if err != nil {
		return errors.Trace(err)
	}
	logger.Debugf("deleting dynamic public IP %q", vmName)
	return errors.Trace(op.client.DeletePublicIP(ctx, rg, vmName))
}
