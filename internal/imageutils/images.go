// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package imageutils

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/compute/armcompute/v2"
	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("azurecpi.imageutils")

const (
	// LatestVersion may be given as the version of a platform image,
	// and is resolved to the most recent published version.
	LatestVersion = "latest"

	osTypeLinux   = "linux"
	osTypeWindows = "windows"

	// defaultImageSizeMB is the image size assumed when the stemcell
	// does not declare one.
	defaultImageSizeMB = 3 * 1024
)

// PlatformImage identifies a marketplace image.
type PlatformImage struct {
	Publisher string
	Offer     string
	SKU       string
	Version   string
}

// URN returns the image in the "publisher:offer:sku:version" form
// understood by Azure Resource Manager.
func (p PlatformImage) URN() string {
	return fmt.Sprintf("%s:%s:%s:%s", p.Publisher, p.Offer, p.SKU, p.Version)
}

// ParseURN parses an image URN of the form "publisher:offer:sku:version".
// A missing version means the latest one.
func ParseURN(urn string) (PlatformImage, error) {
	parts := strings.Split(urn, ":")
	switch len(parts) {
	case 3:
		parts = append(parts, LatestVersion)
	case 4:
	default:
		return PlatformImage{}, errors.NotValidf("image URN %q", urn)
	}
	for _, p := range parts {
		if p == "" {
			return PlatformImage{}, errors.NotValidf("image URN %q", urn)
		}
	}
	return PlatformImage{
		Publisher: parts[0],
		Offer:     parts[1],
		SKU:       parts[2],
		Version:   parts[3],
	}, nil
}

// StemcellInfo describes the image a VM is created from. Heavy
// stemcells reference an uploaded VHD (or managed image) by URI;
// light stemcells reference a platform image.
type StemcellInfo struct {
	URI           string
	PlatformImage *PlatformImage
	OSType        string
	// ImageSizeMB is the size of the image's root disk.
	ImageSizeMB int
}

// StemcellMetadata is the metadata recorded alongside a stemcell.
type StemcellMetadata struct {
	Name    string            `yaml:"name" json:"name"`
	Version string            `yaml:"version" json:"version"`
	OSType  string            `yaml:"os_type" json:"os_type"`
	Disk    int               `yaml:"disk" json:"disk"`
	Image   map[string]string `yaml:"image" json:"image"`
}

// NewStemcellInfo returns the StemcellInfo for the stemcell at uri
// with the given metadata.
func NewStemcellInfo(uri string, metadata StemcellMetadata) (*StemcellInfo, error) {
	info := &StemcellInfo{
		URI:         uri,
		OSType:      strings.ToLower(metadata.OSType),
		ImageSizeMB: metadata.Disk,
	}
	if info.OSType == "" {
		info.OSType = osTypeLinux
	}
	if info.OSType != osTypeLinux && info.OSType != osTypeWindows {
		return nil, errors.NotSupportedf("os type %q", metadata.OSType)
	}
	if info.ImageSizeMB <= 0 {
		info.ImageSizeMB = defaultImageSizeMB
	}
	if len(metadata.Image) > 0 {
		image := PlatformImage{
			Publisher: metadata.Image["publisher"],
			Offer:     metadata.Image["offer"],
			SKU:       metadata.Image["sku"],
			Version:   metadata.Image["version"],
		}
		if image.Version == "" {
			image.Version = LatestVersion
		}
		if image.Publisher == "" || image.Offer == "" || image.SKU == "" {
			return nil, errors.NotValidf("platform image %q", image.URN())
		}
		info.PlatformImage = &image
		info.URI = ""
	} else if uri == "" {
		return nil, errors.NotValidf("stemcell without image URI or platform image")
	}
	return info, nil
}

// IsLightStemcell reports whether the stemcell references a platform image.
func (s *StemcellInfo) IsLightStemcell() bool {
	return s.PlatformImage != nil
}

// IsWindows reports whether the stemcell is a Windows image.
func (s *StemcellInfo) IsWindows() bool {
	return s.OSType == osTypeWindows
}

// ImageSizeGB returns the image size rounded up to whole gigabytes.
func (s *StemcellInfo) ImageSizeGB() int {
	return (s.ImageSizeMB + 1023) / 1024
}

// ImageVersionLister lists the published versions of a platform image.
type ImageVersionLister interface {
	List(
		ctx context.Context,
		location, publisher, offer, skus string,
		options *armcompute.VirtualMachineImagesClientListOptions,
	) (armcompute.VirtualMachineImagesClientListResponse, error)
}

// ResolveLatest returns image with a "latest" version replaced by the
// most recent version published in the location. Images with a
// concrete version are returned unchanged.
func ResolveLatest(ctx context.Context, image PlatformImage, location string, client ImageVersionLister) (PlatformImage, error) {
	if !strings.EqualFold(image.Version, LatestVersion) {
		return image, nil
	}
	logger.Debugf("listing image versions: Location=%s, Publisher=%s, Offer=%s, SKU=%s",
		location, image.Publisher, image.Offer, image.SKU)
	result, err := client.List(ctx, location, image.Publisher, image.Offer, image.SKU, nil)
	if err != nil {
		return PlatformImage{}, errors.Annotatef(err, "listing versions of %s", image.URN())
	}
	var versions imageVersions
	for _, r := range result.VirtualMachineImageResourceArray {
		if r == nil || r.Name == nil {
			continue
		}
		v, err := parseImageVersion(*r.Name)
		if err != nil {
			logger.Errorf("ignoring image version %q (failed to parse: %s)", *r.Name, err)
			continue
		}
		versions = append(versions, v)
	}
	if len(versions) == 0 {
		return PlatformImage{}, errors.NotFoundf("versions of image %s in %s", image.URN(), location)
	}
	sort.Sort(versions)
	image.Version = versions[len(versions)-1].name
	return image, nil
}

type imageVersion struct {
	name  string
	parts []int
}

// parseImageVersion splits a dotted image version ("18.04.201901140")
// into its numeric parts.
func parseImageVersion(name string) (imageVersion, error) {
	fields := strings.Split(name, ".")
	v := imageVersion{name: name, parts: make([]int, len(fields))}
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return imageVersion{}, errors.Trace(err)
		}
		v.parts[i] = n
	}
	return v, nil
}

type imageVersions []imageVersion

func (v imageVersions) Len() int {
	return len(v)
}

func (v imageVersions) Swap(i, j int) {
	v[i], v[j] = v[j], v[i]
}

func (v imageVersions) Less(i, j int) bool {
	vi, vj := v[i].parts, v[j].parts
	for k := 0; k < len(vi) && k < len(vj); k++ {
		if vi[k] != vj[k] {
			return vi[k] < vj[k]
		}
	}
	return len(vi) < len(vj)
}
