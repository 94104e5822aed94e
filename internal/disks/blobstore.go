// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package disks

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/juju/errors"
)

// BlobStore is the subset of blob storage operations used to remove
// unmanaged disks and status files.
type BlobStore interface {
	// DeleteBlob deletes the blob. Deleting a blob which does not
	// exist is not an error.
	DeleteBlob(ctx context.Context, container, name string) error
	// ListBlobs returns the names of the blobs in the container
	// starting with prefix.
	ListBlobs(ctx context.Context, container, prefix string) ([]string, error)
}

// BlobStoreFactory returns the BlobStore of a storage account.
type BlobStoreFactory func(storageAccount string) (BlobStore, error)

// NewBlobStoreFactory returns a BlobStoreFactory which talks to the
// blob service of storage accounts with the given endpoint suffix.
func NewBlobStoreFactory(
	storageEndpointSuffix string,
	cred azcore.TokenCredential,
	opts *azblob.ClientOptions,
) BlobStoreFactory {
	return func(storageAccount string) (BlobStore, error) {
		serviceURL := fmt.Sprintf("https://%s.blob.%s/", storageAccount, storageEndpointSuffix)
		client, err := azblob.NewClient(serviceURL, cred, opts)
		if err != nil {
			return nil, errors.Annotatef(err, "creating blob client for %q", storageAccount)
		}
		return &azblobStore{client: client}, nil
	}
}

type azblobStore struct {
	client *azblob.Client
}

// DeleteBlob is part of the BlobStore interface.
func (s *azblobStore) DeleteBlob(ctx context.Context, container, name string) error {
	_, err := s.client.DeleteBlob(ctx, container, name, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound) {
		return errors.Trace(err)
	}
	return nil
}

// ListBlobs is part of the BlobStore interface.
func (s *azblobStore) ListBlobs(ctx context.Context, container, prefix string) ([]string, error) {
	var names []string
	pager := s.client.NewListBlobsFlatPager(container, &azblob.ListBlobsFlatOptions{
		Prefix: &prefix,
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			if bloberror.HasCode(err, bloberror.ContainerNotFound) {
				return nil, nil
			}
			return nil, errors.Trace(err)
		}
		if page.Segment == nil {
			continue
		}
		for _, item := range page.Segment.BlobItems {
			if item != nil && item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}
