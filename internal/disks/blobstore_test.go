// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package disks_test

import (
	"context"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	"github.com/juju/azure-cpi/internal/azuretesting"
	"github.com/juju/azure-cpi/internal/disks"
)

type blobStoreSuite struct {
	testing.IsolationSuite

	sender *azuretesting.MockSender
	store  disks.BlobStore
}

var _ = gc.Suite(&blobStoreSuite{})

func (s *blobStoreSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.sender = &azuretesting.MockSender{}
	factory := disks.NewBlobStoreFactory("core.windows.net", &azuretesting.FakeCredential{}, &azblob.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Transport: s.sender,
			Retry:     policy.RetryOptions{MaxRetries: -1},
		},
	})
	var err error
	s.store, err = factory("sa")
	c.Assert(err, jc.ErrorIsNil)
}

func (s *blobStoreSuite) TestDeleteBlob(c *gc.C) {
	s.sender.AppendResponse(azuretesting.NewResponseWithStatus("202 Accepted", http.StatusAccepted))
	err := s.store.DeleteBlob(context.Background(), "bosh", "os-disk.vhd")
	c.Assert(err, jc.ErrorIsNil)
	req := s.sender.Requests()[0]
	c.Assert(req.Method, gc.Equals, http.MethodDelete)
	c.Assert(req.URL.Host, gc.Equals, "sa.blob.core.windows.net")
	c.Assert(req.URL.Path, gc.Equals, "/bosh/os-disk.vhd")
}

func (s *blobStoreSuite) TestDeleteBlobNotFound(c *gc.C) {
	resp := azuretesting.NewResponseWithStatus("404 Not Found", http.StatusNotFound)
	resp.Header.Set("x-ms-error-code", "BlobNotFound")
	s.sender.AppendResponse(resp)
	err := s.store.DeleteBlob(context.Background(), "bosh", "os-disk.vhd")
	c.Assert(err, jc.ErrorIsNil)
}

func (s *blobStoreSuite) TestDeleteBlobError(c *gc.C) {
	resp := azuretesting.NewResponseWithStatus("409 Conflict", http.StatusConflict)
	resp.Header.Set("x-ms-error-code", "LeaseIdMissing")
	s.sender.AppendResponse(resp)
	err := s.store.DeleteBlob(context.Background(), "bosh", "os-disk.vhd")
	c.Assert(err, gc.NotNil)
}

func (s *blobStoreSuite) TestListBlobs(c *gc.C) {
	resp := azuretesting.NewResponseWithContent(`<?xml version="1.0" encoding="utf-8"?>
<EnumerationResults ServiceEndpoint="https://sa.blob.core.windows.net/" ContainerName="bosh">
<Prefix>vm-name</Prefix>
<Blobs>
<Blob><Name>vm-name.1234.status</Name><Properties></Properties></Blob>
<Blob><Name>vm-name.screenshot</Name><Properties></Properties></Blob>
</Blobs>
<NextMarker />
</EnumerationResults>`)
	resp.Header.Set("Content-Type", "application/xml")
	s.sender.AppendResponse(resp)
	names, err := s.store.ListBlobs(context.Background(), "bosh", "vm-name")
	c.Assert(err, jc.ErrorIsNil)
	c.Assert(names, jc.DeepEquals, []string{"vm-name.1234.status", "vm-name.screenshot"})
	c.Assert(s.sender.Requests()[0].URL.Query().Get("prefix"), gc.Equals, "vm-name")
}
