// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package azuretesting

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("azurecpi.azuretesting")

// FakeCredential is a credential which always hands out the same token.
type FakeCredential struct{}

// GetToken is part of azcore.TokenCredential.
func (c *FakeCredential) GetToken(_ context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{
		Token:     "FakeToken",
		ExpiresOn: time.Now().Add(time.Hour),
	}, nil
}

// MockSender is a policy.Transporter which returns canned responses in
// the order they were appended. Every request is recorded.
type MockSender struct {
	mu sync.Mutex

	// PathPattern, if non-empty, is a regular expression every request
	// path must match.
	PathPattern string

	responses []*http.Response
	errors    []error
	requests  []*http.Request
}

// AppendResponse queues a response.
func (s *MockSender) AppendResponse(resp *http.Response) {
	s.AppendAndRepeatResponse(resp, 1)
}

// AppendAndRepeatResponse queues a response to be returned n times.
func (s *MockSender) AppendAndRepeatResponse(resp *http.Response, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body := readBody(resp)
	for i := 0; i < n; i++ {
		clone := *resp
		clone.Body = io.NopCloser(strings.NewReader(body))
		s.responses = append(s.responses, &clone)
		s.errors = append(s.errors, nil)
	}
}

// AppendError queues a transport error.
func (s *MockSender) AppendError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, nil)
	s.errors = append(s.errors, err)
}

// Requests returns the requests sent so far.
func (s *MockSender) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*http.Request(nil), s.requests...)
}

// Do is part of policy.Transporter.
func (s *MockSender) Do(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	logger.Debugf("mock sender: %s %s", req.Method, req.URL)
	if s.PathPattern != "" {
		if matched, _ := regexp.MatchString(s.PathPattern, req.URL.Path); !matched {
			return nil, fmt.Errorf("request path %q does not match %q", req.URL.Path, s.PathPattern)
		}
	}
	if len(s.responses) == 0 {
		return nil, fmt.Errorf("no response queued for %s %s", req.Method, req.URL)
	}
	resp, err := s.responses[0], s.errors[0]
	s.responses, s.errors = s.responses[1:], s.errors[1:]
	if resp != nil {
		resp.Request = req
	}
	return resp, err
}

func readBody(resp *http.Response) string {
	if resp.Body == nil {
		return ""
	}
	data, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return string(data)
}

// NewResponseWithContent returns a 200 OK response with the given
// JSON body.
func NewResponseWithContent(content string) *http.Response {
	return NewResponseWithBodyAndStatus(content, "200 OK", http.StatusOK)
}

// NewResponseWithStatus returns a response with an empty JSON body
// and the given status.
func NewResponseWithStatus(status string, code int) *http.Response {
	return NewResponseWithBodyAndStatus("{}", status, code)
}

// NewResponseWithBodyAndStatus returns a response with the given
// JSON body and status.
func NewResponseWithBodyAndStatus(content, status string, code int) *http.Response {
	return &http.Response{
		Status:     status,
		StatusCode: code,
		Proto:      "HTTP/1.0",
		ProtoMajor: 1,
		Header: http.Header{
			"Content-Type": []string{"application/json"},
		},
		Body:          io.NopCloser(strings.NewReader(content)),
		ContentLength: int64(len(content)),
	}
}
