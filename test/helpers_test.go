//go:build integration_test || all_tests

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/2beens/liftlog/internal/auth"
)

func (s *IntegrationTestSuite) doJSON(ctx context.Context, method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, reqBody)
	s.Require().NoError(err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()

	respBytes, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, respBytes
}

func (s *IntegrationTestSuite) postForm(ctx context.Context, path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverEndpoint+path, strings.NewReader(form.Encode()))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	_ = resp.Body.Close()
	return resp
}

func (s *IntegrationTestSuite) doLogin(ctx context.Context) string {
	resp, respBytes := s.doJSON(ctx, http.MethodPost, "/a/login", auth.Credentials{
		Username: testUsername,
		Password: testPassword,
	}, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode, string(respBytes))

	var loginResp auth.LoginResponse
	s.Require().NoError(json.Unmarshal(respBytes, &loginResp))
	s.Require().NotEmpty(loginResp.Token)
	return loginResp.Token
}

func tokenHeader(token string) map[string]string {
	return map[string]string{auth.TokenHeader: token}
}
