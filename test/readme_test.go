//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"
)

func (s *IntegrationTestSuite) TestReadme() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp, body := s.doJSON(ctx, http.MethodGet, "/readme?url=https://github.com/2beens/liftlog", nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("# liftlog\n\n**Primary Language**: Go\n**Stars**: 42\n**Forks**: 7\n**Open Issues**: 3\n", string(body))

	resp, body = s.doJSON(ctx, http.MethodGet, "/readme?url=https://github.com/2beens/no-language.git", nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Contains(string(body), "**Primary Language**: Not specified")

	resp, body = s.doJSON(ctx, http.MethodGet, "/readme?url=https://github.com/2beens/missing", nil, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Contains(string(body), "Error: 404 Not Found for url:")

	resp, body = s.doJSON(ctx, http.MethodGet, "/readme?url=liftlog", nil, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(string(body), "Error: ")

	resp, _ = s.doJSON(ctx, http.MethodGet, "/readme", nil, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}
