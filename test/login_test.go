//go:build integration_test || all_tests

package test

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/2beens/liftlog/internal/auth"
)

func (s *IntegrationTestSuite) TestLogin() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cases := map[string]struct {
		creds              auth.Credentials
		expectedStatusCode int
		expectedBody       string
	}{
		"good creds": {
			creds:              auth.Credentials{Username: testUsername, Password: testPassword},
			expectedStatusCode: http.StatusOK,
			expectedBody:       `"token":`,
		},
		"bad password": {
			creds:              auth.Credentials{Username: testUsername, Password: "bad-password"},
			expectedStatusCode: http.StatusUnauthorized,
			expectedBody:       "error, wrong credentials",
		},
		"bad username": {
			creds:              auth.Credentials{Username: "nobody", Password: testPassword},
			expectedStatusCode: http.StatusUnauthorized,
			expectedBody:       "error, wrong credentials",
		},
		"empty password": {
			creds:              auth.Credentials{Username: testUsername},
			expectedStatusCode: http.StatusBadRequest,
			expectedBody:       "error, username or password empty",
		},
	}

	for name, tc := range cases {
		s.Run(name, func() {
			resp, body := s.doJSON(ctx, http.MethodPost, "/a/login", tc.creds, nil)
			s.Equal(tc.expectedStatusCode, resp.StatusCode)
			s.Contains(string(body), tc.expectedBody)
		})
	}
}

func (s *IntegrationTestSuite) TestLoginThenLogout() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	token := s.doLogin(ctx)

	resp, _ := s.doJSON(ctx, http.MethodPost, "/api/exercises", map[string]string{"name": "Logout Check"}, tokenHeader(token))
	s.Equal(http.StatusCreated, resp.StatusCode)

	resp, body := s.doJSON(ctx, http.MethodGet, "/a/logout", nil, tokenHeader(token))
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("logged-out", strings.TrimSpace(string(body)))

	// the token is dead now
	resp, _ = s.doJSON(ctx, http.MethodPost, "/api/exercises", map[string]string{"name": "After Logout"}, tokenHeader(token))
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestDashboardFormLogin() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// not logged in: sent back to the page with an error
	resp := s.postForm(ctx, "/exercises", url.Values{"name": {"Form Squat"}})
	s.Equal(http.StatusSeeOther, resp.StatusCode)
	s.Contains(resp.Header.Get("Location"), "Please+log+in+first.")

	resp = s.postForm(ctx, "/a/login", url.Values{"username": {testUsername}, "password": {testPassword}})
	s.Require().Equal(http.StatusSeeOther, resp.StatusCode)
	var session *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == auth.SessionCookie {
			session = c
		}
	}
	s.Require().NotNil(session)
	s.True(session.HttpOnly)

	resp = s.postForm(ctx, "/exercises", url.Values{"name": {"Form Squat"}}, session)
	s.Equal(http.StatusSeeOther, resp.StatusCode)
	s.Contains(resp.Header.Get("Location"), "Exercise+added+successfully%21")
}
