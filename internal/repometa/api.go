package repometa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2beens/liftlog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultGitHubApiURL = "https://api.github.com"
	githubAcceptHeader  = "application/vnd.github+json"
	maxResponseBytes    = 1 << 20

	DefaultTimeout = 10 * time.Second
)

var ErrInvalidRepoURL = errors.New("invalid repository url")

// StatusError is returned when GitHub answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s for url: %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

// RepoInfo holds the subset of GitHub repository metadata the readme needs.
// Language is nil when GitHub reports none.
type RepoInfo struct {
	Language        *string `json:"language"`
	StargazersCount int     `json:"stargazers_count"`
	ForksCount      int     `json:"forks_count"`
	OpenIssuesCount int     `json:"open_issues_count"`
}

func (i RepoInfo) PrimaryLanguage() string {
	if i.Language == nil || *i.Language == "" {
		return "Not specified"
	}
	return *i.Language
}

type Api struct {
	githubApiURL string // https://api.github.com
	httpClient   *http.Client
}

func NewApi(githubApiURL string, httpClient *http.Client) *Api {
	if githubApiURL == "" {
		githubApiURL = DefaultGitHubApiURL
	}
	return &Api{
		githubApiURL: strings.TrimSuffix(githubApiURL, "/"),
		httpClient:   httpClient,
	}
}

// ParseRepoURL takes the owner and the repo name from the last two path
// segments of a repository url, e.g. https://github.com/owner/repo.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	trimmed := strings.TrimSpace(repoURL)
	trimmed = strings.TrimRight(trimmed, "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")

	var segments []string
	for _, s := range strings.Split(trimmed, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) < 2 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepoURL, repoURL)
	}

	owner, repo = segments[len(segments)-2], segments[len(segments)-1]
	if strings.HasSuffix(owner, ":") {
		// only scheme and host left, like https://github.com
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRepoURL, repoURL)
	}

	return owner, repo, nil
}

func (a *Api) GetRepoInfo(ctx context.Context, owner, repo string) (_ *RepoInfo, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repometaApi.getRepoInfo")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("repo.owner", owner))
	span.SetAttributes(attribute.String("repo.name", repo))

	reqURL := fmt.Sprintf("%s/repos/%s/%s", a.githubApiURL, url.PathEscape(owner), url.PathEscape(repo))
	log.Debugf("calling github api: %s", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", githubAcceptHeader)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain, so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: reqURL}
	}

	respBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read github api response: %w", err)
	}

	info := &RepoInfo{}
	if err := json.Unmarshal(respBytes, info); err != nil {
		return nil, fmt.Errorf("unmarshal github api response: %w", err)
	}

	return info, nil
}
