package repometa

import (
	"context"
	"fmt"
	"strings"
)

func FormatReadme(repo string, info RepoInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", repo)
	fmt.Fprintf(&sb, "**Primary Language**: %s\n", info.PrimaryLanguage())
	fmt.Fprintf(&sb, "**Stars**: %d\n", info.StargazersCount)
	fmt.Fprintf(&sb, "**Forks**: %d\n", info.ForksCount)
	fmt.Fprintf(&sb, "**Open Issues**: %d\n", info.OpenIssuesCount)
	return sb.String()
}

// Fetch parses the repository url and builds its readme.
func (a *Api) Fetch(ctx context.Context, repoURL string) (string, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return "", err
	}

	info, err := a.GetRepoInfo(ctx, owner, repo)
	if err != nil {
		return "", err
	}

	return FormatReadme(repo, *info), nil
}

// GenerateReadme never fails: any error is rendered as "Error: <message>".
func (a *Api) GenerateReadme(ctx context.Context, repoURL string) string {
	readme, err := a.Fetch(ctx, repoURL)
	if err != nil {
		return ErrorText(err)
	}
	return readme
}

func ErrorText(err error) string {
	return "Error: " + err.Error()
}
