// Package main fetches public GitHub metadata for a repository and prints a README for it.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/2beens/liftlog/internal/repometa"

	log "github.com/sirupsen/logrus"
)

func main() {
	repoURL := flag.String("url", "", "repository url, e.g. https://github.com/owner/repo")
	apiURL := flag.String("api", repometa.DefaultGitHubApiURL, "GitHub API base url")
	outPath := flag.String("out", "", "write the readme to this file instead of stdout")
	flag.Parse()

	if *repoURL == "" && flag.NArg() > 0 {
		*repoURL = flag.Arg(0)
	}
	if *repoURL == "" {
		fmt.Fprintln(os.Stderr, "usage: readmegen -url https://github.com/owner/repo [-out README.md]")
		os.Exit(2)
	}

	log.SetLevel(log.WarnLevel)

	ctx, cancel := context.WithTimeout(context.Background(), repometa.DefaultTimeout)
	defer cancel()

	api := repometa.NewApi(*apiURL, &http.Client{Timeout: repometa.DefaultTimeout})
	readme := api.GenerateReadme(ctx, *repoURL)

	if *outPath == "" {
		fmt.Println(readme)
		return
	}

	if err := os.WriteFile(*outPath, []byte(readme), 0o644); err != nil {
		log.Fatalf("write readme to %s: %s", *outPath, err)
	}
}
