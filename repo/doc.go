// Package repo fetches the repository under review and answers questions
// about where it is hosted.
//
// Core types:
//   - Fetcher: clones into a per-run workspace directory and cleans up on failure
//   - Discover: lists reviewable source files in a checkout
//   - GitHubHost / GitLabHost: repository existence and default branch lookups
//   - Hosts: dispatches a URL to the host for its platform
//
// Example:
//
//	f := repo.NewFetcher("/var/lib/reviewflow/work", repo.WithGit(git.NewClient()))
//	path, err := f.Clone(ctx, "https://github.com/acme/api", "", 1)
//	files, err := repo.Discover(path, repo.DiscoverOptions{MaxFiles: 20})
package repo
