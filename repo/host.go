package repo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/xanzy/go-gitlab"
	"golang.org/x/oauth2"
)

// Info describes a hosted repository.
type Info struct {
	Platform      Platform
	FullName      string
	DefaultBranch string
	Private       bool
	WebURL        string
}

// Host looks up repositories on one platform.
type Host interface {
	Lookup(ctx context.Context, ref Ref) (Info, error)
}

// =============================================================================
// GitHub
// =============================================================================

// GitHubHost looks up repositories through the GitHub REST API.
type GitHubHost struct {
	client *github.Client
}

// NewGitHubHost creates a GitHub host. token may be empty for public
// repositories. baseURL overrides the API endpoint (GitHub Enterprise or tests).
func NewGitHubHost(token, baseURL string) (*GitHubHost, error) {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	client := github.NewClient(httpClient)

	if baseURL != "" {
		u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse GitHub base URL: %w", err)
		}
		client.BaseURL = u
	}
	return &GitHubHost{client: client}, nil
}

// Lookup implements Host.
func (h *GitHubHost) Lookup(ctx context.Context, ref Ref) (Info, error) {
	r, resp, err := h.client.Repositories.Get(ctx, ref.Owner, ref.Name)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return Info{}, fmt.Errorf("%w: %s", ErrNotFound, ref.FullName())
		}
		return Info{}, fmt.Errorf("get GitHub repository %s: %w", ref.FullName(), err)
	}
	return Info{
		Platform:      PlatformGitHub,
		FullName:      r.GetFullName(),
		DefaultBranch: r.GetDefaultBranch(),
		Private:       r.GetPrivate(),
		WebURL:        r.GetHTMLURL(),
	}, nil
}

// =============================================================================
// GitLab
// =============================================================================

// GitLabHost looks up projects through the GitLab REST API.
type GitLabHost struct {
	client *gitlab.Client
}

// NewGitLabHost creates a GitLab host. baseURL is the instance URL (empty
// for gitlab.com).
func NewGitLabHost(token, baseURL string) (*GitLabHost, error) {
	var opts []gitlab.ClientOptionFunc
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}
	return &GitLabHost{client: client}, nil
}

// Lookup implements Host.
func (h *GitLabHost) Lookup(ctx context.Context, ref Ref) (Info, error) {
	p, resp, err := h.client.Projects.GetProject(ref.FullName(), nil, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return Info{}, fmt.Errorf("%w: %s", ErrNotFound, ref.FullName())
		}
		return Info{}, fmt.Errorf("get GitLab project %s: %w", ref.FullName(), err)
	}
	return Info{
		Platform:      PlatformGitLab,
		FullName:      p.PathWithNamespace,
		DefaultBranch: p.DefaultBranch,
		Private:       p.Visibility == gitlab.PrivateVisibility,
		WebURL:        p.WebURL,
	}, nil
}

// =============================================================================
// Dispatch
// =============================================================================

// Hosts dispatches lookups by platform. Platforms without a Host are
// reported as ErrUnknownPlatform.
type Hosts map[Platform]Host

// Lookup parses rawURL and asks the matching host about it.
func (hs Hosts) Lookup(ctx context.Context, rawURL string) (Info, error) {
	ref, err := Parse(rawURL)
	if err != nil {
		return Info{}, err
	}
	h, ok := hs[ref.Platform]
	if !ok || h == nil {
		return Info{}, fmt.Errorf("%w: no host configured for %s", ErrUnknownPlatform, ref.Platform)
	}
	return h.Lookup(ctx, ref)
}

// IsNotFound reports whether err says the repository does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
