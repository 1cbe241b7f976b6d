package repo

import (
	"fmt"
	"net/url"
	"strings"
)

// Platform identifies a repository host.
type Platform string

const (
	PlatformGitHub Platform = "github"
	PlatformGitLab Platform = "gitlab"
)

// Ref is a parsed repository URL.
type Ref struct {
	Platform Platform
	Host     string // e.g. "github.com" or a self-hosted GitLab host
	Owner    string // owner or namespace path
	Name     string
}

// FullName returns "owner/name".
func (r Ref) FullName() string {
	return r.Owner + "/" + r.Name
}

// Parse parses an HTTPS or SSH (git@host:owner/repo.git) repository URL.
// Hosts containing "github" map to PlatformGitHub and hosts containing
// "gitlab" to PlatformGitLab.
func Parse(rawURL string) (Ref, error) {
	rawURL = strings.TrimSpace(rawURL)
	var host, path string

	if strings.HasPrefix(rawURL, "git@") {
		rest := strings.TrimPrefix(rawURL, "git@")
		h, p, ok := strings.Cut(rest, ":")
		if !ok {
			return Ref{}, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
		}
		host, path = h, p
	} else {
		u, err := url.Parse(rawURL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return Ref{}, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
		}
		host, path = u.Hostname(), u.Path
	}

	if i := strings.Index(path, "/-/"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[0] == "" || parts[len(parts)-1] == "" {
		return Ref{}, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}

	ref := Ref{
		Host:  strings.ToLower(host),
		Owner: strings.Join(parts[:len(parts)-1], "/"),
		Name:  parts[len(parts)-1],
	}
	switch {
	case strings.Contains(ref.Host, "github"):
		ref.Platform = PlatformGitHub
		// GitHub paths are exactly owner/repo; ignore /tree/main and similar suffixes.
		ref.Owner, ref.Name = parts[0], parts[1]
	case strings.Contains(ref.Host, "gitlab"):
		ref.Platform = PlatformGitLab
	default:
		return ref, fmt.Errorf("%w: %s", ErrUnknownPlatform, ref.Host)
	}
	return ref, nil
}
