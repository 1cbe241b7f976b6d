// Package git runs the git commands a review needs: cloning the repository
// under review and inspecting the checkout.
//
// Core types:
//   - Client: clone and rev-parse helpers with per-host token injection
//   - CommandRunner: Interface for executing git commands (with mocks for testing)
//
// Example usage:
//
//	client := git.NewClient(git.WithToken("github.com", token))
//	if err := client.Clone(ctx, "https://github.com/acme/api", dest, 1); err != nil {
//	    return err
//	}
//	sha, _ := client.HeadCommit(ctx, dest)
package git
