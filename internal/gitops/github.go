package gitops

import (
	"context"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"

	"github.com/cloudmasa/engine/internal/log"
)

// FallbackIdentity is used when the token's owner cannot be resolved.
// Git over HTTPS accepts it as the username for token auth.
const FallbackIdentity = "x-access-token"

// IdentityResolver resolves the username behind a source-control
// token. Resolution is best-effort: implementations return
// FallbackIdentity rather than an error.
type IdentityResolver interface {
	Username(ctx context.Context, token string) string
}

// GitHubResolver resolves identities against the GitHub API.
type GitHubResolver struct {
	Timeout time.Duration
}

// Username returns the authenticated user's login, or FallbackIdentity
// on any failure. The token itself is never logged.
func (g *GitHubResolver) Username(ctx context.Context, token string) string {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	user, _, err := client.Users.Get(ctx, "")
	if err != nil || user.GetLogin() == "" {
		log.WithComponent("gitops").Warn().Msg("could not resolve token identity, using fallback")
		return FallbackIdentity
	}
	return user.GetLogin()
}
