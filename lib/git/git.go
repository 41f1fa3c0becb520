// Package git reads the repository a working copy was cloned from, so
// commands can default to it.
package git

import (
	"os/exec"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/repolens/cli/entity"
)

// Matches scp-style (git@host:owner/repo.git) and URL-style
// (https://host/owner/repo.git, ssh://git@host:22/owner/repo) remotes.
var remoteRegex = regexp.MustCompile(`^(?:[a-z+]+://(?:[^@/]+@)?[^/]+/|[^@:/]+@[^:]+:)(?P<Path>.+?)(?:\.git)?/?$`)

func execGit(path string, cmd ...string) ([]byte, error) {
	args := []string{}
	args = append(args, "-C", path)
	args = append(args, cmd...)
	gitCmd := exec.Command("git", args...)
	return gitCmd.Output()
}

func IsRepo(path string) bool {
	_, err := execGit(path, "rev-parse", "--git-dir")
	return err == nil
}

// ParseRemote extracts owner/name from a remote URL. Hosts that nest groups
// (a/b/c) yield the last two segments.
func ParseRemote(remote string) (entity.RepositoryID, error) {
	match := remoteRegex.FindStringSubmatch(strings.TrimSpace(remote))
	if match == nil {
		return "", errors.Errorf("unrecognized remote %q", remote)
	}
	segments := strings.Split(match[remoteRegex.SubexpIndex("Path")], "/")
	if len(segments) < 2 {
		return "", errors.Errorf("remote %q has no owner", remote)
	}
	return entity.ParseRepositoryID(strings.Join(segments[len(segments)-2:], "/"))
}

// OriginRepository returns the repository behind the origin remote of the
// working copy at path.
func OriginRepository(path string) (entity.RepositoryID, error) {
	out, err := execGit(path, "remote", "get-url", "origin")
	if err != nil {
		return "", errors.Wrap(err, "no origin remote")
	}
	return ParseRemote(string(out))
}

func GetBranch(path string) (string, error) {
	branch, err := execGit(path, "branch", "--show-current")
	return strings.TrimSpace(string(branch)), err
}
