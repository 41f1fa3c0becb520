package errors

import (
	goerrors "errors"
)

type RepoLensError error

var (
	// NotAuthorized means the remote token is absent or was rejected. Recoverable by logging in again.
	NotAuthorized RepoLensError = goerrors.New("not connected to the provider")
	// AuthMismatch means a callback carried a state that was never issued or was already used.
	AuthMismatch RepoLensError = goerrors.New("authorization state mismatch")
	// UserCancelled means the consent window went away without reporting an outcome.
	UserCancelled RepoLensError = goerrors.New("authorization cancelled")
	NotFound      RepoLensError = goerrors.New("path not found")
	// TooLarge means the provider declined to return the file inline.
	TooLarge RepoLensError = goerrors.New("file too large to display")
	// Transient covers network failures and timeouts. Safe to retry.
	Transient RepoLensError = goerrors.New("provider temporarily unavailable")
	// RemoteFault is an unexpected response from the provider. Not retried.
	RemoteFault RepoLensError = goerrors.New("unexpected provider response")

	// Superseded marks a result whose repository was deselected or refreshed
	// while the call was in flight. Callers drop it without reporting.
	Superseded    RepoLensError = goerrors.New("result superseded")
	ConfigMissing RepoLensError = goerrors.New("configuration incomplete")
	NoSelection   RepoLensError = goerrors.New("no repository selected")
	InvalidState  RepoLensError = goerrors.New("action not allowed in current state")
	NotADirectory RepoLensError = goerrors.New("not a directory")
)

var kinds = []struct {
	err  error
	code string
}{
	{NotAuthorized, "not_authorized"},
	{AuthMismatch, "auth_mismatch"},
	{UserCancelled, "user_cancelled"},
	{NotFound, "not_found"},
	{TooLarge, "too_large"},
	{Transient, "transient"},
	{RemoteFault, "remote_fault"},
	{Superseded, "superseded"},
	{ConfigMissing, "config_missing"},
	{NoSelection, "no_selection"},
	{InvalidState, "invalid_state"},
	{NotADirectory, "not_a_directory"},
}

// Kind returns the stable code of the first taxonomy error found in err's
// chain, or "internal".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if goerrors.Is(err, k.err) {
			return k.code
		}
	}
	return "internal"
}

// FromKind maps a code produced by Kind back to its sentinel.
func FromKind(code string) error {
	for _, k := range kinds {
		if k.code == code {
			return k.err
		}
	}
	return nil
}

func Retryable(err error) bool {
	return goerrors.Is(err, Transient)
}

// Is is errors.Is, re-exported so callers importing this package do not need
// a second errors import.
func Is(err, target error) bool {
	return goerrors.Is(err, target)
}
