// Package credentials is the backing credential store the authorization
// coordinator talks to. It owns the OAuth client, persisted tokens and the
// provider identity lookup.
package credentials

import (
	"context"

	"github.com/repolens/cli/entity"
)

// Store issues consent URLs, exchanges codes and keeps one credential per
// local account.
type Store interface {
	// Status returns the account's credential, refreshed when expired, or
	// nil when the account is not connected.
	Status(ctx context.Context, account string) (*entity.Credential, error)
	AuthURL(state string) string
	Exchange(ctx context.Context, account, code string) (*entity.Credential, error)
	// Revoke invalidates the remote token and forgets it locally. The local
	// record is removed even when the remote call fails.
	Revoke(ctx context.Context, account string) error
	// Forget drops the local record without calling the provider.
	Forget(account string) error
}

// Records persists credentials per account. *configs.Configs implements it.
type Records interface {
	GetCredential(account string) (*entity.Credential, error)
	SetCredential(account string, cred *entity.Credential) error
	DeleteCredential(account string) error
}
