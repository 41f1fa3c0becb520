package auth

import (
	"context"

	"github.com/pkg/browser"
)

// Opener shows the provider's consent page in a detached context.
type Opener interface {
	Open(ctx context.Context, url string) error
}

type OpenerFunc func(ctx context.Context, url string) error

func (f OpenerFunc) Open(ctx context.Context, url string) error {
	return f(ctx, url)
}

// BrowserOpener opens the system browser.
type BrowserOpener struct{}

func (BrowserOpener) Open(_ context.Context, url string) error {
	return browser.OpenURL(url)
}

// PageOpener leaves opening to the page that asked for the URL; the web
// console opens it in a popup itself.
type PageOpener struct{}

func (PageOpener) Open(context.Context, string) error {
	return nil
}
