package entity

import (
	"fmt"
	"strings"
	"time"
)

// RepositoryID identifies a remote repository as "owner/name".
type RepositoryID string

// ParseRepositoryID splits an "owner/name" identifier.
func ParseRepositoryID(s string) (RepositoryID, error) {
	owner, name, ok := strings.Cut(strings.Trim(s, "/"), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid repository %q, expected owner/name", s)
	}
	return RepositoryID(owner + "/" + name), nil
}

func (r RepositoryID) Owner() string {
	owner, _, _ := strings.Cut(string(r), "/")
	return owner
}

func (r RepositoryID) Name() string {
	_, name, _ := strings.Cut(string(r), "/")
	return name
}

func (r RepositoryID) String() string {
	return string(r)
}

// Repository is an immutable snapshot of remote repository metadata.
type Repository struct {
	RemoteID    int64     `json:"id"`
	Owner       string    `json:"owner"`
	OwnerAvatar string    `json:"owner_avatar,omitempty"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description,omitempty"`
	Private     bool      `json:"private"`
	Fork        bool      `json:"fork"`
	Language    string    `json:"language,omitempty"`
	Size        int64     `json:"size"`
	UpdatedAt   time.Time `json:"updated_at"`
	WebURL      string    `json:"html_url"`
	CloneURL    string    `json:"clone_url,omitempty"`
	SSHURL      string    `json:"ssh_url,omitempty"`
}

func (r *Repository) ID() RepositoryID {
	return RepositoryID(r.Owner + "/" + r.Name)
}

// EntryKind distinguishes files from directories.
type EntryKind string

const (
	KindFile      EntryKind = "file"
	KindDirectory EntryKind = "dir"
)

// Entry is one item of a remote directory listing.
type Entry struct {
	Name string    `json:"name"`
	Path string    `json:"path"`
	Kind EntryKind `json:"type"`
	Size int64     `json:"size,omitempty"`
}

// RawFile is a file body as returned by a provider, already decoded.
type RawFile struct {
	Path    string
	Size    int64
	Content []byte
}

const (
	EncodingUTF8   = "utf-8"
	EncodingBase64 = "base64"
)

// FileSnapshot is the file currently displayed. Content holds text for
// utf-8 files and standard base64 for binary ones.
type FileSnapshot struct {
	Repository RepositoryID `json:"repository"`
	Path       string       `json:"path"`
	Language   string       `json:"language"`
	Content    string       `json:"content"`
	Encoding   string       `json:"encoding"`
	Size       int64        `json:"size"`
}
