package gateway

import (
	"bytes"
	"encoding/base64"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/repolens/cli/entity"
)

// CleanPath normalises a repository-relative path: no leading or trailing
// slash, no dot segments. The root is "".
func CleanPath(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	for strings.HasPrefix(p, "../") {
		p = strings.TrimPrefix(p, "../")
	}
	if p == "." || p == ".." {
		return ""
	}
	return p
}

// Snapshot turns provider bytes into the displayed form. Binary content is
// carried as base64 so it is never mangled.
func Snapshot(repo entity.RepositoryID, p string, raw *entity.RawFile) *entity.FileSnapshot {
	snap := &entity.FileSnapshot{
		Repository: repo,
		Path:       p,
		Language:   LanguageFor(p),
		Size:       raw.Size,
	}
	if snap.Size == 0 {
		snap.Size = int64(len(raw.Content))
	}
	if IsBinary(raw.Content) {
		snap.Content = base64.StdEncoding.EncodeToString(raw.Content)
		snap.Encoding = entity.EncodingBase64
		return snap
	}
	snap.Content = string(raw.Content)
	snap.Encoding = entity.EncodingUTF8
	return snap
}

func IsBinary(b []byte) bool {
	return bytes.IndexByte(b, 0) >= 0 || !utf8.Valid(b)
}

// ParseTime accepts the RFC 3339 timestamps providers send.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
