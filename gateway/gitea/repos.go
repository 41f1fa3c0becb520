package gitea

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/gateway"
)

type repository struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
	Fork        bool   `json:"fork"`
	HTMLURL     string `json:"html_url"`
	CloneURL    string `json:"clone_url"`
	SSHURL      string `json:"ssh_url"`
	Language    string `json:"language"`
	Size        int64  `json:"size"`
	UpdatedAt   string `json:"updated_at"`
	Owner       user   `json:"owner"`
}

// contentsEntry is one element of the contents API. Content is only present
// when a single file was requested and the server was willing to inline it.
type contentsEntry struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Type     string  `json:"type"`
	Size     int64   `json:"size"`
	Encoding *string `json:"encoding"`
	Content  *string `json:"content"`
}

func (g *Gateway) ListRepositories(ctx context.Context, token string) ([]*entity.Repository, error) {
	req := g.newRequest(ctx, "list_repositories", token, "/user/repos")
	req.query.Set("limit", strconv.Itoa(repositoryPageSize))
	req.query.Set("page", "1")

	var resp []repository
	if err := g.run(req, &resp); err != nil {
		return nil, err
	}

	repos := make([]*entity.Repository, 0, len(resp))
	for _, r := range resp {
		updated, _ := gateway.ParseTime(r.UpdatedAt)
		repos = append(repos, &entity.Repository{
			RemoteID:    r.ID,
			Owner:       r.Owner.Login,
			OwnerAvatar: r.Owner.AvatarURL,
			Name:        r.Name,
			FullName:    r.FullName,
			Description: r.Description,
			Private:     r.Private,
			Fork:        r.Fork,
			Language:    r.Language,
			Size:        r.Size,
			UpdatedAt:   updated,
			WebURL:      r.HTMLURL,
			CloneURL:    r.CloneURL,
			SSHURL:      r.SSHURL,
		})
	}
	return repos, nil
}

// contents fetches the contents endpoint, which answers with an array for a
// directory and an object for anything else.
func (g *Gateway) contents(ctx context.Context, op, token string, repo entity.RepositoryID, path string) ([]contentsEntry, *contentsEntry, error) {
	var raw json.RawMessage
	if err := g.run(g.newRequest(ctx, op, token, contentsPath(repo.Owner(), repo.Name(), path)), &raw); err != nil {
		return nil, nil, err
	}
	if len(raw) > 0 && raw[0] == '[' {
		var dir []contentsEntry
		if err := json.Unmarshal(raw, &dir); err != nil {
			return nil, nil, gateway.DecodeError(op, err)
		}
		return dir, nil, nil
	}
	var file contentsEntry
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, nil, gateway.DecodeError(op, err)
	}
	return nil, &file, nil
}

func (g *Gateway) ListDirectory(ctx context.Context, token string, repo entity.RepositoryID, path string) ([]*entity.Entry, error) {
	dir, file, err := g.contents(ctx, "list_directory", token, repo, path)
	if err != nil {
		return nil, err
	}
	if file != nil {
		return nil, errors.Wrapf(rlerrors.NotADirectory, "%s", path)
	}

	entries := make([]*entity.Entry, 0, len(dir))
	for _, e := range dir {
		kind := entity.KindFile
		if e.Type == "dir" {
			kind = entity.KindDirectory
		}
		entries = append(entries, &entity.Entry{
			Name: e.Name,
			Path: e.Path,
			Kind: kind,
			Size: e.Size,
		})
	}
	return entries, nil
}

func (g *Gateway) ReadFile(ctx context.Context, token string, repo entity.RepositoryID, path string) (*entity.RawFile, error) {
	_, file, err := g.contents(ctx, "read_file", token, repo, path)
	if err != nil {
		return nil, err
	}
	if file == nil || file.Type == "dir" {
		return nil, errors.Wrapf(rlerrors.NotFound, "%s is a directory", path)
	}
	if file.Type != "file" {
		return nil, errors.Wrapf(rlerrors.NotFound, "%s is a %s", path, file.Type)
	}
	if file.Content == nil {
		return nil, errors.Wrapf(rlerrors.TooLarge, "%s (%d bytes)", path, file.Size)
	}

	content := []byte(*file.Content)
	if file.Encoding != nil && *file.Encoding == "base64" {
		content, err = base64.StdEncoding.DecodeString(*file.Content)
		if err != nil {
			return nil, gateway.DecodeError("read_file", err)
		}
	}
	return &entity.RawFile{
		Path:    file.Path,
		Size:    file.Size,
		Content: content,
	}, nil
}
