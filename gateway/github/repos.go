package github

import (
	"context"
	"encoding/base64"
	"strings"

	gh "github.com/google/go-github/github"
	gql "github.com/machinebox/graphql"
	"github.com/pkg/errors"
	"github.com/repolens/cli/entity"
	rlerrors "github.com/repolens/cli/errors"
	"github.com/repolens/cli/gateway"
)

const treeQuery = `
	query($owner: String!, $name: String!, $expression: String!) {
		repository(owner: $owner, name: $name) {
			object(expression: $expression) {
				__typename
				... on Tree {
					entries {
						name
						path
						type
						object {
							... on Blob {
								byteSize
							}
						}
					}
				}
			}
		}
	}
`

type treeEntry struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Type   string `json:"type"`
	Object *struct {
		ByteSize int64 `json:"byteSize"`
	} `json:"object"`
}

func (g *Gateway) ListRepositories(ctx context.Context, token string) ([]*entity.Repository, error) {
	opts := &gh.RepositoryListOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{PerPage: repositoryPageSize, Page: 1},
	}
	list, res, err := g.restClient(token).Repositories.List(ctx, "", opts)
	if err != nil {
		return nil, classify("list_repositories", res, err)
	}

	repos := make([]*entity.Repository, 0, len(list))
	for _, r := range list {
		repos = append(repos, &entity.Repository{
			RemoteID:    r.GetID(),
			Owner:       r.GetOwner().GetLogin(),
			OwnerAvatar: r.GetOwner().GetAvatarURL(),
			Name:        r.GetName(),
			FullName:    r.GetFullName(),
			Description: r.GetDescription(),
			Private:     r.GetPrivate(),
			Fork:        r.GetFork(),
			Language:    r.GetLanguage(),
			Size:        int64(r.GetSize()),
			UpdatedAt:   r.GetUpdatedAt().Time,
			WebURL:      r.GetHTMLURL(),
			CloneURL:    r.GetCloneURL(),
			SSHURL:      r.GetSSHURL(),
		})
	}
	return repos, nil
}

func (g *Gateway) ListDirectory(ctx context.Context, token string, repo entity.RepositoryID, path string) ([]*entity.Entry, error) {
	req := gql.NewRequest(treeQuery)
	req.Var("owner", repo.Owner())
	req.Var("name", repo.Name())
	req.Var("expression", "HEAD:"+path)

	var resp struct {
		Repository *struct {
			Object *struct {
				Typename string      `json:"__typename"`
				Entries  []treeEntry `json:"entries"`
			} `json:"object"`
		} `json:"repository"`
	}
	if err := g.graphqlClient("list_directory", token).Run(ctx, req, &resp); err != nil {
		return nil, classifyGraphQL("list_directory", err)
	}
	if resp.Repository == nil {
		return nil, errors.Wrapf(rlerrors.NotFound, "repository %s", repo)
	}
	obj := resp.Repository.Object
	if obj == nil {
		return nil, errors.Wrapf(rlerrors.NotFound, "%s:%s", repo, path)
	}
	if obj.Typename != "Tree" {
		return nil, errors.Wrapf(rlerrors.NotADirectory, "%s:%s", repo, path)
	}

	entries := make([]*entity.Entry, 0, len(obj.Entries))
	for _, e := range obj.Entries {
		entry := &entity.Entry{
			Name: e.Name,
			Path: e.Path,
			Kind: entity.KindFile,
		}
		if e.Type == "tree" {
			entry.Kind = entity.KindDirectory
		}
		if e.Object != nil {
			entry.Size = e.Object.ByteSize
		}
		if entry.Path == "" {
			entry.Path = joinPath(path, e.Name)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (g *Gateway) ReadFile(ctx context.Context, token string, repo entity.RepositoryID, path string) (*entity.RawFile, error) {
	file, dir, res, err := g.restClient(token).Repositories.GetContents(ctx, repo.Owner(), repo.Name(), path, nil)
	if err != nil {
		return nil, classify("read_file", res, err)
	}
	if dir != nil || file == nil {
		return nil, errors.Wrapf(rlerrors.NotFound, "%s is a directory", path)
	}
	if file.GetType() != "file" {
		return nil, errors.Wrapf(rlerrors.NotFound, "%s is a %s", path, file.GetType())
	}

	// Files over 1MB come back without inline content.
	if file.Content == nil || file.GetEncoding() == "none" || (*file.Content == "" && file.GetSize() > 0) {
		return nil, errors.Wrapf(rlerrors.TooLarge, "%s (%d bytes)", path, file.GetSize())
	}

	content := []byte(*file.Content)
	if file.GetEncoding() == "base64" {
		content, err = base64.StdEncoding.DecodeString(strings.NewReplacer("\n", "", "\r", "").Replace(*file.Content))
		if err != nil {
			return nil, gateway.DecodeError("read_file", err)
		}
	}
	return &entity.RawFile{
		Path:    file.GetPath(),
		Size:    int64(file.GetSize()),
		Content: content,
	}, nil
}

// classifyGraphQL maps transport and GraphQL-level errors. Transport errors
// were already classified by gateway.StatusTransport.
func classifyGraphQL(op string, err error) error {
	if rlerrors.Kind(err) != "internal" {
		return err
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "graphql: ") {
		if strings.Contains(msg, "Could not resolve") {
			return errors.Wrapf(rlerrors.NotFound, "%s: %s", op, strings.TrimPrefix(msg, "graphql: "))
		}
		return errors.Wrapf(rlerrors.RemoteFault, "%s: %s", op, strings.TrimPrefix(msg, "graphql: "))
	}
	return gateway.TransportError(op, err)
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
