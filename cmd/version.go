package cmd

import (
	"context"
	"fmt"

	"github.com/google/go-github/github"
	"github.com/repolens/cli/constants"
	"github.com/repolens/cli/entity"
)

func (h *Handler) Version(ctx context.Context, req *entity.CommandRequest) error {
	fmt.Printf("repolens version %s\n", constants.Version)
	if constants.Version != "source" {
		latest, err := getLatestVersion(ctx)
		if err != nil {
			return nil
		}
		if latest != "" && latest != constants.Version {
			fmt.Println("A newer version of repolens is available, please update to:", latest)
		}
	}
	return nil
}

func getLatestVersion(ctx context.Context) (string, error) {
	client := github.NewClient(nil)
	rep, _, err := client.Repositories.GetLatestRelease(ctx, constants.ReleaseOwner, constants.ReleaseRepo)
	if err != nil {
		return "", err
	}
	return rep.GetTagName(), nil
}
