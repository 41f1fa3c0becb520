package ui

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/repolens/cli/entity"
)

const pageSize = 15

type Action string

const (
	ActionOpen         Action = "open"
	ActionUp           Action = "up"
	ActionRefresh      Action = "refresh"
	ActionRepositories Action = "repositories"
	ActionQuit         Action = "quit"
)

// BrowseItem is one line of the interactive tree browser.
type BrowseItem struct {
	Label  string
	Action Action
	Node   *entity.TreeNode
}

func PromptText(text string) (string, error) {
	prompt := promptui.Prompt{
		Label: text,
	}
	return prompt.Run()
}

func PromptRepositories(repos []*entity.Repository) (*entity.Repository, error) {
	prompt := promptui.Select{
		Label:    "Select Repository",
		Items:    repos,
		Size:     pageSize,
		Searcher: repositorySearcher(repos),
		Templates: &promptui.SelectTemplates{
			Active:   `{{ .FullName | underline }}{{ if .Private }} {{ "private" | faint }}{{ end }}`,
			Inactive: `{{ .FullName }}{{ if .Private }} {{ "private" | faint }}{{ end }}`,
			Selected: fmt.Sprintf("%s Repository: {{ .FullName | magenta | bold }} ", GreenText("✔")),
			Details: `
{{ "Description:" | faint }}	{{ .Description }}
{{ "Language:" | faint }}	{{ .Language }}
{{ "Updated:" | faint }}	{{ .UpdatedAt.Format "2006-01-02" }}`,
		},
	}
	i, _, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	return repos[i], nil
}

func repositorySearcher(repos []*entity.Repository) func(string, int) bool {
	return func(input string, index int) bool {
		name := strings.ToLower(repos[index].ID().String())
		return strings.Contains(name, strings.ToLower(strings.TrimSpace(input)))
	}
}

// BrowseItems lists dir's children followed by the navigation actions.
func BrowseItems(dir string, children []*entity.TreeNode) []BrowseItem {
	items := make([]BrowseItem, 0, len(children)+4)
	if dir != "" {
		items = append(items, BrowseItem{Label: "..", Action: ActionUp})
	}
	for _, n := range children {
		items = append(items, BrowseItem{Label: EntryLabel(n), Action: ActionOpen, Node: n})
	}
	return append(items,
		BrowseItem{Label: "[refresh]", Action: ActionRefresh},
		BrowseItem{Label: "[repositories]", Action: ActionRepositories},
		BrowseItem{Label: "[quit]", Action: ActionQuit},
	)
}

// PromptBrowse asks which entry of dir to open next.
func PromptBrowse(repo entity.RepositoryID, dir string, children []*entity.TreeNode) (BrowseItem, error) {
	items := BrowseItems(dir, children)
	label := repo.String() + ":/" + dir
	prompt := promptui.Select{
		Label: label,
		Items: items,
		Size:  pageSize,
		Searcher: func(input string, index int) bool {
			return strings.Contains(strings.ToLower(items[index].Label), strings.ToLower(strings.TrimSpace(input)))
		},
		Templates: &promptui.SelectTemplates{
			Active:   `{{ .Label | underline }}`,
			Inactive: `{{ .Label }}`,
			Selected: `{{ .Label | faint }}`,
		},
	}
	i, _, err := prompt.Run()
	if err != nil {
		return BrowseItem{}, err
	}
	return items[i], nil
}
