package git

import (
	"testing"

	"github.com/repolens/cli/entity"
	"github.com/stretchr/testify/require"
)

func TestParseRemote(t *testing.T) {
	tests := []struct {
		remote string
		want   entity.RepositoryID
	}{
		{"git@github.com:acme/widgets.git", "acme/widgets"},
		{"git@gitea.com:acme/widgets", "acme/widgets"},
		{"https://github.com/acme/widgets.git", "acme/widgets"},
		{"https://github.com/acme/widgets\n", "acme/widgets"},
		{"https://token@gitea.example.com/acme/widgets/", "acme/widgets"},
		{"ssh://git@gitea.example.com:2222/acme/widgets.git", "acme/widgets"},
		{"https://gitlab.example.com/group/sub/widgets.git", "sub/widgets"},
	}
	for _, tt := range tests {
		t.Run(tt.remote, func(t *testing.T) {
			got, err := ParseRemote(tt.remote)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseRemoteRejectsLocalPaths(t *testing.T) {
	for _, remote := range []string{"", "/srv/git/widgets", "https://github.com/widgets"} {
		_, err := ParseRemote(remote)
		require.Error(t, err, remote)
	}
}
