package votd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveImageURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry CatalogEntry
		want  string
	}{
		{
			name:  "curated image wins",
			entry: CatalogEntry{CuratedImageURL: "https://cdn.example.com/curated.png", ImageURL: "https://cdn.example.com/plain.png"},
			want:  "https://cdn.example.com/curated.png",
		},
		{
			name:  "generic image is second choice",
			entry: CatalogEntry{ImageURL: "https://cdn.example.com/plain.png"},
			want:  "https://cdn.example.com/plain.png",
		},
		{
			name:  "synthesized from repo ids",
			entry: CatalogEntry{WorkbookRepoURL: "abc", DefaultViewRepoURL: "workbooks/12345/views/xyz"},
			want:  "https://public.tableau.com/views/abc/xyz.png?:display_static_image=y&:showVizHome=n",
		},
		{
			name:  "view repo id without slashes is used whole",
			entry: CatalogEntry{WorkbookRepoURL: "abc", DefaultViewRepoURL: "xyz"},
			want:  "https://public.tableau.com/views/abc/xyz.png?:display_static_image=y&:showVizHome=n",
		},
		{
			name:  "missing workbook id yields nothing",
			entry: CatalogEntry{DefaultViewRepoURL: "workbooks/12345/views/xyz"},
			want:  "",
		},
		{
			name:  "empty entry yields nothing",
			entry: CatalogEntry{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ResolveImageURL(tt.entry))
		})
	}
}

func TestResolveVizLink(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		entry CatalogEntry
		want  string
	}{
		{
			name:  "public url wins",
			entry: CatalogEntry{PublicURL: "https://public.tableau.com/app/profile/x/viz/y", WorkbookRepoURL: "abc", DefaultViewRepoURL: "v/xyz"},
			want:  "https://public.tableau.com/app/profile/x/viz/y",
		},
		{
			name:  "synthesized from repo ids",
			entry: CatalogEntry{WorkbookRepoURL: "abc", DefaultViewRepoURL: "v/xyz"},
			want:  "https://public.tableau.com/views/abc/xyz",
		},
		{
			name:  "no source yields nothing",
			entry: CatalogEntry{WorkbookRepoURL: "abc"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ResolveVizLink(tt.entry))
		})
	}
}
