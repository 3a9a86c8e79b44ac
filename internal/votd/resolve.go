package votd

import (
	"fmt"
	"strings"
)

const viewsBaseURL = "https://public.tableau.com/views"

// ResolveImageURL picks the preview image URL for an entry: the curated
// image when present, then the generic image, then a static-image URL
// synthesized from the workbook and default-view repo ids. Returns ""
// when no image can be derived.
func ResolveImageURL(e CatalogEntry) string {
	if e.CuratedImageURL != "" {
		return e.CuratedImageURL
	}
	if e.ImageURL != "" {
		return e.ImageURL
	}
	if e.WorkbookRepoURL != "" && e.DefaultViewRepoURL != "" {
		view := lastPathSegment(e.DefaultViewRepoURL)
		return fmt.Sprintf("%s/%s/%s.png?:display_static_image=y&:showVizHome=n",
			viewsBaseURL, e.WorkbookRepoURL, view)
	}
	return ""
}

// ResolveVizLink picks the canonical public link for an entry: the public
// URL when present, else one synthesized from the repo ids. Returns ""
// when neither is available.
func ResolveVizLink(e CatalogEntry) string {
	if e.PublicURL != "" {
		return e.PublicURL
	}
	if e.WorkbookRepoURL != "" && e.DefaultViewRepoURL != "" {
		view := lastPathSegment(e.DefaultViewRepoURL)
		return fmt.Sprintf("%s/%s/%s", viewsBaseURL, e.WorkbookRepoURL, view)
	}
	return ""
}

func lastPathSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}
