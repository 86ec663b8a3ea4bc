package media

import (
	"net/url"
	"path"
	"strings"

	"github.com/TobiSchelling/redditfilter/internal/dataset"
)

// Extensions that mark a link post as an image or video.
var (
	ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp"}
	VideoExtensions = []string{".mp4", ".webm", ".gifv", ".mov"}
)

// cleared holds the value each media column is reset to on a media post.
var cleared = map[string]string{
	"url":                "",
	"is_video":           "False",
	"media":              "",
	"secure_media":       "",
	"media_embed":        "{}",
	"secure_media_embed": "{}",
	"thumbnail":          "self",
}

// IsMediaPost reports whether a submission is an image or video post: a
// video flag, or a non-self post whose URL points at a media file.
func IsMediaPost(r dataset.Row) bool {
	if dataset.Truthy(r["is_video"]) {
		return true
	}
	if dataset.Truthy(r["is_self"]) {
		return false
	}
	return hasMediaExtension(r["url"])
}

func hasMediaExtension(raw string) bool {
	raw = strings.TrimSpace(raw)
	if dataset.IsNull(raw) {
		return false
	}
	p := raw
	if u, err := url.Parse(raw); err == nil {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	for _, e := range VideoExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Clean resets the media-only fields of media posts so that later text
// filters see them like any other submission. Title, selftext and every
// other column are left as they are; non-media posts are not touched.
func Clean(t *dataset.Table) *dataset.Table {
	var columns []string
	for _, c := range t.Columns {
		if _, ok := cleared[c]; ok {
			columns = append(columns, c)
		}
	}
	if len(columns) == 0 {
		return t
	}
	return t.Map(func(r dataset.Row) dataset.Row {
		if !IsMediaPost(r) {
			return r
		}
		for _, c := range columns {
			r[c] = cleared[c]
		}
		return r
	})
}

// Count returns the number of media posts in the table.
func Count(t *dataset.Table) int {
	n := 0
	for _, r := range t.Rows {
		if IsMediaPost(r) {
			n++
		}
	}
	return n
}
