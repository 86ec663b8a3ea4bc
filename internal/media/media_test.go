package media

import (
	"testing"

	"github.com/TobiSchelling/redditfilter/internal/dataset"
)

func submissions() *dataset.Table {
	cols := []string{"id", "title", "selftext", "is_self", "is_video", "url", "media", "media_embed", "thumbnail"}
	rows := []dataset.Row{
		{"id": "gugovz", "title": "r/ADHDers Lounge", "selftext": "A place to chat", "is_self": "True", "is_video": "False",
			"url": "https://www.reddit.com/r/ADHDers/comments/gugovz/radhders_lounge/", "media": "", "media_embed": "{}", "thumbnail": "self"},
		{"id": "imgpost1", "title": "Cool Image", "selftext": "This is an image post with some text.", "is_self": "False", "is_video": "False",
			"url": "https://i.redd.it/image.JPG?width=640", "media": "", "media_embed": "{}", "thumbnail": "https://b.thumbs.redditmedia.com/x.jpg"},
		{"id": "vidpost1", "title": "Cool Video", "selftext": "This is a video post with some text.", "is_self": "False", "is_video": "True",
			"url": "https://v.redd.it/abc123", "media": `{"reddit_video": {}}`, "media_embed": `{"content": "x"}`, "thumbnail": "https://b.thumbs.redditmedia.com/y.jpg"},
		{"id": "selfjpg", "title": "Self post", "selftext": "text", "is_self": "True", "is_video": "False",
			"url": "https://example.com/picture.png", "media": "", "media_embed": "{}", "thumbnail": "self"},
	}
	return dataset.New("submissions", cols, rows)
}

func TestIsMediaPost(t *testing.T) {
	tbl := submissions()
	want := []bool{false, true, true, false}
	for i, r := range tbl.Rows {
		if got := IsMediaPost(r); got != want[i] {
			t.Errorf("%s: expected %v, got %v", r["id"], want[i], got)
		}
	}
	if n := Count(tbl); n != 2 {
		t.Errorf("expected 2 media posts, got %d", n)
	}
}

func TestCleanClearsMediaFields(t *testing.T) {
	src := submissions()
	out := Clean(src)

	if out.Len() != src.Len() {
		t.Fatalf("expected %d rows, got %d", src.Len(), out.Len())
	}

	img := out.Rows[1]
	if img["url"] != "" || img["thumbnail"] != "self" || img["media_embed"] != "{}" {
		t.Errorf("expected image post fields cleared, got %+v", img)
	}
	if img["title"] != "Cool Image" || img["selftext"] != "This is an image post with some text." {
		t.Error("expected text fields preserved on image post")
	}

	vid := out.Rows[2]
	if vid["is_video"] != "False" || vid["media"] != "" || vid["media_embed"] != "{}" {
		t.Errorf("expected video post fields cleared, got %+v", vid)
	}

	if out.Rows[0]["url"] != src.Rows[0]["url"] || out.Rows[3]["url"] != src.Rows[3]["url"] {
		t.Error("expected non-media posts to be unchanged")
	}
	if src.Rows[2]["is_video"] != "True" {
		t.Error("source table was modified")
	}
}

func TestCleanWithoutMediaColumns(t *testing.T) {
	tbl := dataset.New("s", []string{"id", "title"}, []dataset.Row{{"id": "a", "title": "t"}})
	if out := Clean(tbl); out != tbl {
		t.Error("expected table passed through when no media columns exist")
	}
}
