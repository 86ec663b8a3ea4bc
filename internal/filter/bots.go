package filter

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/TobiSchelling/redditfilter/internal/dataset"
)

// KnownBots lists automated Reddit accounts whose posts never count as
// user content.
var KnownBots = []string{
	"AutoModerator",
	"RemindMeBot",
	"GoodBot_BadBot",
	"TrollaBot",
	"Mentioned_Videos",
	"gifReversingBot",
	"image_linker_bot",
	"xkcd_transcriber",
	"DeepLinkBot",
	"stabbot",
	"transcribersofreddit",
	"haikubot-test",
	"Shakespeare-Bot",
	"timezone_bot",
	"Lyrics-Bot",
	"WikiTextBot",
	"fact_bot",
	"Bot_Metric",
	"TheDailyShowBot",
	"TweetPoster",
	"Imaginative_Bot",
	"Sub_Stats_Bot",
	"LinkFixerBot",
	"SmallSubBot",
	"Magic_Eye_Bot",
	"RepostSleuthBot",
	"SaveVideo",
	"sneakpeekbot",
	"same_post_bot",
	"B0tRank",
}

// Denylist matches author names against a set of bot accounts. Matching is
// exact after trimming and Unicode case folding.
type Denylist struct {
	names map[string]struct{}
}

// NewDenylist builds a denylist from KnownBots plus any extra names.
func NewDenylist(extra ...string) *Denylist {
	d := &Denylist{names: make(map[string]struct{}, len(KnownBots)+len(extra))}
	for _, n := range KnownBots {
		d.add(n)
	}
	for _, n := range extra {
		d.add(n)
	}
	return d
}

func (d *Denylist) add(name string) {
	if key := fold(name); key != "" {
		d.names[key] = struct{}{}
	}
}

// Contains reports whether author is a listed bot.
func (d *Denylist) Contains(author string) bool {
	_, ok := d.names[fold(author)]
	return ok
}

// Bots drops rows written by an account on the denylist.
func Bots(t *dataset.Table, d *Denylist) *dataset.Table {
	if skip(t, ColAuthor, "bot") {
		return t
	}
	return t.Filter(func(r dataset.Row) bool {
		return !d.Contains(r[ColAuthor])
	})
}

func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
