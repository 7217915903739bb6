package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"mairesult/internal/record"
)

// page bundles the parsed document with the raw and flattened forms of
// the markup so each strategy can pick whichever representation suits it.
// The flattened text has tags stripped and whitespace collapsed, which
// keeps token-level patterns insensitive to tag boundaries splitting a
// value across elements.
type page struct {
	doc  *goquery.Document // nil when the markup could not be tokenized
	raw  string
	text string
}

// strategy is one extraction rule for one field. Strategies are tried in
// order and the first non-empty result wins.
type strategy func(*page) string

var (
	tagPattern = regexp.MustCompile(`<[^>]+>`)
	wsPattern  = regexp.MustCompile(`\s+`)

	ratePercent = regexp.MustCompile(`([0-9]{2,3}\.[0-9]{4})\s*[%％]`)
	rateEntity  = regexp.MustCompile(`([0-9]{2,3}\.[0-9]{4})\s*(?:&percnt;|&#0*37;)`)
	rateLabeled = regexp.MustCompile(`(?i)ACHIEVEMENT[^0-9]*([0-9]{2,3}\.[0-9]{4})`)

	playedAtPattern = regexp.MustCompile(`([0-9]{4}/[0-9]{2}/[0-9]{2})\s+([0-9]{2}:[0-9]{2})`)

	difficultyWord  = regexp.MustCompile(`(?i)\b(Re:?MASTER|MASTER|EXPERT|ADVANCED|BASIC)\b`)
	difficultyClass = regexp.MustCompile(`(?i)(re:?master|master|expert|advanced|basic)`)

	levelLabel = regexp.MustCompile(`(?i)LEVEL[^0-9]*([0-9]{1,2}\+?)`)
	levelAbbr  = regexp.MustCompile(`(?i)\bLv\.?\s*([0-9]{1,2}\+?)`)

	backgroundImage = regexp.MustCompile(`background-image:\s*url\(["']?([^"')]+)["']?\)`)
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// newPage parses the markup once for all strategies.
func newPage(markup string) *page {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		doc = nil
	}

	text := tagPattern.ReplaceAllString(markup, "")
	text = strings.TrimSpace(wsPattern.ReplaceAllString(text, " "))

	return &page{doc: doc, raw: markup, text: text}
}

// firstMatch tries each strategy in order and returns the first
// non-empty result.
func firstMatch(p *page, strategies []strategy) string {
	for _, s := range strategies {
		if result := s(p); result != "" {
			return result
		}
	}
	return ""
}

// Extract turns a markup blob captured from a third-party results page
// into a best-effort record. Every field degrades independently to the
// empty string; extraction never fails.
func Extract(markup, baseURL string) record.Record {
	p := newPage(markup)

	return record.Record{
		Title:      firstMatch(p, titleStrategies),
		Rate:       firstMatch(p, rateStrategies),
		PlayedAt:   firstMatch(p, playedAtStrategies),
		Difficulty: firstMatch(p, difficultyStrategies),
		Level:      firstMatch(p, levelStrategies),
		ImageURL:   AbsolutizeURL(firstMatch(p, imageStrategies), baseURL),
		SourceURL:  baseURL,
	}
}

// --- title ---

// titleStrategies resolve the song title. The page carries the title in
// different places depending on the page version and locale, so several
// selectors are tried from most to least specific.
var titleStrategies = []strategy{
	attrValue(`input[name="music_title"]`, "value"),
	attrValue(`input[type="text"][name*="title"]`, "value"),
	elementText(`.music_name_block`),
	elementText(`.basic_block`),
	attrValue(`meta[property="og:title"]`, "content"),
	attrValue(`img[class*="jacket"], img[class*="music"]`, "alt"),
	elementText(`title`),
}

// attrValue returns a strategy reading an attribute off the first
// element matching the selector.
func attrValue(selector, attr string) strategy {
	return func(p *page) string {
		if p.doc == nil {
			return ""
		}
		value, _ := p.doc.Find(selector).First().Attr(attr)
		return boundTitle(value)
	}
}

// elementText returns a strategy reading the inner text of the first
// element matching the selector.
func elementText(selector string) strategy {
	return func(p *page) string {
		if p.doc == nil {
			return ""
		}
		return boundTitle(p.doc.Find(selector).First().Text())
	}
}

// boundTitle trims a title candidate and rejects values too short or
// too long to be a song name, so a selector that accidentally matched
// a whole block never wins.
func boundTitle(s string) string {
	s = strings.TrimSpace(wsPattern.ReplaceAllString(s, " "))
	n := utf8.RuneCountInString(s)
	if n < 2 || n > 100 {
		return ""
	}
	return s
}

// --- rate ---

// rateStrategies resolve the achievement rate from the flattened text.
// The common on-page literal form is preferred; entity-encoded percent
// signs and the ACHIEVEMENT label anchor are fallbacks.
var rateStrategies = []strategy{
	textPattern(ratePercent, 1),
	textPattern(rateEntity, 1),
	textPattern(rateLabeled, 1),
}

// textPattern returns a strategy matching a regexp group against the
// flattened page text.
func textPattern(re *regexp.Regexp, group int) strategy {
	return func(p *page) string {
		m := re.FindStringSubmatch(p.text)
		if m == nil {
			return ""
		}
		return m[group]
	}
}

// --- playedAt ---

var playedAtStrategies = []strategy{
	func(p *page) string {
		m := playedAtPattern.FindStringSubmatch(p.text)
		if m == nil {
			return ""
		}
		return m[1] + " " + m[2]
	},
}

// --- difficulty ---

var difficultyStrategies = []strategy{
	func(p *page) string {
		return canonicalDifficulty(textPattern(difficultyWord, 1)(p))
	},
	difficultyFromClass,
}

// difficultyFromClass falls back to the difficulty vocabulary appearing
// inside a class attribute value, for page versions that color the
// result block instead of printing the difficulty name.
func difficultyFromClass(p *page) string {
	if p.doc == nil {
		return ""
	}

	found := ""
	p.doc.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if m := difficultyClass.FindString(class); m != "" {
			found = m
			return false
		}
		return true
	})
	return canonicalDifficulty(found)
}

// canonicalDifficulty maps case and punctuation variants of a matched
// keyword onto one identity, e.g. remaster / REMASTER / Re:MASTER all
// become Re:MASTER.
func canonicalDifficulty(m string) string {
	if m == "" {
		return ""
	}
	u := strings.ToUpper(strings.ReplaceAll(m, ":", ""))
	if u == "REMASTER" {
		return "Re:MASTER"
	}
	return u
}

// --- level ---

var levelStrategies = []strategy{
	textPattern(levelLabel, 1),
	textPattern(levelAbbr, 1),
}

// --- image ---

var imageStrategies = []strategy{
	imageByClass,
	imageByExtension,
	imageFromStyle,
}

// imageByClass picks the src of an img scoped to a jacket/music class.
func imageByClass(p *page) string {
	if p.doc == nil {
		return ""
	}
	src, _ := p.doc.Find(`img[class*="jacket"], img[class*="music"]`).First().Attr("src")
	return strings.TrimSpace(src)
}

// imageByExtension picks the first img whose src looks like an image
// file regardless of its class.
func imageByExtension(p *page) string {
	if p.doc == nil {
		return ""
	}

	found := ""
	p.doc.Find("img[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		src = strings.TrimSpace(src)
		if hasImageExtension(src) {
			found = src
			return false
		}
		return true
	})
	return found
}

// imageFromStyle recovers an inline background-image URL from the raw
// markup.
func imageFromStyle(p *page) string {
	m := backgroundImage.FindStringSubmatch(p.raw)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func hasImageExtension(src string) bool {
	// Ignore query string and fragment when checking the extension
	if i := strings.IndexAny(src, "?#"); i != -1 {
		src = src[:i]
	}
	src = strings.ToLower(src)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(src, ext) {
			return true
		}
	}
	return false
}
