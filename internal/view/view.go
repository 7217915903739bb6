package view

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"mairesult/helpers"
	"mairesult/internal/record"
)

const (
	playedAtLayout   = "2006/01/02 15:04"
	ingestedAtLayout = "2006-01-02 15:04:05"
)

// csvFields is the column order of the CSV export
var csvFields = []string{"playedAt", "title", "difficulty", "level", "rate", "imageUrl", "ingestedAt", "sourceUrl"}

// Renderer renders the persisted collection for humans and machines.
// All render methods are pure functions of the record list.
type Renderer struct {
	LogoURL        string
	PlaceholderImg string
}

// badge describes how a difficulty is displayed
type badge struct {
	Label    string
	Color    string
	Outlined bool
}

// row is the view model for one record in the timeline
type row struct {
	Title    string
	PlayedAt string
	RateText string
	RateCls  string
	ImageURL string
	Badge    badge
	Level    string
	IsNew    bool
}

// group is one play-date section of the timeline
type group struct {
	Date string
	Rows []row
}

// RenderHTML renders the timeline grouped by play date, newest date
// first, rows newest-ingested first. Records ingested within the last
// 24 hours carry a NEW tag.
func (r *Renderer) RenderHTML(records []record.Record, now time.Time) ([]byte, error) {
	sorted := make([]record.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].IngestedAt > sorted[j].IngestedAt
	})

	cutoff := now.Add(-24 * time.Hour)

	grouped := map[string][]row{}
	var dates []string
	for _, rec := range sorted {
		date := dateOf(rec.PlayedAt)
		if _, seen := grouped[date]; !seen {
			dates = append(dates, date)
		}
		grouped[date] = append(grouped[date], r.buildRow(rec, cutoff))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	groups := make([]group, 0, len(dates))
	for _, date := range dates {
		label := date
		if label == "" {
			label = "未日付"
		}
		groups = append(groups, group{Date: label, Rows: grouped[date]})
	}

	var buf bytes.Buffer
	err := timelineTemplate.Execute(&buf, map[string]interface{}{
		"LogoURL": r.LogoURL,
		"Groups":  groups,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r *Renderer) buildRow(rec record.Record, cutoff time.Time) row {
	isNew := false
	if ts, err := time.ParseInLocation(ingestedAtLayout, rec.IngestedAt, time.Local); err == nil {
		isNew = !ts.Before(cutoff)
	}

	img := rec.ImageURL
	if img == "" {
		img = r.PlaceholderImg
	}

	title := rec.Title
	if title == "" {
		title = "-"
	}

	return row{
		Title:    title,
		PlayedAt: rec.PlayedAt,
		RateText: humanRate(rec.Rate),
		RateCls:  rankClass(rec.Rate),
		ImageURL: img,
		Badge:    diffBadge(rec.Difficulty),
		Level:    rec.Level,
		IsNew:    isNew,
	}
}

// dateOf returns the date part of a playedAt timestamp
func dateOf(playedAt string) string {
	if playedAt == "" {
		return ""
	}
	date, err := helpers.GetSplitPart(playedAt, " ", 0)
	if err != nil {
		return ""
	}
	return date
}

// humanRate formats a rate value as a percentage, falling back to the
// raw text when it does not parse
func humanRate(v string) string {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return v
	}
	return fmt.Sprintf("%.4f%%", f)
}

// rankClass maps a rate onto its display rank class
func rankClass(rate string) string {
	r, err := strconv.ParseFloat(rate, 64)
	if err != nil {
		return "rk-none"
	}
	switch {
	case r >= 100.5:
		return "rk-sssplus"
	case r >= 100.0:
		return "rk-sss"
	case r >= 99.5:
		return "rk-ssplus"
	case r >= 99.0:
		return "rk-ss"
	case r >= 98.0:
		return "rk-splus"
	case r >= 97.0:
		return "rk-s"
	default:
		return "rk-none"
	}
}

// diffBadge maps a difficulty onto its badge label and color. The
// vocabulary check is substring-based so batch-mode passthrough values
// like "MASTER (DX)" still pick up their color.
func diffBadge(difficulty string) badge {
	d := strings.ToLower(difficulty)
	switch {
	case strings.Contains(d, "re:master"), strings.Contains(d, "remaster"), d == "re":
		return badge{Label: "Re:MASTER", Outlined: true}
	case strings.Contains(d, "basic"):
		return badge{Label: "BASIC", Color: "#22c55e"}
	case strings.Contains(d, "advanced"), d == "adv":
		return badge{Label: "ADVANCED", Color: "#eab308"}
	case strings.Contains(d, "expert"):
		return badge{Label: "EXPERT", Color: "#ef4444"}
	case strings.Contains(d, "master"):
		return badge{Label: "MASTER", Color: "#a855f7"}
	}

	label := difficulty
	if label == "" {
		label = "-"
	}
	return badge{Label: label, Color: "#64748b"}
}

// RenderCSV renders the collection as CSV in the export column order
func RenderCSV(records []record.Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvFields); err != nil {
		return nil, err
	}

	for _, rec := range records {
		err := w.Write([]string{
			rec.PlayedAt, rec.Title, rec.Difficulty, rec.Level,
			rec.Rate, rec.ImageURL, rec.IngestedAt, rec.SourceURL,
		})
		if err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderPrettyJSON renders the collection as indented JSON
func RenderPrettyJSON(records []record.Record) ([]byte, error) {
	if records == nil {
		records = []record.Record{}
	}
	return json.MarshalIndent(records, "", "  ")
}

// LatestPlayedAt returns the most recent parseable playedAt value,
// optionally restricted to one sourceUrl. Empty when nothing parses.
func LatestPlayedAt(records []record.Record, source string) string {
	var latest time.Time
	latestStr := ""

	for _, rec := range records {
		if source != "" && rec.SourceURL != source {
			continue
		}
		ts, err := time.ParseInLocation(playedAtLayout, rec.PlayedAt, time.Local)
		if err != nil {
			continue
		}
		if latestStr == "" || ts.After(latest) {
			latest = ts
			latestStr = rec.PlayedAt
		}
	}

	return latestStr
}
