package record

import (
	"crypto/sha1"
	"encoding/hex"
)

// Record represents one persisted play result
type Record struct {
	Title      string `json:"title"`
	Rate       string `json:"rate"`
	PlayedAt   string `json:"playedAt"`
	Difficulty string `json:"difficulty"`
	Level      string `json:"level"`
	ImageURL   string `json:"imageUrl"`
	SourceURL  string `json:"sourceUrl"`
	Uniq       string `json:"uniq"`
	IngestedAt string `json:"ingestedAt"`
}

// HasKeyField reports whether the record carries at least one of the
// fields that make it a usable candidate for ingestion.
func (r Record) HasKeyField() bool {
	return r.Rate != "" || r.PlayedAt != "" || r.Title != ""
}

// IdentityKey computes the dedup identity token for a record.
// The key is the sha1 of the literal "title|rate|playedAt" string.
// Fields are deliberately not trimmed or case-folded: identity tokens
// must stay stable against data ingested by earlier deployments.
func IdentityKey(title, rate, playedAt string) string {
	sum := sha1.Sum([]byte(title + "|" + rate + "|" + playedAt))
	return hex.EncodeToString(sum[:])
}

// ContainsUniq reports whether any record in the collection already
// carries the given identity token. Linear scan, first match wins;
// collections are personal play logs and stay small.
func ContainsUniq(records []Record, uniq string) bool {
	for _, r := range records {
		if r.Uniq == uniq {
			return true
		}
	}
	return false
}
