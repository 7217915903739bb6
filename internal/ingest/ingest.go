package ingest

import (
	"encoding/json"
	"sync"
	"time"

	"mairesult/internal/extract"
	"mairesult/internal/record"
	"mairesult/internal/store"
	"mairesult/logger"
	"mairesult/pkg/errors"
	"mairesult/services/cache"
	"mairesult/services/publisher"
)

// ingestedAtLayout is the timestamp format stamped on records at insert time
const ingestedAtLayout = "2006-01-02 15:04:05"

// Payload is a decoded ingestion request body. Two mutually exclusive
// shapes are accepted: a batch of pre-structured items, or a single
// markup blob. The batch shape wins when both are present.
type Payload struct {
	Items      []record.Record `json:"items"`
	SourceURL  string          `json:"sourceUrl"`
	IngestedAt string          `json:"ingestedAt"`
	HTML       *string         `json:"html"`
	URL        string          `json:"url"`
}

// Ingester orchestrates ingestion: shape detection, extraction, dedup,
// staged append and a single persist per call. All calls are serialized
// behind one mutex; the flat-file store has no concurrent-write story
// of its own.
type Ingester struct {
	store        store.Store
	pub          publisher.Publisher // optional
	cache        cache.CacheService  // optional, invalidated on insert
	viewCacheKey string
	log          *logger.Logger
	mu           sync.Mutex
}

// NewIngester creates an ingester. pub and cacheSvc may be nil.
func NewIngester(s store.Store, pub publisher.Publisher, cacheSvc cache.CacheService, viewCacheKey string) *Ingester {
	return &Ingester{
		store:        s,
		pub:          pub,
		cache:        cacheSvc,
		viewCacheKey: viewCacheKey,
		log:          logger.ForIngester(),
	}
}

// Ingest processes one payload and returns how many records were
// appended plus the post-call collection size. A payload matching
// neither accepted shape fails with a bad payload error.
func (i *Ingester) Ingest(payload Payload, now time.Time) (inserted int, total int, err error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	db, err := i.store.Load()
	if err != nil {
		return 0, 0, err
	}

	nowStr := now.Format(ingestedAtLayout)
	var staged []record.Record

	switch {
	case len(payload.Items) > 0:
		db, staged = i.stageBatch(db, payload, nowStr)

	case payload.HTML != nil:
		base := payload.URL
		if base == "" {
			base = payload.SourceURL
		}
		db, staged = i.stageMarkup(db, *payload.HTML, base, nowStr)

	default:
		return 0, 0, errors.NewBadPayload("ingester",
			"payload must carry a non-empty items list or an html string")
	}

	if err := i.store.Save(db); err != nil {
		return 0, len(db) - len(staged), err
	}

	i.publish(staged)

	if len(staged) > 0 && i.cache != nil {
		if err := i.cache.Delete(i.viewCacheKey); err != nil {
			i.log.Debug().Err(err).Msg("View cache invalidation failed")
		}
	}

	return len(staged), len(db), nil
}

// stageBatch dedups and stages pre-structured candidates in list order.
// The dedup snapshot is the collection loaded at call start, updated as
// items are staged, so duplicates within one batch are also rejected.
func (i *Ingester) stageBatch(db []record.Record, payload Payload, nowStr string) ([]record.Record, []record.Record) {
	var staged []record.Record

	for _, item := range payload.Items {
		uniq := record.IdentityKey(item.Title, item.Rate, item.PlayedAt)
		if record.ContainsUniq(db, uniq) {
			continue
		}

		item.Uniq = uniq
		if item.SourceURL == "" {
			item.SourceURL = payload.SourceURL
		}
		if payload.IngestedAt != "" {
			item.IngestedAt = payload.IngestedAt
		} else {
			item.IngestedAt = nowStr
		}

		db = append(db, item)
		staged = append(staged, item)
	}

	return db, staged
}

// stageMarkup extracts one candidate from a markup blob. A result with
// none of rate, playedAt or title is silently dropped: the upstream
// markup is unreliable and an unusable snapshot is not an error.
func (i *Ingester) stageMarkup(db []record.Record, markup, baseURL, nowStr string) ([]record.Record, []record.Record) {
	candidate := extract.Extract(markup, baseURL)
	if !candidate.HasKeyField() {
		i.log.Debug().Str("source", baseURL).Msg("Extraction yielded no usable fields")
		return db, nil
	}

	uniq := record.IdentityKey(candidate.Title, candidate.Rate, candidate.PlayedAt)
	if record.ContainsUniq(db, uniq) {
		return db, nil
	}

	candidate.Uniq = uniq
	candidate.IngestedAt = nowStr

	db = append(db, candidate)
	return db, []record.Record{candidate}
}

// publish sends newly persisted records to the stream publisher,
// best-effort.
func (i *Ingester) publish(staged []record.Record) {
	if i.pub == nil {
		return
	}

	sent := 0
	for _, rec := range staged {
		data, err := json.Marshal(rec)
		if err != nil {
			i.log.Error().Err(err).Str("uniq", rec.Uniq).Msg("Failed to marshal record")
			continue
		}
		if err := i.pub.Publish("result", data); err != nil {
			i.log.Error().Err(err).Str("uniq", rec.Uniq).Msg("Failed to publish record")
			continue
		}
		sent++
	}

	// Keep the streams bounded after each publish cycle
	if sent > 0 {
		if err := i.pub.TrimStreams(); err != nil {
			i.log.Error().Err(err).Msg("Failed to trim streams")
		}
	}
}
