package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mairesult/internal/record"
	"mairesult/pkg/errors"
)

// memStore implements store.Store in memory for testing
type memStore struct {
	records  []record.Record
	saves    int
	saveFail error
}

func (m *memStore) Load() ([]record.Record, error) {
	out := make([]record.Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memStore) Save(records []record.Record) error {
	if m.saveFail != nil {
		return m.saveFail
	}
	m.saves++
	m.records = records
	return nil
}

// memPublisher implements publisher.Publisher in memory for testing
type memPublisher struct {
	published [][]byte
	trims     int
}

func (m *memPublisher) Publish(key string, message []byte) error {
	m.published = append(m.published, message)
	return nil
}

func (m *memPublisher) TrimStreams() error {
	m.trims++
	return nil
}

func (m *memPublisher) Close() error { return nil }

// memCache implements cache.CacheService in memory for testing
type memCache struct {
	cache map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{cache: map[string][]byte{}}
}

func (m *memCache) Get(key string) ([]byte, error) {
	if v, ok := m.cache[key]; ok {
		return v, nil
	}
	return nil, assert.AnError
}

func (m *memCache) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	return nil
}

func (m *memCache) Delete(key string) error {
	delete(m.cache, key)
	return nil
}

var testNow = time.Date(2025, 8, 2, 12, 0, 0, 0, time.UTC)

func batchPayload(items ...record.Record) Payload {
	return Payload{Items: items, SourceURL: "https://maimaidx.jp/record"}
}

func TestBatchIngest(t *testing.T) {
	s := &memStore{}
	ing := NewIngester(s, nil, nil, "")

	inserted, total, err := ing.Ingest(batchPayload(
		record.Record{Title: "A", Rate: "100.1234", PlayedAt: "2025/08/01 21:03"},
		record.Record{Title: "B", Rate: "99.0000", PlayedAt: "2025/08/01 21:10"},
	), testNow)

	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, s.saves)

	// Staged records gain uniq, sourceUrl fallback and ingestedAt
	assert.Len(t, s.records[0].Uniq, 40)
	assert.Equal(t, "https://maimaidx.jp/record", s.records[0].SourceURL)
	assert.Equal(t, "2025-08-02 12:00:00", s.records[0].IngestedAt)
}

func TestBatchIngestIdempotent(t *testing.T) {
	s := &memStore{}
	ing := NewIngester(s, nil, nil, "")
	payload := batchPayload(
		record.Record{Title: "A", Rate: "100.1234", PlayedAt: "2025/08/01 21:03"},
		record.Record{Title: "B", Rate: "99.0000", PlayedAt: "2025/08/01 21:10"},
	)

	inserted, _, err := ing.Ingest(payload, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	inserted, total, err := ing.Ingest(payload, testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 2, total)
}

func TestWithinBatchDedup(t *testing.T) {
	s := &memStore{}
	ing := NewIngester(s, nil, nil, "")

	inserted, total, err := ing.Ingest(batchPayload(
		record.Record{Title: "A", Rate: "100.1234", PlayedAt: "2025/08/01 21:03"},
		record.Record{Title: "A", Rate: "100.1234", PlayedAt: "2025/08/01 21:03"},
	), testNow)

	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, total)
}

func TestBatchSourceAndTimestampPrecedence(t *testing.T) {
	s := &memStore{}
	ing := NewIngester(s, nil, nil, "")

	payload := Payload{
		Items: []record.Record{
			{Title: "A", Rate: "100.1234", SourceURL: "https://own.example/x"},
			{Title: "B", Rate: "99.0000"},
		},
		SourceURL:  "https://shared.example/y",
		IngestedAt: "2025-08-01 00:00:00",
	}

	_, _, err := ing.Ingest(payload, testNow)
	require.NoError(t, err)

	// Item-level sourceUrl wins over the shared one
	assert.Equal(t, "https://own.example/x", s.records[0].SourceURL)
	assert.Equal(t, "https://shared.example/y", s.records[1].SourceURL)

	// Shared ingestedAt wins over the call timestamp
	assert.Equal(t, "2025-08-01 00:00:00", s.records[0].IngestedAt)
	assert.Equal(t, "2025-08-01 00:00:00", s.records[1].IngestedAt)
}

func TestMarkupIngest(t *testing.T) {
	s := &memStore{}
	pub := &memPublisher{}
	ing := NewIngester(s, pub, nil, "")

	html := `<input name="music_title" value="Oshama Scramble!">
		<div>100.1234%</div><div>2025/08/01 21:03</div>`
	payload := Payload{HTML: &html, URL: "https://maimaidx.jp/playlogDetail"}

	inserted, total, err := ing.Ingest(payload, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 1, total)

	rec := s.records[0]
	assert.Equal(t, "Oshama Scramble!", rec.Title)
	assert.Equal(t, "100.1234", rec.Rate)
	assert.Equal(t, "https://maimaidx.jp/playlogDetail", rec.SourceURL)
	assert.Equal(t, "2025-08-02 12:00:00", rec.IngestedAt)
	assert.Len(t, rec.Uniq, 40)

	// New records are published downstream and the streams are trimmed
	assert.Len(t, pub.published, 1)
	assert.Equal(t, 1, pub.trims)

	// Re-submitting the same markup inserts nothing
	inserted, total, err = ing.Ingest(payload, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 1, total)
	assert.Len(t, pub.published, 1)
	assert.Equal(t, 1, pub.trims)
}

func TestMarkupIngestPartialFields(t *testing.T) {
	s := &memStore{}
	ing := NewIngester(s, nil, nil, "")

	// Only a rate is recoverable: still a usable candidate
	html := `<div>100.1234%</div>`
	inserted, _, err := ing.Ingest(Payload{HTML: &html}, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, "", s.records[0].Title)
	assert.Equal(t, "100.1234", s.records[0].Rate)
}

func TestMarkupIngestEmptyExtraction(t *testing.T) {
	s := &memStore{}
	ing := NewIngester(s, nil, nil, "")

	html := `<div><p>nothing recoverable here</p></div>`
	inserted, total, err := ing.Ingest(Payload{HTML: &html}, testNow)

	// A fully-empty extraction is zero insertions, not an error
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 0, total)
}

func TestBadPayload(t *testing.T) {
	s := &memStore{}
	ing := NewIngester(s, nil, nil, "")

	_, _, err := ing.Ingest(Payload{}, testNow)
	assert.True(t, errors.IsBadPayload(err))
	assert.Equal(t, 0, s.saves)

	// An empty items list is not a batch
	_, _, err = ing.Ingest(Payload{Items: []record.Record{}}, testNow)
	assert.True(t, errors.IsBadPayload(err))
}

func TestBatchShapeWinsOverMarkup(t *testing.T) {
	s := &memStore{}
	ing := NewIngester(s, nil, nil, "")

	html := `<div>99.0000%</div>`
	payload := Payload{
		Items: []record.Record{{Title: "A", Rate: "100.1234"}},
		HTML:  &html,
	}

	inserted, _, err := ing.Ingest(payload, testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)
	assert.Equal(t, "A", s.records[0].Title)
}

func TestSaveFailurePropagates(t *testing.T) {
	s := &memStore{saveFail: assert.AnError}
	ing := NewIngester(s, nil, nil, "")

	_, _, err := ing.Ingest(batchPayload(record.Record{Title: "A"}), testNow)
	assert.Error(t, err)
}

func TestViewCacheInvalidation(t *testing.T) {
	s := &memStore{}
	c := newMemCache()
	require.NoError(t, c.Set("view:html", []byte("<html>"), 0))
	ing := NewIngester(s, nil, c, "view:html")

	_, _, err := ing.Ingest(batchPayload(record.Record{Title: "A", Rate: "1.0000"}), testNow)
	require.NoError(t, err)

	_, err = c.Get("view:html")
	assert.Error(t, err, "cached view should be invalidated after an insert")
}
