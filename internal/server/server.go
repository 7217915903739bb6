package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"mairesult/config"
	"mairesult/helpers"
	"mairesult/internal/ingest"
	"mairesult/internal/record"
	"mairesult/internal/store"
	"mairesult/internal/view"
	"mairesult/logger"
	"mairesult/pkg/errors"
	"mairesult/services/cache"
)

// ViewCacheKey is the cache key for the rendered timeline
const ViewCacheKey = "view:html"

// Server wires the ingestion orchestrator and renderers onto HTTP
type Server struct {
	app      *fiber.App
	cfg      config.Config
	store    store.Store
	ingester *ingest.Ingester
	renderer *view.Renderer
	cache    cache.CacheService // optional
	log      *logger.Logger
}

// New creates the HTTP server. cacheSvc may be nil.
func New(cfg config.Config, st store.Store, ing *ingest.Ingester, cacheSvc cache.CacheService) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		cfg:      cfg,
		store:    st,
		ingester: ing,
		renderer: &view.Renderer{
			LogoURL:        cfg.LogoURL,
			PlaceholderImg: cfg.PlaceholderImg,
		},
		cache: cacheSvc,
		log:   logger.ForServer(),
	}

	s.app.Use(cors.New())
	s.setupRoutes()
	return s
}

// App exposes the fiber app for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until the listener fails or the server is shut down
func (s *Server) Listen() error {
	s.log.Info().Str("addr", s.cfg.ListenAddr).Msg("HTTP server listening")
	return s.app.Listen(s.cfg.ListenAddr)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	s.app.Post("/ingest", s.handleIngest)
	s.app.Post("/ingest_form", s.handleIngestForm)
	s.app.Post("/register", s.handleRegister)

	s.app.Get("/data", s.handleData)
	s.app.Get("/data/pretty", s.handleDataPretty)
	s.app.Get("/data.csv", s.handleDataCSV)
	s.app.Get("/view", s.handleView)
	s.app.Get("/latest", s.handleLatest)
}

// authorized checks the bearer token or the token query parameter
// against the configured secret.
func (s *Server) authorized(c *fiber.Ctx) bool {
	auth := c.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		if strings.TrimSpace(auth[len("bearer "):]) == s.cfg.APIToken {
			return true
		}
	}
	return c.Query("token") == s.cfg.APIToken && c.Query("token") != ""
}

func (s *Server) handleIngest(c *fiber.Ctx) error {
	if !s.authorized(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Unauthorized"})
	}

	var payload ingest.Payload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Invalid JSON: " + err.Error()})
	}

	return s.runIngest(c, payload)
}

func (s *Server) handleIngestForm(c *fiber.Ctx) error {
	if c.Query("token") != s.cfg.APIToken {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Unauthorized (token)"})
	}

	raw := c.Body()
	if len(raw) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Empty body"})
	}

	contentType := c.Get(fiber.HeaderContentType)

	var data []byte
	if strings.Contains(contentType, "application/x-www-form-urlencoded") {
		// The shortcut posts the JSON document inside a payload field
		payloadField := c.FormValue("payload")
		if payloadField == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Missing 'payload'"})
		}
		data = []byte(payloadField)
	} else {
		// Raw JSON; normalize the body to UTF-8 first, captured pages
		// are not always utf-8 encoded
		decoded, err := helpers.DecodeToUTF8(raw, contentType)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": err.Error()})
		}
		data = decoded
	}

	var payload ingest.Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Invalid JSON in payload: " + err.Error()})
	}

	return s.runIngest(c, payload)
}

func (s *Server) runIngest(c *fiber.Ctx, payload ingest.Payload) error {
	inserted, total, err := s.ingester.Ingest(payload, time.Now())
	if err != nil {
		if errors.IsBadPayload(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"detail": "Payload must be {items:[...]} or {html:..., url:...}",
			})
		}
		s.log.Error().Err(err).Msg("Ingestion failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"detail": "Ingestion failed"})
	}

	return c.JSON(fiber.Map{
		"status":   "ok",
		"inserted": inserted,
		"total":    total,
	})
}

func (s *Server) handleRegister(c *fiber.Ctx) error {
	ingestURL := s.cfg.RegisterIngestURL
	if ingestURL == "" {
		ingestURL = c.BaseURL() + "/ingest"
	}

	bearer := s.cfg.RegisterBearer
	if bearer == "" {
		bearer = randomHex(16)
	}

	return c.JSON(fiber.Map{
		"ingest_url": ingestURL,
		"bearer":     bearer,
		"user_id":    randomHex(16),
	})
}

func (s *Server) handleData(c *fiber.Ctx) error {
	records := s.loadRecords()
	return c.JSON(records)
}

func (s *Server) handleDataPretty(c *fiber.Ctx) error {
	out, err := view.RenderPrettyJSON(s.loadRecords())
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	c.Set(fiber.HeaderContentType, "application/json")
	return c.Send(out)
}

func (s *Server) handleDataCSV(c *fiber.Ctx) error {
	out, err := view.RenderCSV(s.loadRecords())
	if err != nil {
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	c.Set(fiber.HeaderContentType, "text/csv")
	return c.Send(out)
}

func (s *Server) handleView(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	if s.cache != nil {
		if cached, err := s.cache.Get(ViewCacheKey); err == nil {
			return c.Send(cached)
		}
	}

	out, err := s.renderer.RenderHTML(s.loadRecords(), time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("View rendering failed")
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	if s.cache != nil {
		if err := s.cache.Set(ViewCacheKey, out, s.cfg.ViewCacheTTL); err != nil {
			s.log.Debug().Err(err).Msg("View cache write failed")
		}
	}

	return c.Send(out)
}

func (s *Server) handleLatest(c *fiber.Ctx) error {
	latest := view.LatestPlayedAt(s.loadRecords(), c.Query("source"))
	return c.JSON(fiber.Map{"latestPlayedAt": latest})
}

// loadRecords reads the store, degrading to an empty collection so the
// read side never fails a request.
func (s *Server) loadRecords() []record.Record {
	records, err := s.store.Load()
	if err != nil || records == nil {
		return []record.Record{}
	}
	return records
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return hex.EncodeToString(b)
}
