package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jobsift/jobsift/internal/aggregate"
	"github.com/jobsift/jobsift/internal/enrich"
	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/scheduler"
	"github.com/jobsift/jobsift/internal/store"
)

// AggregatorRunner is the slice of the aggregator the API needs.
type AggregatorRunner interface {
	Run(ctx context.Context, opts aggregate.Options) (*aggregate.Summary, error)
}

// SchedulerControl is the slice of the scheduler the API needs.
type SchedulerControl interface {
	Start() error
	Stop()
	TriggerNow() bool
	Status() scheduler.Status
}

// DetailEnricher is the slice of the enricher the API needs.
type DetailEnricher interface {
	Enrich(ctx context.Context, id int64) (*enrich.Result, error)
}

// PostingReader is the read/admin side of the store the API needs.
type PostingReader interface {
	List(ctx context.Context, f store.ListFilter) ([]model.Posting, error)
	Stats(ctx context.Context) (*store.Stats, error)
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
	Deactivate(ctx context.Context, id int64) error
}

// Server wires the admin HTTP API over the pipeline components.
type Server struct {
	store      PostingReader
	aggregator AggregatorRunner
	sched      SchedulerControl
	enricher   DetailEnricher
	adminToken string
	logger     *slog.Logger
}

// New creates the Server and its fiber app.
func New(
	st PostingReader,
	aggregator AggregatorRunner,
	sched SchedulerControl,
	enricher DetailEnricher,
	adminToken string,
	logger *slog.Logger,
) *Server {
	return &Server{
		store:      st,
		aggregator: aggregator,
		sched:      sched,
		enricher:   enricher,
		adminToken: adminToken,
		logger:     logger,
	}
}

// App builds the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
	})

	jobs := app.Group("/external-jobs")
	jobs.Post("/fetch", s.requireAdmin, s.handleFetch)
	jobs.Get("/", s.handleList)
	jobs.Get("/stats", s.handleStats)
	jobs.Delete("/cleanup", s.requireAdmin, s.handleCleanup)
	jobs.Patch("/:id/deactivate", s.requireAdmin, s.handleDeactivate)
	jobs.Post("/:id/scrape-details", s.handleScrapeDetails)

	admin := jobs.Group("/admin/scheduler", s.requireAdmin)
	admin.Get("/status", s.handleSchedulerStatus)
	admin.Post("/start", s.handleSchedulerStart)
	admin.Post("/stop", s.handleSchedulerStop)
	admin.Post("/trigger", s.handleSchedulerTrigger)

	return app
}

// requireAdmin gates mutating routes on the X-Admin-Token header. The real
// auth layer sits in front of this service; the header is its seam.
func (s *Server) requireAdmin(c *fiber.Ctx) error {
	if s.adminToken == "" || c.Get("X-Admin-Token") != s.adminToken {
		return fail(c, fiber.StatusUnauthorized, "admin token required")
	}
	return c.Next()
}

type fetchRequest struct {
	Location       string   `json:"location"`
	Keywords       string   `json:"keywords"`
	LimitPerSource int      `json:"limitPerSource"`
	Sources        []string `json:"sources"`
	Refresh        bool     `json:"refresh"` // start fresh Apify scrape runs
	DryRun         bool     `json:"dryRun"`
}

func (s *Server) handleFetch(c *fiber.Ctx) error {
	var req fetchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fail(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	opts := aggregate.Options{
		Location:       req.Location,
		Keywords:       req.Keywords,
		LimitPerSource: req.LimitPerSource,
		UseCache:       true,
		Refresh:        req.Refresh,
		DryRun:         req.DryRun,
	}
	for _, src := range req.Sources {
		opts.Sources = append(opts.Sources, model.Source(src))
	}

	summary, err := s.aggregator.Run(c.Context(), opts)
	if err != nil {
		s.logger.Error("fetch run failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "aggregation failed")
	}
	msg := "aggregation finished"
	if summary.Fetched == 0 {
		msg = "no jobs found"
	}
	return ok(c, msg, summary)
}

func (s *Server) handleList(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	f := store.ListFilter{
		Source:   model.Source(c.Query("source")),
		WorkMode: model.WorkMode(c.Query("workMode")),
		JobType:  c.Query("jobType"),
		Status:   model.Status(c.Query("status")),
		Search:   c.Query("search"),
		Limit:    limit,
		Offset:   (page - 1) * limit,
	}

	postings, err := s.store.List(c.Context(), f)
	if err != nil {
		s.logger.Error("list failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "listing failed")
	}
	return ok(c, "", fiber.Map{
		"jobs":  postings,
		"page":  page,
		"limit": limit,
		"count": len(postings),
	})
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.store.Stats(c.Context())
	if err != nil {
		s.logger.Error("stats failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "stats failed")
	}
	return ok(c, "", stats)
}

func (s *Server) handleCleanup(c *fiber.Ctx) error {
	daysOld := c.QueryInt("daysOld", 90)
	if daysOld < 1 {
		return fail(c, fiber.StatusBadRequest, "daysOld must be positive")
	}

	deleted, err := s.store.Cleanup(c.Context(), time.Duration(daysOld)*24*time.Hour)
	if err != nil {
		s.logger.Error("cleanup failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "cleanup failed")
	}
	return ok(c, "cleanup finished", fiber.Map{"deleted": deleted, "daysOld": daysOld})
}

func (s *Server) handleDeactivate(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return fail(c, fiber.StatusBadRequest, "invalid posting id")
	}

	if err := s.store.Deactivate(c.Context(), int64(id)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "posting not found")
		}
		s.logger.Error("deactivate failed", "id", id, "error", err)
		return fail(c, fiber.StatusInternalServerError, "deactivate failed")
	}
	return ok(c, "posting deactivated", fiber.Map{"id": id})
}

func (s *Server) handleScrapeDetails(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return fail(c, fiber.StatusBadRequest, "invalid posting id")
	}

	res, err := s.enricher.Enrich(c.Context(), int64(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "posting not found")
		}
		s.logger.Error("scrape details failed", "id", id, "error", err)
		return fail(c, fiber.StatusInternalServerError, "scrape failed")
	}
	msg := "details scraped"
	if res.From == "cache" {
		msg = "details already present"
	} else if !res.Success {
		msg = "details unavailable"
	}
	return ok(c, msg, res)
}

func (s *Server) handleSchedulerStatus(c *fiber.Ctx) error {
	return ok(c, "", s.sched.Status())
}

func (s *Server) handleSchedulerStart(c *fiber.Ctx) error {
	if err := s.sched.Start(); err != nil {
		s.logger.Error("scheduler start failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "scheduler start failed")
	}
	return ok(c, "scheduler started", s.sched.Status())
}

func (s *Server) handleSchedulerStop(c *fiber.Ctx) error {
	s.sched.Stop()
	return ok(c, "scheduler stopped", s.sched.Status())
}

func (s *Server) handleSchedulerTrigger(c *fiber.Ctx) error {
	if !s.sched.TriggerNow() {
		return fail(c, fiber.StatusConflict, "a run is already executing")
	}
	return ok(c, "run triggered", s.sched.Status())
}

// envelope is the JSON shape every response uses.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func ok(c *fiber.Ctx, message string, data any) error {
	return c.JSON(envelope{Success: true, Message: message, Data: data})
}

func fail(c *fiber.Ctx, code int, message string) error {
	return c.Status(code).JSON(envelope{Success: false, Message: message})
}
