package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/dto"
	"github.com/BruksfildServices01/counsel-console/internal/export"
	"github.com/BruksfildServices01/counsel-console/internal/httperr"
	"github.com/BruksfildServices01/counsel-console/internal/httpresp"
	"github.com/BruksfildServices01/counsel-console/internal/timezone"
	ucbooking "github.com/BruksfildServices01/counsel-console/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type AdminHandler struct {
	engine     *ucbooking.Engine
	adjudicate *ucbooking.AdjudicateBooking
	exporter   *export.SettlementExporter
	loc        *time.Location
	log        *zap.Logger
}

// NewAdminHandler builds the admin endpoints. exporter may be nil when no
// bucket is configured.
func NewAdminHandler(
	engine *ucbooking.Engine,
	exporter *export.SettlementExporter,
	loc *time.Location,
	log *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		engine:     engine,
		adjudicate: ucbooking.NewAdjudicateBooking(engine),
		exporter:   exporter,
		loc:        loc,
		log:        log,
	}
}

type AdjudicateRequest struct {
	Outcome  string `json:"outcome" binding:"required"`
	Feedback string `json:"feedback"`
}

// ======================================================
// ADJUDICATE
// ======================================================

func (h *AdminHandler) Adjudicate(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req AdjudicateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, domain.ErrValidation("outcome"))
		return
	}

	outcome, ok := domain.ParseOutcome(req.Outcome)
	if !ok {
		httperr.Respond(c, domain.ErrValidation("outcome"))
		return
	}

	b, err := h.adjudicate.Execute(c.Request.Context(), a, id, outcome, req.Feedback)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, dto.FromView(h.engine.View(b, a)))
}

// ======================================================
// SETTLEMENT EXPORT
// ======================================================

// ExportSettlements uploads the settlement sheet for ?date= (default:
// yesterday in the service time zone).
func (h *AdminHandler) ExportSettlements(c *gin.Context) {
	if h.exporter == nil {
		httperr.Write(c, http.StatusServiceUnavailable, "export_disabled", "settlement export is not configured")
		return
	}

	today := h.engine.Now().In(h.loc)
	day := time.Date(today.Year(), today.Month(), today.Day()-1, 0, 0, 0, 0, h.loc)

	if s := c.Query("date"); s != "" {
		d, err := timezone.ParseDate(s, h.loc)
		if err != nil {
			httperr.Respond(c, domain.ErrValidation("date"))
			return
		}
		day = d
	}

	location, n, err := h.exporter.Export(c.Request.Context(), day)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	h.log.Info("settlement sheet exported",
		zap.String("day", day.Format("2006-01-02")),
		zap.Int("rows", n),
		zap.String("location", location),
	)

	httpresp.OK(c, gin.H{
		"date":     day.Format("2006-01-02"),
		"rows":     n,
		"location": location,
	})
}
