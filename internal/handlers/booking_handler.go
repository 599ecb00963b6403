package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/counsel-console/internal/domain/booking"
	"github.com/BruksfildServices01/counsel-console/internal/dto"
	"github.com/BruksfildServices01/counsel-console/internal/httperr"
	"github.com/BruksfildServices01/counsel-console/internal/httpresp"
	"github.com/BruksfildServices01/counsel-console/internal/middleware"
	"github.com/BruksfildServices01/counsel-console/internal/timezone"
	ucbooking "github.com/BruksfildServices01/counsel-console/internal/usecase/booking"
)

// ======================================================
// HANDLER
// ======================================================

type BookingHandler struct {
	engine *ucbooking.Engine
	loc    *time.Location

	get      *ucbooking.GetBooking
	list     *ucbooking.ListBookings
	cancel   *ucbooking.CancelBooking
	finalize *ucbooking.FinalizeBooking
	report   *ucbooking.FileReport
	getNotes *ucbooking.GetNotes
	notes    *ucbooking.SaveNotes
}

func NewBookingHandler(engine *ucbooking.Engine, loc *time.Location) *BookingHandler {
	return &BookingHandler{
		engine:   engine,
		loc:      loc,
		get:      ucbooking.NewGetBooking(engine),
		list:     ucbooking.NewListBookings(engine, loc),
		cancel:   ucbooking.NewCancelBooking(engine),
		finalize: ucbooking.NewFinalizeBooking(engine),
		report:   ucbooking.NewFileReport(engine),
		getNotes: ucbooking.NewGetNotes(engine),
		notes:    ucbooking.NewSaveNotes(engine),
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CancelBookingRequest struct {
	Reason   string `json:"reason" binding:"required"`
	Feedback string `json:"feedback"`
}

type NotesRequest struct {
	ProblemSummary  string `json:"problem_summary"`
	ProblemAnalysis string `json:"problem_analysis"`
	Guides          string `json:"guides"`
}

func (r NotesRequest) notes() domain.Notes {
	return domain.Notes{
		ProblemSummary:  r.ProblemSummary,
		ProblemAnalysis: r.ProblemAnalysis,
		Guides:          r.Guides,
	}
}

type ReportRequest struct {
	Message string `json:"message" binding:"required"`
}

// ======================================================
// HELPERS
// ======================================================

func bookingID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_request", "invalid booking id")
		return 0, false
	}
	return uint(id), true
}

func actor(c *gin.Context) (domain.Actor, bool) {
	a, ok := middleware.ActorFrom(c)
	if !ok {
		httperr.Unauthorized(c, "unauthenticated", "authentication required")
	}
	return a, ok
}

func queryUint(c *gin.Context, key string) (uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	return uint(v), err
}

// parseFilter reads the directory query string. Unknown values are
// rejected instead of silently ignored.
func (h *BookingHandler) parseFilter(c *gin.Context) (domain.Filter, error) {
	var f domain.Filter

	if s := c.Query("date"); s != "" {
		d, err := timezone.ParseDate(s, h.loc)
		if err != nil {
			return f, domain.ErrValidation("date")
		}
		f.Date = d
	}

	if s := c.Query("month"); s != "" {
		m, err := timezone.ParseMonth(s, h.loc)
		if err != nil {
			return f, domain.ErrValidation("month")
		}
		f.Month = m
	}

	if s := c.Query("status"); s != "" {
		st, ok := domain.ParseStatus(s)
		if !ok {
			return f, domain.ErrValidation("status")
		}
		f.Status = st
	}

	if s := c.Query("kind"); s != "" {
		k, ok := domain.ParseKind(s)
		if !ok {
			return f, domain.ErrValidation("kind")
		}
		f.Kind = k
	}

	f.Query = strings.TrimSpace(c.Query("q"))

	var err error
	if f.CounselorID, err = queryUint(c, "counselor_id"); err != nil {
		return f, domain.ErrValidation("counselor_id")
	}
	if f.MemberID, err = queryUint(c, "member_id"); err != nil {
		return f, domain.ErrValidation("member_id")
	}

	return f, nil
}

// ======================================================
// DIRECTORY
// ======================================================

func (h *BookingHandler) List(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}

	f, err := h.parseFilter(c)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	views, err := h.list.Execute(c.Request.Context(), a, f)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, dto.FromViews(views))
}

func (h *BookingHandler) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	v, err := h.get.Execute(c.Request.Context(), a, id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, dto.FromView(*v))
}

// ======================================================
// TRANSITIONS
// ======================================================

func (h *BookingHandler) Cancel(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, domain.ErrValidation("reason"))
		return
	}

	b, err := h.cancel.Execute(c.Request.Context(), a, id, ucbooking.CancelInput{
		Reason:   req.Reason,
		Feedback: req.Feedback,
	})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, dto.FromView(h.engine.View(b, a)))
}

func (h *BookingHandler) Complete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "invalid body")
		return
	}

	b, err := h.finalize.Execute(c.Request.Context(), a, id, req.notes())
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, dto.FromView(h.engine.View(b, a)))
}

func (h *BookingHandler) Report(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Respond(c, domain.ErrValidation("message"))
		return
	}

	b, err := h.report.Execute(c.Request.Context(), a, id, req.Message)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, dto.FromView(h.engine.View(b, a)))
}

// ======================================================
// NOTES
// ======================================================

func (h *BookingHandler) GetNotes(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	form, err := h.getNotes.Execute(c.Request.Context(), a, id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, dto.FromNotesForm(form))
}

func (h *BookingHandler) SaveNotes(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := bookingID(c)
	if !ok {
		return
	}

	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.BadRequest(c, "invalid_request", "invalid body")
		return
	}

	b, err := h.notes.Execute(c.Request.Context(), a, id, req.notes())
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, dto.FromView(h.engine.View(b, a)))
}
