package resource

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/export"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/middleware"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/pkg"
)

// Handler serves the resource protocol over HTTP. Each method returns the
// gin handler bound to one resource name.
type Handler struct {
	svc           Service
	limits        pkg.ListLimits
	maxMediaLimit int
	now           func() time.Time
}

// NewHandler creates a Handler. Zero limits fall back to the package defaults.
func NewHandler(svc Service, limits pkg.ListLimits) *Handler {
	return &Handler{svc: svc, limits: limits, maxMediaLimit: limits.MaxSize, now: time.Now}
}

// List handles GET /api/v1/<resource>.
func (h *Handler) List(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := pkg.ParseListQuery(c, h.limits)
		if err != nil {
			pkg.Error(c, err)
			return
		}
		caller, _ := middleware.CallerFrom(c)
		result, err := h.svc.List(c.Request.Context(), caller, resource, q)
		if err != nil {
			pkg.Error(c, err)
			return
		}
		pkg.List(c, result.Rows, result.Total)
	}
}

// Trash handles PUT /api/v1/<resource>/delete, which accepts SD and RSD.
func (h *Handler) Trash(resource string) gin.HandlerFunc {
	return h.lifecycle(resource, domain.SoftDelete, domain.Restore)
}

// Purge handles DELETE /api/v1/<resource>/delete, which accepts PD only.
func (h *Handler) Purge(resource string) gin.HandlerFunc {
	return h.lifecycle(resource, domain.PermanentDelete)
}

func (h *Handler) lifecycle(resource string, allowed ...domain.Transition) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LifecycleRequest
		if !pkg.BindAndValidate(c, &req) {
			return
		}
		t, err := domain.ParseTransition(req.DeleteType)
		if err != nil {
			pkg.Error(c, err)
			return
		}
		if !transitionAllowed(t, allowed) {
			pkg.Error(c, domain.NewAppError(domain.CodeInvalidOperation,
				fmt.Sprintf("deleteType %s is not accepted by %s", t, c.Request.Method), nil))
			return
		}

		caller, _ := middleware.CallerFrom(c)
		out, err := h.svc.Apply(c.Request.Context(), caller, resource, req.IDs, string(t))
		if err != nil {
			pkg.Error(c, err)
			return
		}
		pkg.Message(c, out.Message)
	}
}

func transitionAllowed(t domain.Transition, allowed []domain.Transition) bool {
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}

// Export handles GET /api/v1/<resource>/export. With format=csv the snapshot
// is sent as a CSV attachment; otherwise as the JSON envelope.
func (h *Handler) Export(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, _ := middleware.CallerFrom(c)
		snap, err := h.svc.Export(c.Request.Context(), caller, resource)
		if err != nil {
			pkg.Error(c, err)
			return
		}

		switch format := c.DefaultQuery("format", "json"); format {
		case "json":
			pkg.Success(c, snap.Rows)
		case "csv":
			job := export.Job{Columns: snap.Columns, Selection: snap.Rows}
			data, err := job.Render(c.Request.Context())
			if err != nil {
				pkg.Error(c, domain.NewAppError(domain.CodeInternal, "export failed", err))
				return
			}
			filename := fmt.Sprintf("%s-%s.csv", resource, h.now().UTC().Format("20060102-150405"))
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
			c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
		default:
			pkg.Error(c, domain.NewAppError(domain.CodeInvalidOperation,
				fmt.Sprintf("unsupported export format %q", format), nil))
		}
	}
}

// BrowseMedia handles GET /api/v1/media/browse. The body is the bare
// {items, hasMore} page, without the response envelope.
func (h *Handler) BrowseMedia(c *gin.Context) {
	req, err := pkg.ParseMediaPageRequest(c, h.maxMediaLimit)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	caller, _ := middleware.CallerFrom(c)
	page, err := h.svc.BrowseMedia(c.Request.Context(), caller, req)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
