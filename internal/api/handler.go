package api

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"gosdt/domain/block"
	"gosdt/domain/core"
	"gosdt/domain/sdt"
	"gosdt/internal"
	"gosdt/internal/analysis"
	"gosdt/internal/errors"
	"gosdt/internal/plot"
	"gosdt/internal/report"
	"gosdt/ports"
)

// DensityDefaults are used when a density request does not set points or span
type DensityDefaults struct {
	Points int
	Span   float64
}

// Handler serves the signal detection JSON API
type Handler struct {
	blocks     ports.BlockRepository
	summarizer *analysis.Summarizer
	density    DensityDefaults
	logger     *internal.Logger
}

// NewHandler creates a new API handler
func NewHandler(blocks ports.BlockRepository, summarizer *analysis.Summarizer, density DensityDefaults, logger *internal.Logger) *Handler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Handler{
		blocks:     blocks,
		summarizer: summarizer,
		density:    density,
		logger:     logger,
	}
}

// Compute returns the statistics of one block
func (h *Handler) Compute(c *gin.Context) {
	var counts sdt.Counts
	if !h.bind(c, &counts) {
		return
	}
	r, err := sdt.FromCounts(counts)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewStatsResponse(r))
}

// Pool returns the statistics of all blocks added together
func (h *Handler) Pool(c *gin.Context) {
	var req BlocksRequest
	if !h.bind(c, &req) {
		return
	}
	if len(req.Blocks) == 0 {
		h.fail(c, errors.InvalidInput("blocks must not be empty"))
		return
	}

	records := make([]sdt.Record, len(req.Blocks))
	for i, counts := range req.Blocks {
		r, err := sdt.FromCounts(counts)
		if err != nil {
			h.fail(c, errors.Wrapf(err, "block %d", i))
			return
		}
		records[i] = r
	}
	pooled, err := sdt.Pool(records...)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewStatsResponse(pooled))
}

// Scale returns the statistics of a block replicated factor-fold
func (h *Handler) Scale(c *gin.Context) {
	var req ScaleRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Factor == nil {
		h.fail(c, errors.InvalidInput("factor is required"))
		return
	}
	r, err := sdt.FromCounts(req.Counts)
	if err != nil {
		h.fail(c, err)
		return
	}
	scaled, err := r.Scale(*req.Factor)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewStatsResponse(scaled))
}

// ROC returns the operating point of a block in ROC space
func (h *Handler) ROC(c *gin.Context) {
	var counts sdt.Counts
	if !h.bind(c, &counts) {
		return
	}
	r, err := sdt.FromCounts(counts)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, plot.ROC(r))
}

// Density returns noise and signal curves; ?points= and ?span= override the defaults
func (h *Handler) Density(c *gin.Context) {
	points, span := h.density.Points, h.density.Span
	if raw := c.Query("points"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 2 || v > plot.MaxDensityPoints {
			h.fail(c, errors.InvalidInput(fmt.Sprintf("points must be an integer between 2 and %d", plot.MaxDensityPoints)))
			return
		}
		points = v
	}
	if raw := c.Query("span"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.fail(c, errors.InvalidInput("span must be a number"))
			return
		}
		span = v
	}

	var counts sdt.Counts
	if !h.bind(c, &counts) {
		return
	}
	r, err := sdt.FromCounts(counts)
	if err != nil {
		h.fail(c, err)
		return
	}
	density, err := plot.Density(r, points, span)
	if err != nil {
		if stderrors.Is(err, plot.ErrUnplottable) {
			h.fail(c, errors.WithCode(errors.CodeUnplottable, err))
			return
		}
		h.fail(c, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}
	c.JSON(http.StatusOK, density)
}

// Summary pools blocks and describes their spread
func (h *Handler) Summary(c *gin.Context) {
	var req BlocksRequest
	if !h.bind(c, &req) {
		return
	}
	summary, err := h.summarizer.Summarize(c.Request.Context(), req.Blocks)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSummaryResponse(summary))
}

// CreateBlock validates and stores a labelled block
func (h *Handler) CreateBlock(c *gin.Context) {
	var req CreateBlockRequest
	if !h.bind(c, &req) {
		return
	}
	b, err := block.New(req.Label, req.Counts)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.blocks.Save(c.Request.Context(), b); err != nil {
		h.fail(c, err)
		return
	}
	h.respondBlock(c, http.StatusCreated, b)
}

// ListBlocks pages through stored blocks with ?limit= and ?offset=
func (h *Handler) ListBlocks(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		h.fail(c, errors.InvalidInput("limit must be a non-negative integer"))
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		h.fail(c, errors.InvalidInput("offset must be a non-negative integer"))
		return
	}

	blocks, err := h.blocks.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]BlockResponse, 0, len(blocks))
	for _, b := range blocks {
		resp, err := newBlockResponse(b)
		if err != nil {
			h.fail(c, errors.Wrapf(err, "stored block %s", b.ID))
			return
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, gin.H{"blocks": out, "limit": limit, "offset": offset})
}

// GetBlock returns one stored block
func (h *Handler) GetBlock(c *gin.Context) {
	b, ok := h.lookup(c)
	if !ok {
		return
	}
	h.respondBlock(c, http.StatusOK, b)
}

// BlockReport renders a stored block as markdown
func (h *Handler) BlockReport(c *gin.Context) {
	b, ok := h.lookup(c)
	if !ok {
		return
	}
	r, err := b.Record()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Markdown(b.Label, r)))
}

// DeleteBlock removes a stored block
func (h *Handler) DeleteBlock(c *gin.Context) {
	id, err := core.ParseBlockID(c.Param("id"))
	if err != nil {
		h.fail(c, errors.InvalidInput(err.Error()))
		return
	}
	if err := h.blocks.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) lookup(c *gin.Context) (*block.Block, bool) {
	id, err := core.ParseBlockID(c.Param("id"))
	if err != nil {
		h.fail(c, errors.InvalidInput(err.Error()))
		return nil, false
	}
	b, err := h.blocks.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return b, true
}

func (h *Handler) respondBlock(c *gin.Context, status int, b *block.Block) {
	resp, err := newBlockResponse(b)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(status, resp)
}

func (h *Handler) bind(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.fail(c, errors.InvalidInput("invalid request body: "+err.Error()))
		return false
	}
	return true
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("[API] %s %s: %v", c.Request.Method, c.FullPath(), err)
	} else {
		h.logger.Debug("[API] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: err.Error(),
		Code:  errors.GetCode(errors.FromDomain(err)),
	})
}
