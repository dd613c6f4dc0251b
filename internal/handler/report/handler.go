package report

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/medibot/backend/internal/logger"
	reportService "github.com/zhouzirui/medibot/backend/internal/service/report"
	"github.com/zhouzirui/medibot/backend/pkg/utils"
)

// Summarizer turns an uploaded document into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, document []byte) reportService.Summary
}

// Handler 处理医疗报告上传与摘要
type Handler struct {
	summarizer     Summarizer
	maxUploadBytes int64
	log            zerolog.Logger
}

// New 创建报告处理器
func New(summarizer Summarizer, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &Handler{
		summarizer:     summarizer,
		maxUploadBytes: maxUploadBytes,
		log:            logger.Component("report"),
	}
}

// RegisterRoutes 注册报告相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/reports/summarize", h.handleSummarize)
}

// handleSummarize reads the multipart "file" field and returns {"summary", "outcome"}.
func (h *Handler) handleSummarize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		utils.RespondError(w, http.StatusBadRequest, "expected a multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "no file selected")
		return
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		utils.RespondError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	document, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	summary := h.summarizer.Summarize(r.Context(), document)
	h.log.Info().Str("file", header.Filename).Int64("bytes", header.Size).Str("outcome", string(summary.Outcome)).Msg("report processed")
	utils.RespondJSON(w, http.StatusOK, summary)
}
