package httpserver

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/Jonathangadeaharder/LangPlug-sub001/internal/errors"
)

// processingError keeps structured errors from the service (validation and
// friends) intact and classifies everything else as an upstream failure.
func processingError(err error, message string) error {
	var structured *apperrors.Error
	if errors.As(err, &structured) {
		return structured
	}
	return apperrors.ExternalError(message, err)
}

// maxSubtitleSize caps uploaded SRT files at 2 MiB.
const maxSubtitleSize = 2 << 20

func (s *Server) registerSubtitleRoutes() {
	limiter := newRateLimiter(s.config.ProcessRatePerSecond, s.config.ProcessRateBurst)
	s.echo.POST("/api/subtitles/process", s.handleProcessSubtitles, limiter)
}

// handleProcessSubtitles accepts a multipart SRT upload (field "subtitles")
// or an audio path reference (field "audio_path") and runs the processing
// pipeline for the given user.
func (s *Server) handleProcessSubtitles(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := uuid.Parse(c.FormValue("user_id"))
	if err != nil {
		return apperrors.ValidationError("invalid user_id").WithField("user_id", c.FormValue("user_id"))
	}

	sourceLang := c.FormValue("source_lang")
	if sourceLang == "" {
		sourceLang = "de"
	}
	targetLang := c.FormValue("target_lang")
	if targetLang == "" {
		targetLang = "en"
	}

	if audioPath := c.FormValue("audio_path"); audioPath != "" {
		report, err := s.app.ProcessAudio(ctx, userID, audioPath, audioPath, sourceLang, targetLang)
		if err != nil {
			return processingError(err, "audio processing failed")
		}
		if err := c.JSON(http.StatusOK, report); err != nil {
			return fmt.Errorf("failed to write report response: %w", err)
		}
		return nil
	}

	fileHeader, err := c.FormFile("subtitles")
	if err != nil {
		return apperrors.ValidationError("subtitles file or audio_path is required")
	}
	if fileHeader.Size > maxSubtitleSize {
		return apperrors.ValidationError("subtitle file too large").WithField("size", fileHeader.Size)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.InternalError("failed to open upload", err)
	}
	defer file.Close()

	srt, err := io.ReadAll(io.LimitReader(file, maxSubtitleSize))
	if err != nil {
		return apperrors.InternalError("failed to read upload", err)
	}

	report, err := s.app.ProcessSubtitles(ctx, userID, fileHeader.Filename, srt, sourceLang, targetLang)
	if err != nil {
		return processingError(err, "subtitle processing failed")
	}

	if err := c.JSON(http.StatusOK, report); err != nil {
		return fmt.Errorf("failed to write report response: %w", err)
	}
	return nil
}
