package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/Jonathangadeaharder/LangPlug-sub001/internal/errors"
)

func (s *Server) registerVocabularyRoutes() {
	s.echo.GET("/api/users/:id/vocabulary", s.handleVocabularyList)
	s.echo.GET("/api/users/:id/vocabulary/stats", s.handleVocabularyStats)
	s.echo.POST("/api/users/:id/vocabulary/:lemma/review", s.handleReviewWord)
	s.echo.PUT("/api/users/:id/vocabulary/:lemma", s.handleSetConfidence)
}

func vocabularyParams(c echo.Context) (uuid.UUID, string, error) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, "", apperrors.ValidationError("invalid user id").WithField("id", c.Param("id"))
	}

	language := c.QueryParam("language")
	if language == "" {
		language = "de"
	}
	return userID, language, nil
}

func (s *Server) handleVocabularyList(c echo.Context) error {
	userID, language, err := vocabularyParams(c)
	if err != nil {
		return err
	}

	rows, err := s.app.VocabularyList(c.Request().Context(), userID, language)
	if err != nil {
		return apperrors.InternalError("failed to list vocabulary", err).WithField("user_id", userID.String())
	}

	if err := c.JSON(http.StatusOK, map[string]any{"words": rows, "count": len(rows)}); err != nil {
		return fmt.Errorf("failed to write vocabulary response: %w", err)
	}
	return nil
}

func (s *Server) handleVocabularyStats(c echo.Context) error {
	userID, language, err := vocabularyParams(c)
	if err != nil {
		return err
	}

	stats, err := s.app.VocabularyStats(c.Request().Context(), userID, language)
	if err != nil {
		return apperrors.InternalError("failed to aggregate vocabulary stats", err).WithField("user_id", userID.String())
	}

	if err := c.JSON(http.StatusOK, stats); err != nil {
		return fmt.Errorf("failed to write stats response: %w", err)
	}
	return nil
}

type reviewRequest struct {
	Correct bool `json:"correct"`
}

func (s *Server) handleReviewWord(c echo.Context) error {
	userID, language, err := vocabularyParams(c)
	if err != nil {
		return err
	}

	lemma := strings.ToLower(strings.TrimSpace(c.Param("lemma")))
	if lemma == "" {
		return apperrors.ValidationError("lemma is required")
	}

	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid review payload")
	}

	progress, err := s.app.ReviewWord(c.Request().Context(), userID, lemma, language, req.Correct)
	if err != nil {
		return apperrors.InternalError("failed to record review", err).WithField("lemma", lemma)
	}

	if err := c.JSON(http.StatusOK, progress); err != nil {
		return fmt.Errorf("failed to write review response: %w", err)
	}
	return nil
}

type confidenceRequest struct {
	Confidence int `json:"confidence"`
}

func (s *Server) handleSetConfidence(c echo.Context) error {
	userID, language, err := vocabularyParams(c)
	if err != nil {
		return err
	}

	lemma := strings.ToLower(strings.TrimSpace(c.Param("lemma")))
	if lemma == "" {
		return apperrors.ValidationError("lemma is required")
	}

	var req confidenceRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid confidence payload")
	}

	progress, err := s.app.SetConfidence(c.Request().Context(), userID, lemma, language, req.Confidence)
	if err != nil {
		return apperrors.InternalError("failed to set confidence", err).WithField("lemma", lemma)
	}

	if err := c.JSON(http.StatusOK, progress); err != nil {
		return fmt.Errorf("failed to write confidence response: %w", err)
	}
	return nil
}
