package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/domain"
	apperrors "github.com/Jonathangadeaharder/LangPlug-sub001/internal/errors"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/modelmanager"
)

func (s *Server) registerModelRoutes() {
	s.echo.GET("/api/models/usage", s.handleModelUsage)
	s.echo.POST("/api/models/:class/unload", s.handleModelUnload)
}

// handleModelUsage reports a JSON snapshot of every model class: loaded state,
// in-flight usage, and lifetime counters.
func (s *Server) handleModelUsage(c echo.Context) error {
	if err := c.JSON(http.StatusOK, s.app.ModelUsage()); err != nil {
		return fmt.Errorf("failed to write usage response: %w", err)
	}
	return nil
}

func (s *Server) handleModelUnload(c echo.Context) error {
	class, err := parseModelClass(c.Param("class"))
	if err != nil {
		return apperrors.ValidationError("unknown model class").WithField("class", c.Param("class"))
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), s.config.ModelUnloadTimeout)
	defer cancel()

	if err := s.app.UnloadModel(ctx, class); err != nil {
		switch {
		case errors.Is(err, domain.ErrModelNotFound):
			return apperrors.NotFoundError("model class not registered").WithField("class", string(class))
		case errors.Is(err, domain.ErrManagerClosed):
			return apperrors.UnavailableError("model manager is shutting down", err)
		default:
			return apperrors.InternalError("failed to unload model", err).WithField("class", string(class))
		}
	}

	if err := c.JSON(http.StatusOK, map[string]string{"status": "unloaded", "class": string(class)}); err != nil {
		return fmt.Errorf("failed to write unload response: %w", err)
	}
	return nil
}

func parseModelClass(raw string) (modelmanager.Class, error) {
	switch class := modelmanager.Class(raw); class {
	case modelmanager.ClassTranscription, modelmanager.ClassTranslation, modelmanager.ClassNLP:
		return class, nil
	default:
		return "", fmt.Errorf("unknown model class %q", raw)
	}
}
