package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/locvowork/sql2xlsx/internal/exporter"
	"github.com/locvowork/sql2xlsx/internal/logger"
	"github.com/locvowork/sql2xlsx/internal/service"
	"github.com/locvowork/sql2xlsx/internal/service/serviceutils"
)

const contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ExportHandler struct {
	svc service.ExportService
}

func NewExportHandler(svc service.ExportService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// ExportNamedHandler runs the stored query named by the :name path parameter
// and returns the workbook as a download.
func (h *ExportHandler) ExportNamedHandler(c echo.Context) error {
	ctx := c.Request().Context()
	start := time.Now()

	res, err := h.svc.ExportNamed(ctx, c.Param("name"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidName):
			return serviceutils.ResponseError(c, http.StatusBadRequest, "Invalid query name", err)
		case errors.Is(err, service.ErrQueryNotFound):
			return serviceutils.ResponseError(c, http.StatusNotFound, "Query not found", err)
		case errors.Is(err, exporter.ErrConfig):
			return serviceutils.ResponseError(c, http.StatusUnprocessableEntity, "Query cannot be exported", err)
		}
		logger.ErrorLog(ctx, "export %s failed: %v", c.Param("name"), err)
		return serviceutils.ResponseError(c, http.StatusInternalServerError, "Failed to generate Excel file", err)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.WarnLog(ctx, "remove %s: %v", res.OutputPath, err)
		}
	}()

	logger.DebugLog(ctx, "export %s: %d rows, elapsed: %s", res.Filename, res.Rows, time.Since(start))

	c.Response().Header().Set(echo.HeaderContentType, contentTypeXLSX)
	c.Response().Header().Set("X-Export-Run-Id", res.RunID)
	return c.Attachment(res.OutputPath, res.Filename)
}

func (h *ExportHandler) HealthHandler(c echo.Context) error {
	return serviceutils.ResponseSuccess(c, http.StatusOK, "ok", nil)
}
