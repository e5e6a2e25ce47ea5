package api

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"edumanage/pkg/types"
)

// powerBIRow is the column naming the reporting pipeline expects.
type powerBIRow struct {
	MetricType string          `json:"MetricType"`
	EntityType string          `json:"EntityType"`
	EntityID   string          `json:"EntityId"`
	Value      float64         `json:"Value"`
	Date       string          `json:"Date"`
	Metadata   json.RawMessage `json:"Metadata"`
	Period     string          `json:"Period"`
}

// handleAnalyticsExport returns metric rows reshaped for PowerBI ingestion.
func (s *Server) handleAnalyticsExport(c echo.Context) error {
	rows, err := s.opts.Storage.GetAnalyticsRows(c.Request().Context(),
		c.QueryParam("metricType"), c.QueryParam("startDate"), c.QueryParam("endDate"))
	if err != nil {
		return s.fail(c, err, "Failed to export analytics data")
	}

	export := make([]powerBIRow, 0, len(rows))
	for _, row := range rows {
		export = append(export, powerBIRow{
			MetricType: row.MetricType,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Value:      row.Value,
			Date:       row.Date,
			Metadata:   row.Metadata,
			Period:     row.Period,
		})
	}
	return c.JSON(http.StatusOK, export)
}

type analyticsRowRequest struct {
	MetricType string          `json:"metricType" validate:"required"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	Value      float64         `json:"value"`
	Metadata   json.RawMessage `json:"metadata"`
	Period     string          `json:"period"`
	Date       string          `json:"date" validate:"required"`
}

func (s *Server) handleSaveAnalyticsRow(c echo.Context) error {
	var req analyticsRowRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	row := &types.AnalyticsRow{
		MetricType: req.MetricType,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		Value:      req.Value,
		Metadata:   req.Metadata,
		Period:     req.Period,
		Date:       req.Date,
	}
	if err := s.opts.Storage.SaveAnalyticsRow(c.Request().Context(), row); err != nil {
		return s.fail(c, err, "Failed to save analytics data")
	}
	return c.JSON(http.StatusCreated, row)
}
