package routes

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const exportTimeLayout = "2006-01-02 15:04:05"

var (
	virtualExportHeader  = []string{"Staff Name", "Staff Email", "Join Time", "Confirmed", "Confirmed Time"}
	physicalExportHeader = []string{"Staff Name", "Department", "Email", "Scanned At"}
)

func (a *API) exportVirtual(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	records, err := a.Engine.Attendance(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		confirmed := "No"
		if r.Confirmed {
			confirmed = "Yes"
		}
		rows = append(rows, []string{r.Name, r.Email, formatTime(r.JoinTime), confirmed, formatTime(r.ConfirmationTime)})
	}
	writeCSV(c, fmt.Sprintf("meeting-%d-virtual.csv", id), virtualExportHeader, rows)
}

func (a *API) exportPhysical(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	attendees, err := a.Scanner.Attendees(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows := make([][]string, 0, len(attendees))
	for _, p := range attendees {
		rows = append(rows, []string{p.FullName, p.Department, p.Email, formatTime(&p.ScannedAt)})
	}
	writeCSV(c, fmt.Sprintf("meeting-%d-physical.csv", id), physicalExportHeader, rows)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(exportTimeLayout)
}

func writeCSV(c *gin.Context, filename string, header []string, rows [][]string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	if err := w.Write(header); err != nil {
		slog.Warn("CSV export interrupted", "file", filename, "error", err)
		return
	}
	if err := w.WriteAll(rows); err != nil {
		slog.Warn("CSV export interrupted", "file", filename, "error", err)
	}
}
