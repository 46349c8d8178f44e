package pdf

import (
	"bytes"
	"testing"
	"time"

	"abetcrm/internal/models"
)

func TestPipelineReportRendersPDF(t *testing.T) {
	g := NewReportGenerator("")
	out, err := g.PipelineReport(PipelineData{
		GeneratedAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		Stages:      []models.StageSummary{{Stage: "prospecting", Count: 2, TotalAmount: 1200}},
		Forecast:    []models.ForecastMonth{{Month: "2024-07", WeightedAmount: 600, Count: 1}},
		Months:      6,
	})
	if err != nil {
		t.Fatalf("PipelineReport: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", out[:8])
	}
}

func TestPipelineReportEmpty(t *testing.T) {
	out, err := NewReportGenerator("missing.ttf").PipelineReport(PipelineData{GeneratedAt: time.Now()})
	if err != nil || len(out) == 0 {
		t.Fatalf("empty report failed: %v", err)
	}
}

func TestMoney(t *testing.T) {
	if money(1234.5) != "1234.50" {
		t.Fatalf("money = %s", money(1234.5))
	}
}
