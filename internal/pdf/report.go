package pdf

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"

	"abetcrm/internal/models"
)

// Generator renders sales reports (easy to mock in handler tests).
type Generator interface {
	PipelineReport(data PipelineData) ([]byte, error)
}

// ReportGenerator uses the TTF at FontPath when it exists and falls back to
// the core Helvetica font otherwise.
type ReportGenerator struct {
	FontPath string
	fontName string
}

type PipelineData struct {
	Title       string
	GeneratedAt time.Time
	Stages      []models.StageSummary
	Forecast    []models.ForecastMonth
	Months      int
}

func NewReportGenerator(fontPath string) *ReportGenerator {
	return &ReportGenerator{FontPath: fontPath}
}

func (g *ReportGenerator) PipelineReport(data PipelineData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	title := data.Title
	if title == "" {
		title = "Sales pipeline"
	}
	pdf.SetTitle(title, true)
	pdf.SetAuthor("AbetWorks CRM", true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	font := g.setupFont(pdf)
	pdf.AddPage()

	// ===== header
	pdf.SetFont(font, "B", 18)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.SetFont(font, "", 10)
	pdf.CellFormat(0, 6, "Generated "+data.GeneratedAt.Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")
	hr(pdf)

	// ===== pipeline by stage
	sectionTitle(pdf, font, "Pipeline by stage")
	tableHeader(pdf, font, []string{"Stage", "Count", "Amount"})
	var count int
	var amount float64
	for _, s := range data.Stages {
		tableRow(pdf, font, []string{s.Stage, fmt.Sprint(s.Count), money(s.TotalAmount)})
		count += s.Count
		amount += s.TotalAmount
	}
	pdf.SetFont(font, "B", 11)
	tableRow(pdf, font, []string{"Total", fmt.Sprint(count), money(amount)})
	pdf.Ln(6)

	// ===== forecast
	sectionTitle(pdf, font, fmt.Sprintf("Weighted forecast, next %d months", data.Months))
	tableHeader(pdf, font, []string{"Month", "Count", "Weighted amount"})
	if len(data.Forecast) == 0 {
		pdf.CellFormat(0, 7, "No opportunities closing in this period.", "", 1, "L", false, 0, "")
	}
	for _, m := range data.Forecast {
		tableRow(pdf, font, []string{m.Month, fmt.Sprint(m.Count), money(m.WeightedAmount)})
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pipeline report: %w", err)
	}
	return buf.Bytes(), nil
}

// ===== helpers =====

func (g *ReportGenerator) setupFont(pdf *gofpdf.Fpdf) string {
	if g.FontPath != "" {
		if _, err := os.Stat(g.FontPath); err == nil {
			pdf.AddUTF8Font("DejaVu", "", g.FontPath)
			pdf.AddUTF8Font("DejaVu", "B", g.FontPath)
			return "DejaVu"
		}
	}
	return "Helvetica"
}

func sectionTitle(pdf *gofpdf.Fpdf, font, s string) {
	pdf.SetFont(font, "B", 12)
	pdf.CellFormat(0, 8, s, "", 1, "L", false, 0, "")
}

var colWidths = []float64{80, 30, 60}

func tableHeader(pdf *gofpdf.Fpdf, font string, cols []string) {
	pdf.SetFont(font, "B", 11)
	pdf.SetFillColor(230, 230, 230)
	for i, c := range cols {
		pdf.CellFormat(colWidths[i], 7, c, "1", 0, align(i), true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont(font, "", 11)
}

func tableRow(pdf *gofpdf.Fpdf, font string, cols []string) {
	for i, c := range cols {
		pdf.CellFormat(colWidths[i], 7, c, "1", 0, align(i), false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont(font, "", 11)
}

func align(col int) string {
	if col == 0 {
		return "L"
	}
	return "R"
}

func hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 4)
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
