package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/user/kam-assistant-api/internal/models"
)

// PDFGenerator - генератор PDF-версии дашборда
type PDFGenerator struct{}

// NewPDFGenerator создаёт новый генератор
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// GenerateDashboardPDF рендерит KPI и последние строки на одну страницу A4.
// Используется встроенный Helvetica (cp1252), внешние шрифты не нужны.
func (g *PDFGenerator) GenerateDashboardPDF(user string, result *DashboardResult, now time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Заголовок
	g.drawHeader(pdf, tr, user, now)

	// Блок KPI
	g.drawKPIs(pdf, result)

	// Таблица последних активностей
	g.drawRowsTable(pdf, tr, result.LastRows)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *PDFGenerator) drawHeader(pdf *fpdf.Fpdf, tr func(string) string, user string, now time.Time) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(190, 8, tr("Sales dashboard: "+user), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(190, 5, "As of "+models.DateOf(now).String()+" (month to date from "+MonthStart(now).String()+")", "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func (g *PDFGenerator) drawKPIs(pdf *fpdf.Fpdf, result *DashboardResult) {
	labels := []string{"MTD revenue", "Deals closed", "Average deal", "Pipeline value"}
	values := []string{
		formatMoney(result.MTDRevenue),
		fmt.Sprintf("%d", result.DealsClosed),
		formatMoney(result.AvgDeal),
		formatMoney(result.PipelineValue),
	}

	colW := 190.0 / float64(len(labels))
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 8)
	for i, l := range labels {
		ln := 0
		if i == len(labels)-1 {
			ln = 1
		}
		pdf.CellFormat(colW, 6, l, "1", ln, "C", true, 0, "")
	}
	pdf.SetFont("Helvetica", "", 11)
	for i, v := range values {
		ln := 0
		if i == len(values)-1 {
			ln = 1
		}
		pdf.CellFormat(colW, 9, v, "1", ln, "C", false, 0, "")
	}
	pdf.Ln(6)
}

func (g *PDFGenerator) drawRowsTable(pdf *fpdf.Fpdf, tr func(string) string, rows []models.Activity) {
	// Ширины колонок (всего 190mm)
	widths := []float64{20, 45, 25, 30, 25, 25, 20}
	headers := []string{"Date", "Client", "Type", "Stage", "Deal value", "Follow-up", "Min"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(190, 7, "Latest activities", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(240, 240, 240)
	for i, h := range headers {
		ln := 0
		if i == len(headers)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 6, h, "1", ln, "C", true, 0, "")
	}

	pdf.SetFont("Helvetica", "", 8)
	if len(rows) == 0 {
		pdf.CellFormat(190, 6, "No activities", "1", 1, "C", false, 0, "")
		return
	}

	for _, r := range rows {
		followup := ""
		if r.FollowupDate != nil {
			followup = r.FollowupDate.String()
		}
		cells := []string{
			r.Date.String(),
			tr(truncate(deref(r.Client), 28)),
			tr(truncate(deref(r.ActivityType), 14)),
			tr(truncate(deref(r.Stage), 18)),
			formatMoney(r.DealValue),
			followup,
			fmt.Sprintf("%d", r.DurationMin),
		}
		for i, c := range cells {
			ln := 0
			if i == len(cells)-1 {
				ln = 1
			}
			align := "L"
			if i == 4 || i == 6 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 5, c, "1", ln, align, false, 0, "")
		}
	}
}

// formatMoney форматирует сумму с разделителем тысяч: 1 234 567.89
func formatMoney(v float64) string {
	neg := v < 0
	v = math.Abs(v)
	whole := int64(v)
	frac := int64(math.Round((v - float64(whole)) * 100))
	if frac == 100 {
		whole++
		frac = 0
	}

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, ch := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(ch)
	}

	s := fmt.Sprintf("%s.%02d", b.String(), frac)
	if neg {
		s = "-" + s
	}
	return s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
