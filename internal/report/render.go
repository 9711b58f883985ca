package report

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	marginLeft   = 15.0
	contentWidth = 180.0
)

var columnWidths = []float64{50, 25, 35, 25, 25, 20}

type font struct {
	style string
	size  float64
}

var fonts = map[Style]font{
	StyleTitle:       {"B", 18},
	StyleHeading:     {"B", 14},
	StyleLabel:       {"B", 11},
	StyleBody:        {"", 11},
	StyleBullet:      {"", 11},
	StyleTableHeader: {"B", 10},
	StyleTableRow:    {"", 10},
}

// Render 绘制 PDF；出错时不返回任何字节
func Render(doc *Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(doc.CreatedAt)
	pdf.SetModificationDate(doc.CreatedAt)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("health-track", true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(marginLeft, doc.Layout.TopMargin, marginLeft)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, page := range doc.Pages {
		pdf.AddPage()
		for _, line := range page.Lines {
			f := fonts[line.Style]
			pdf.SetFont("Helvetica", f.style, f.size)
			if len(line.Cells) > 0 {
				x := marginLeft
				for i, cell := range line.Cells {
					w := columnWidths[len(columnWidths)-1]
					if i < len(columnWidths) {
						w = columnWidths[i]
					}
					pdf.SetXY(x, line.Y)
					pdf.CellFormat(w, doc.Layout.LineHeight, tr(cell), "B", 0, "L", false, 0, "")
					x += w
				}
				continue
			}
			pdf.SetXY(marginLeft, line.Y)
			pdf.CellFormat(contentWidth, doc.Layout.LineHeight, tr(line.Text), "", 0, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Filename <slug>-<kind>-<YYYY-MM-DD>.pdf
func Filename(programSlug, kind string, date time.Time) string {
	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(programSlug), "-"), "-")
	if slug == "" {
		slug = "health-track"
	}
	return fmt.Sprintf("%s-%s-%s.pdf", slug, kind, date.Format("2006-01-02"))
}

const (
	KindDoctorVisit   = "doctor-visit"
	KindMedicationLog = "medication-log"
)
