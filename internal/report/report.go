// Package report renders an analyzed assessment as a downloadable PDF.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
	"github.com/go-pdf/fpdf"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	ContentType  = "application/pdf"
	ImageNotice  = "Rooftop Image: [Image could not be included in PDF]"
	productLabel = "Rainwater Harvesting Calculator"
	font         = "Helvetica"
)

// ErrNotAnalyzed is returned for records without an analysis result.
var ErrNotAnalyzed = errors.New("record has no analysis result")

var whitespaceRun = regexp.MustCompile(`\s+`)

// Artifact is a rendered report.
type Artifact struct {
	Filename string
	Data     []byte
	Pages    int
	// Notices lists content that was left out of the document.
	Notices []string
}

// Exporter renders reports.
type Exporter struct {
	logger   *slog.Logger
	metrics  *observability.Metrics
	printer  *message.Printer
	compress bool
}

func NewExporter(logger *slog.Logger, metrics *observability.Metrics) *Exporter {
	return &Exporter{
		logger:   logger,
		metrics:  metrics,
		printer:  message.NewPrinter(language.MustParse("en-IN")),
		compress: true,
	}
}

// Filename is the download name for a report about name.
func Filename(name string) string {
	return "rainwater-harvesting-report-" + whitespaceRun.ReplaceAllString(name, "-") + ".pdf"
}

// Export renders rec. An image that cannot be embedded is replaced by a
// notice; only document-level failures return an error.
func (e *Exporter) Export(rec domain.UserRecord, generatedAt time.Time) (Artifact, error) {
	if !rec.Analyzed() {
		e.metrics.Reports.WithLabelValues("error").Inc()
		return Artifact{}, ErrNotAnalyzed
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(e.compress)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.SetCreationDate(generatedAt)
	pdf.SetTitle("Rainwater Harvesting Assessment Report", true)
	pdf.SetCreator(productLabel, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, pageHeight := pdf.GetPageSize()
	cur := newCursor(pageHeight)

	text := func(s string, size float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont(font, style, size)
		pdf.Text(margin, cur.line(size), tr(s))
	}

	a := rec.Analysis
	text("Rainwater Harvesting Assessment Report", titleSize, true)
	cur.gap()

	text("Personal Information", headingSize, true)
	text("Name: "+rec.Name, bodySize, false)
	text("Mobile: "+rec.Mobile, bodySize, false)
	text("Email: "+rec.Email, bodySize, false)
	cur.gap()

	text("Location Information", headingSize, true)
	text("Location: "+orDefault(a.Location, "Unknown"), bodySize, false)
	coords := "Not provided"
	if rec.Coordinates != nil {
		coords = rec.Coordinates.String()
	}
	text("Coordinates: "+coords, bodySize, false)
	cur.gap()

	text("Analysis Results", headingSize, true)
	text(e.printer.Sprintf("Rooftop Area: %d sq meters", *rec.RooftopArea), bodySize, false)
	text(e.printer.Sprintf("Average Annual Rainfall: %d mm", a.AverageRainfall), bodySize, false)
	text(e.printer.Sprintf("Recommended Tank Size: %d liters", a.RecommendedTankSize), bodySize, false)
	text(e.printer.Sprintf("Monthly Storage Potential: %d liters", a.MonthlyStorage), bodySize, false)
	text("Estimated Construction Cost: "+e.Currency(a.ConstructionCost), bodySize, false)
	cur.gap()

	var notices []string
	if rec.RooftopImage != nil {
		if err := e.registerImage(pdf, rec.RooftopImage); err != nil {
			e.logger.Warn("rooftop image left out of report", "error", err)
			notices = append(notices, ImageNotice)
			text(ImageNotice, bodySize, false)
		} else {
			if !cur.fits(imageHeight) {
				pdf.AddPage()
				cur.newPage()
			}
			text("Rooftop Image", headingSize, true)
			pdf.ImageOptions(imageName, margin, cur.y, pageWidth-2*margin, imageHeight, false, fpdf.ImageOptions{}, 0, "")
			cur.y += imageHeight + sectionGap
		}
	}

	footerY := cur.footerY()
	pdf.SetFont(font, "", footerSize)
	pdf.Text(margin, footerY, "Generated on: "+generatedAt.Format("02/01/2006"))
	pdf.Text(pageWidth-margin-60, footerY, productLabel)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		e.metrics.Reports.WithLabelValues("error").Inc()
		return Artifact{}, fmt.Errorf("render report: %w", err)
	}

	outcome := "ok"
	if len(notices) > 0 {
		outcome = "degraded"
	}
	e.metrics.Reports.WithLabelValues(outcome).Inc()

	return Artifact{
		Filename: Filename(rec.Name),
		Data:     buf.Bytes(),
		Pages:    pdf.PageCount(),
		Notices:  notices,
	}, nil
}

// Currency formats rupees with digit grouping. The rupee sign is not in the
// core PDF fonts' encoding, so the amount is prefixed with "Rs.".
func (e *Exporter) Currency(amount int) string {
	return e.printer.Sprintf("Rs. %d", amount)
}

const imageName = "rooftop"

// registerImage loads img into pdf. A failed load is cleared from the
// document so rendering can continue.
func (e *Exporter) registerImage(pdf *fpdf.Fpdf, img *domain.Image) error {
	imageType, ok := imageTypes[strings.ToLower(img.ContentType)]
	if !ok {
		return fmt.Errorf("unsupported image type %q", img.ContentType)
	}
	pdf.RegisterImageOptionsReader(imageName, fpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(img.Data))
	if err := pdf.Error(); err != nil {
		pdf.ClearError()
		return fmt.Errorf("decode image: %w", err)
	}
	return nil
}

var imageTypes = map[string]string{
	"image/jpeg": "JPG",
	"image/jpg":  "JPG",
	"image/png":  "PNG",
	"image/gif":  "GIF",
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
