// Command assess runs one rainwater assessment without the web API and
// writes the PDF report.
//
// Usage:
//
//	go run ./cmd/assess \
//	  -name "Asha Rao" -mobile 9876543210 -email asha@example.com \
//	  -lat 19.076 -lng 72.8777 -image roof.jpg -out report.pdf
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/rainwater-assessment/internal/analysis"
	"github.com/couchcryptid/rainwater-assessment/internal/config"
	"github.com/couchcryptid/rainwater-assessment/internal/domain"
	"github.com/couchcryptid/rainwater-assessment/internal/observability"
	"github.com/couchcryptid/rainwater-assessment/internal/report"
	"github.com/couchcryptid/rainwater-assessment/internal/wizard"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	name := flag.String("name", "", "full name")
	mobile := flag.String("mobile", "", "10-digit mobile number")
	email := flag.String("email", "", "email address")
	lat := flag.String("lat", "", "latitude in decimal degrees")
	lng := flag.String("lng", "", "longitude in decimal degrees")
	imagePath := flag.String("image", "", "rooftop image file")
	out := flag.String("out", "", "output path for the PDF report (default: report file name in the working directory)")
	seed := flag.Uint64("seed", 0, "analysis seed (0 = random)")
	delay := flag.Duration("delay", 0, "simulated analysis delay")
	flag.Parse()

	if *imagePath == "" {
		flag.Usage()
		return errors.New("missing required flag: -image")
	}

	logger := observability.NewLogger(&config.Config{LogLevel: "warn", LogFormat: "text"})
	metrics := observability.NewUnregisteredMetrics()

	src := analysis.NewSource(*seed)
	runner := analysis.NewRunner(analysis.NewEngine(src), analysis.NewMockNamer(src), nil, *delay, logger, metrics)

	ctx := context.Background()
	sess := wizard.NewSession(ctx, "cli", wizard.Capabilities{}, wizard.Deps{
		Analyzer:      runner,
		Logger:        logger,
		Metrics:       metrics,
		MaxImageBytes: domain.MaxImageBytes,
	})

	if _, err := sess.SubmitPersonalInfo(ctx, *name, *mobile, *email); err != nil {
		return stepError("personal information", err)
	}
	if _, err := sess.SubmitLocation(ctx, *lat, *lng); err != nil {
		return stepError("location", err)
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if _, err := sess.UploadImage(mime.TypeByExtension(filepath.Ext(*imagePath)), data); err != nil {
		return stepError("rooftop image", err)
	}

	start := time.Now()
	if _, err := sess.SubmitRooftop(ctx); err != nil {
		return stepError("rooftop image", err)
	}
	rec, err := sess.Results()
	if err != nil {
		return err
	}

	exporter := report.NewExporter(logger, metrics)
	artifact, err := exporter.Export(rec, time.Now())
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}
	path := *out
	if path == "" {
		path = artifact.Filename
	}
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	a := rec.Analysis
	log.Printf("analysis completed in %s", time.Since(start).Round(time.Millisecond))
	log.Printf("location: %s", a.Location)
	log.Printf("rooftop area: %d sq. m", *rec.RooftopArea)
	log.Printf("average rainfall: %d mm/year", a.AverageRainfall)
	log.Printf("recommended tank size: %d liters", a.RecommendedTankSize)
	log.Printf("monthly storage: %d liters", a.MonthlyStorage)
	log.Printf("construction cost: %s", exporter.Currency(a.ConstructionCost))
	for _, n := range artifact.Notices {
		log.Printf("notice: %s", n)
	}
	log.Printf("wrote %s (%d pages)", path, artifact.Pages)
	return nil
}

// stepError flattens a validation failure into one message per field.
func stepError(step string, err error) error {
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("%s: %w", step, err)
	}
	fields := make([]string, 0, len(verr.Fields))
	for f := range verr.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		log.Printf("%s: %s", f, verr.Fields[f])
	}
	return fmt.Errorf("%s step rejected", step)
}
