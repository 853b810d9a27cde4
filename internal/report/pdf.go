package report

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"example.com/tscfg/internal/cfgbin"
)

// PDFOptions controls the PDF rendering of a decoded cfg bin.
type PDFOptions struct {
	Title   string
	Author  string
	Source  string
	Digest  string
	QRSize  int
	Created time.Time
}

// SavePDF renders bin into a PDF document at out.
func SavePDF(bin *cfgbin.CfgBin, opts PDFOptions, out string) error {
	pdf, err := buildPDF(bin, opts)
	if err != nil {
		return err
	}
	return pdf.OutputFileAndClose(out)
}

// WritePDF renders bin into a PDF document written to w.
func WritePDF(w io.Writer, bin *cfgbin.CfgBin, opts PDFOptions) error {
	pdf, err := buildPDF(bin, opts)
	if err != nil {
		return err
	}
	return pdf.Output(w)
}

func buildPDF(bin *cfgbin.CfgBin, opts PDFOptions) (*gofpdf.Fpdf, error) {
	title := emptyFallback(opts.Title, "Cfg Bin Report")
	author := emptyFallback(opts.Author, "tscfgctl")
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetAuthor(author, false)
	pdf.SetCreator("tscfgctl", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, title)
	if err := addDigestQR(pdf, opts); err != nil {
		return nil, err
	}
	addSummarySection(pdf, bin, opts)
	addPackagesSection(pdf, bin.Packages())
	addRegistrySection(pdf, bin)

	if pdf.Err() {
		return nil, pdf.Error()
	}
	return pdf, nil
}

func addPDFTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

// addDigestQR places a QR code of the input digest in the top right corner.
func addDigestQR(pdf *gofpdf.Fpdf, opts PDFOptions) error {
	if strings.TrimSpace(opts.Digest) == "" {
		return nil
	}
	png, err := DigestToQR(opts.Digest, opts.QRSize)
	if err != nil {
		return fmt.Errorf("digest qr: %w", err)
	}
	imgOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("digest-qr", imgOpts, bytes.NewReader(png))
	pageW, _ := pdf.GetPageSize()
	_, _, right, _ := pdf.GetMargins()
	const side = 30.0
	pdf.ImageOptions("digest-qr", pageW-right-side, 12, side, side, false, imgOpts, 0, "")
	return nil
}

func addSummarySection(pdf *gofpdf.Fpdf, bin *cfgbin.CfgBin, opts PDFOptions) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	head := bin.Head()
	created := opts.Created
	if created.IsZero() {
		created = time.Now().UTC()
	}
	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "Source", value: emptyFallback(opts.Source, "-")},
		{label: "Generated", value: created.Format(time.RFC3339)},
		{label: "Length", value: strconv.FormatUint(uint64(head.BinLen), 10)},
		{label: "Checksum", value: fmt.Sprintf("0x%02X", head.Checksum)},
		{label: "Version", value: hex.EncodeToString(head.BinVersion[:])},
		{label: "Packages", value: strconv.Itoa(int(head.PkgNum))},
		{label: "SHA-256", value: emptyFallback(opts.Digest, "-")},
	}
	for _, item := range items {
		pdf.CellFormat(30, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, item.value, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func addPackagesSection(pdf *gofpdf.Fpdf, pkgs []cfgbin.Package) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Packages")
	pdf.Ln(9)

	if len(pkgs) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "No packages present.", "", "L", false)
		return
	}

	headers := []string{"#", "IC Type", "Cfg", "Sensor", "Offset", "Length", "Config", "HW PID"}
	widths := []float64{10, 34, 14, 16, 20, 20, 20, 46}
	tableHeader(pdf, headers, widths)
	pdf.SetFont("Helvetica", "", 9)
	for i, p := range pkgs {
		ci := p.ConstInfo
		renderTableRow(pdf, widths, []string{
			strconv.Itoa(i),
			emptyFallback(ci.ICTypeName(), "-"),
			strconv.Itoa(int(ci.CfgType)),
			strconv.Itoa(int(ci.SensorID)),
			strconv.Itoa(p.Offset),
			strconv.FormatUint(uint64(p.PkgLen), 10),
			strconv.Itoa(p.PayloadLen()),
			hex.EncodeToString(ci.HwPID[:]),
		}, 5)
	}
	pdf.Ln(4)

	for i, p := range pkgs {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 5, fmt.Sprintf("Package %d registers", i), "", "L", false)
		pdf.SetFont("Helvetica", "", 9)
		regs := p.RegInfo.Registers()
		parts := make([]string, 0, len(regs))
		for _, nr := range regs {
			parts = append(parts, fmt.Sprintf("%s=0x%04X", nr.Name, nr.Register.Addr))
		}
		pdf.MultiCell(0, 4, strings.Join(parts, "  "), "", "L", false)
		pdf.Ln(2)
	}
}

func addRegistrySection(pdf *gofpdf.Fpdf, bin *cfgbin.CfgBin) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "IC Configs")
	pdf.Ln(9)

	keys := bin.CfgTypes()
	if len(keys) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "Registry is empty.", "", "L", false)
		return
	}
	headers := []string{"Cfg Type", "Length", "Data"}
	widths := []float64{22, 22, 136}
	tableHeader(pdf, headers, widths)
	pdf.SetFont("Courier", "", 8)
	for _, k := range keys {
		c, _ := bin.Config(k)
		renderTableRow(pdf, widths, []string{
			strconv.Itoa(int(k)),
			strconv.Itoa(int(c.Len)),
			preview(c.Data),
		}, 4)
	}
}

func tableHeader(pdf *gofpdf.Fpdf, headers []string, widths []float64) {
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func renderTableRow(pdf *gofpdf.Fpdf, widths []float64, values []string, lineHeight float64) {
	xStart := pdf.GetX()
	yStart := pdf.GetY()
	maxLines := 1
	splitCols := make([][]string, len(values))
	for i, val := range values {
		text := strings.TrimSpace(val)
		if text == "" {
			text = "-"
		}
		lines := pdf.SplitText(text, widths[i]-2)
		if len(lines) == 0 {
			lines = []string{""}
		}
		splitCols[i] = lines
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	rowHeight := float64(maxLines) * lineHeight
	x := xStart
	for i, lines := range splitCols {
		pdf.SetXY(x, yStart)
		cellText := strings.Join(lines, "\n")
		pdf.MultiCell(widths[i], lineHeight, cellText, "1", "L", false)
		x += widths[i]
	}
	pdf.SetXY(xStart, yStart+rowHeight)
}

func emptyFallback(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
