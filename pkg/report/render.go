// pkg/report/render.go

package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strconv"

	"github.com/CodeMonkeyCybersecurity/wipe/pkg/attest"
	"github.com/go-pdf/fpdf"
)

//go:embed templates/*
var templates embed.FS

var htmlTemplate = template.Must(template.ParseFS(templates, "templates/report.html.tmpl"))

// view is the data handed to the presentation renderers.
type view struct {
	Record        attest.Record
	Digest        string
	Signed        bool
	SigningError  string
	SigFile       string
	JSONFile      string
	PublicKeyPath string
}

func renderHTML(v view) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render HTML: %w", err)
	}
	return buf.Bytes(), nil
}

func renderPDF(v view) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Erasure attestation "+v.Record.Timestamp, true)
	pdf.SetCreator("wipe", true)
	pdf.SetCatalogSort(true)
	if ts, err := attest.ParseTimestamp(v.Record.Timestamp); err == nil {
		pdf.SetCreationDate(ts)
		pdf.SetModificationDate(ts)
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Erasure attestation", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(50, 7, tr(label), "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 7, tr(value), "1", "L", false)
	}

	hash := v.Record.PreErasureSHA256
	if hash == "" {
		hash = "not recorded"
	}
	row("Timestamp (UTC)", v.Record.Timestamp)
	row("Mode", v.Record.Mode)
	row("Target", v.Record.Target)
	row("Medium", v.Record.MediumKind.String())
	row("Method", v.Record.Method)
	row("Pre-erasure SHA-256", hash)
	row("Verified absent", strconv.FormatBool(v.Record.Verified))

	keys := make([]string, 0, len(v.Record.Metadata))
	for k := range v.Record.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		row(k, v.Record.Metadata[k])
	}

	pdf.Ln(4)
	row("Report SHA-256", v.Digest)
	if v.Signed {
		row("Signature", "RSA PKCS#1 v1.5 / SHA-256 ("+v.SigFile+")")
		row("Public key", v.PublicKeyPath)
	} else {
		status := "unsigned"
		if v.SigningError != "" {
			status += ": " + v.SigningError
		}
		row("Signature", status)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render PDF: %w", err)
	}
	return buf.Bytes(), nil
}
