package artifact

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"job-agent/internal/domain/artifact"
)

var ErrNotReady = errors.New("artifact is not ready")

type Format string

const (
	FormatText Format = "txt"
	FormatPDF  Format = "pdf"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText, "text":
		return FormatText, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// PDFRenderer prints an HTML document.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

//go:embed templates/artifact.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/artifact.html"))

type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

type Exporter struct {
	pdf PDFRenderer
	now func() time.Time
}

func NewExporter(pdf PDFRenderer) *Exporter {
	return &Exporter{pdf: pdf, now: time.Now}
}

// Export renders a ready slot. jobTitle is only used for the document heading.
func (e *Exporter) Export(ctx context.Context, st artifact.State, jobID int64, jobTitle string, format Format) (Document, error) {
	if st.Status != artifact.StatusReady {
		return Document{}, ErrNotReady
	}
	base := fmt.Sprintf("%s-job-%d", st.Kind, jobID)

	switch format {
	case FormatText:
		return Document{
			Filename:    base + ".txt",
			ContentType: "text/plain; charset=utf-8",
			Body:        []byte(PlainText(st)),
		}, nil
	case FormatPDF:
		if e.pdf == nil {
			return Document{}, errors.New("pdf export unavailable")
		}
		html, err := e.html(st, jobTitle)
		if err != nil {
			return Document{}, err
		}
		b, err := e.pdf.RenderPDF(ctx, html)
		if err != nil {
			return Document{}, fmt.Errorf("render pdf: %w", err)
		}
		return Document{Filename: base + ".pdf", ContentType: "application/pdf", Body: b}, nil
	}
	return Document{}, fmt.Errorf("unknown export format %q", format)
}

// PlainText is the downloadable text form of a ready slot.
func PlainText(st artifact.State) string {
	if st.Prep == nil {
		return st.Content
	}
	var b strings.Builder
	for i, sec := range prepSections(*st.Prep) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sec.Heading)
		b.WriteString("\n")
		if len(sec.Items) == 0 {
			b.WriteString("  (none)\n")
			continue
		}
		for n, item := range sec.Items {
			fmt.Fprintf(&b, "%d. %s\n", n+1, item)
		}
	}
	return b.String()
}

type section struct {
	Heading string
	Items   []string
}

func prepSections(p artifact.InterviewPrep) []section {
	p = p.Normalize()
	return []section{
		{Heading: "Technical Questions", Items: p.TechnicalQuestions},
		{Heading: "Behavioral Questions", Items: p.BehavioralQuestions},
		{Heading: "Tips", Items: p.Tips},
	}
}

func (e *Exporter) html(st artifact.State, jobTitle string) (string, error) {
	data := struct {
		Title     string
		Job       string
		Generated string
		Content   string
		Prep      bool
		Sections  []section
	}{
		Title:     strings.ToUpper(st.Kind.Label()[:1]) + st.Kind.Label()[1:],
		Job:       jobTitle,
		Generated: e.now().Format("2 Jan 2006"),
		Content:   st.Content,
	}
	if st.Prep != nil {
		data.Prep = true
		data.Sections = prepSections(*st.Prep)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
