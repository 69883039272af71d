package storage

import (
	"bytes"
	htmltemplate "html/template"
	"io"
	texttemplate "text/template"

	"github.com/ubuntu/decorate"

	"comic-market-watch/models"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <meta name="robots" content="noindex">
  <title>{{.Headline}}</title>
</head>
<body>
  <h1>{{.Headline}}</h1>
  <p>{{.Summary}}</p>
  <h2>Top Sale</h2>
  <a href="{{.Link}}" target="_blank">
    <img src="{{.Thumbnail}}" alt="{{.Title}}" style="max-width:300px;">
    <p>{{.Title}} – ${{printf "%.2f" .Price}}</p>
  </a>
</body>
</html>
`

type executor interface {
	Execute(w io.Writer, data any) error
}

// HTMLWriter renders the report as a standalone web page.
type HTMLWriter struct {
	path string
	tmpl executor
}

// NewHTMLWriter creates a writer for path. With escape set, report text is
// HTML-escaped; otherwise it is interpolated verbatim, which reproduces pages
// generated before escaping was introduced.
func NewHTMLWriter(path string, escape bool) (*HTMLWriter, error) {
	var (
		tmpl executor
		err  error
	)
	if escape {
		tmpl, err = htmltemplate.New("report").Parse(pageTemplate)
	} else {
		tmpl, err = texttemplate.New("report").Parse(pageTemplate)
	}
	if err != nil {
		return nil, err
	}
	return &HTMLWriter{path: path, tmpl: tmpl}, nil
}

// Path returns the output file location.
func (h *HTMLWriter) Path() string { return h.path }

// Write renders report and replaces the page on disk.
func (h *HTMLWriter) Write(report *models.Report) (err error) {
	defer decorate.OnError(&err, "could not write HTML report %q", h.path)

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, report); err != nil {
		return err
	}
	return writeFileAtomic(h.path, buf.Bytes())
}
