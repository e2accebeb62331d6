// Package templates renders the HTML pages of the web UI as templ
// components.
package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// IndexParams configures the upload page.
type IndexParams struct {
	MaxFileSize int64
	SampleSize  int
	Notice      string
}

// ErrorParams describes a failed conversion for ErrorPage.
type ErrorParams struct {
	Message      string
	Action       string
	Code         string
	Attempted    []string
	ConversionID string
}

const styles = `body{font-family:system-ui,sans-serif;max-width:42rem;margin:3rem auto;padding:0 1rem;color:#1f2937}
h1{font-size:1.5rem}form{display:grid;gap:.75rem;margin-top:1.5rem}
label{font-weight:600}input[type=number]{width:10rem}
button{padding:.5rem 1rem;border:0;border-radius:.375rem;background:#2563eb;color:#fff;cursor:pointer}
.alert{border:1px solid #fca5a5;background:#fef2f2;border-radius:.375rem;padding:1rem;margin:1rem 0}
.alert .code{color:#6b7280;font-size:.875rem}
.notice{border:1px solid #fcd34d;background:#fffbeb;border-radius:.375rem;padding:.75rem}
.muted{color:#6b7280;font-size:.875rem}`

// Layout wraps body in the page shell.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>%s</title><style>%s</style></head><body>`,
			templ.EscapeString(title), styles); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// Index is the upload page.
func Index(p IndexParams) templ.Component {
	return Layout("CSV to UTF-8", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<h1>CSV to UTF-8</h1>`)
		b.WriteString(`<p>Upload a CSV file in any encoding. Its encoding is detected, confirmed by parsing the whole file, and a UTF-8 copy is downloaded.</p>`)
		if p.Notice != "" {
			fmt.Fprintf(&b, `<p class="notice">%s</p>`, templ.EscapeString(p.Notice))
		}
		b.WriteString(`<form method="post" action="/convert" enctype="multipart/form-data">`)
		b.WriteString(`<label for="file">CSV file</label>`)
		b.WriteString(`<input id="file" name="file" type="file" accept=".csv,.txt,text/csv" required>`)
		b.WriteString(`<label for="sample_size">Detection sample (bytes)</label>`)
		fmt.Fprintf(&b, `<input id="sample_size" name="sample_size" type="number" min="1" value="%d">`, p.SampleSize)
		b.WriteString(`<button type="submit">Convert</button>`)
		b.WriteString(`</form>`)
		fmt.Fprintf(&b, `<p class="muted">Maximum upload size: %s.</p>`, templ.EscapeString(humanBytes(p.MaxFileSize)))
		_, err := io.WriteString(w, b.String())
		return err
	}))
}

// ErrorAlert is the error fragment, also used on its own for HTMX requests.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert" role="alert">`)
		fmt.Fprintf(&b, `<strong>%s</strong>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p>%s</p>`, templ.EscapeString(action))
		}
		if code != "" {
			fmt.Fprintf(&b, `<p class="code">Error code: %s</p>`, templ.EscapeString(code))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ErrorPage reports a failed conversion, listing the attempted encodings.
func ErrorPage(p ErrorParams) templ.Component {
	return Layout("Conversion failed", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h1>Conversion failed</h1>`); err != nil {
			return err
		}
		if err := ErrorAlert(p.Message, p.Action, p.Code).Render(ctx, w); err != nil {
			return err
		}

		var b strings.Builder
		if len(p.Attempted) > 0 {
			b.WriteString(`<p>Encodings tried, in order:</p><ol>`)
			for _, enc := range p.Attempted {
				fmt.Fprintf(&b, `<li><code>%s</code></li>`, templ.EscapeString(enc))
			}
			b.WriteString(`</ol>`)
		}
		if p.ConversionID != "" {
			fmt.Fprintf(&b, `<p class="muted">Reference: %s</p>`, templ.EscapeString(p.ConversionID))
		}
		b.WriteString(`<p><a href="/">Convert another file</a></p>`)
		_, err := io.WriteString(w, b.String())
		return err
	}))
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
