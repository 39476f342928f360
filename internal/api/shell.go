package api

import (
	"bytes"
	_ "embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed web/shell.html
var shellHTML string

var shellTemplate = template.Must(template.New("shell").Parse(shellHTML))

// ShellSettings supplies the values the shell page is rendered with.
type ShellSettings interface {
	Theme() string
	TocWidth() int
}

type shellData struct {
	Title    string
	Theme    string
	TocWidth int
}

// ShellHandler serves the browser shell page. The page talks to the JSON API
// and follows the event stream.
func ShellHandler(title string, prefs ShellSettings) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		var buf bytes.Buffer
		data := shellData{Title: title, Theme: prefs.Theme(), TocWidth: prefs.TocWidth()}
		if err := shellTemplate.Execute(&buf, data); err != nil {
			slog.Error("render shell failed", slog.String("error", err.Error()))
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	}
}
