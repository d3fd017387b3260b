package main

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
)

//go:embed templates
var templatesFS embed.FS

var pageNames = []string{"login.html", "register.html", "search.html"}

// mustParsePages parses every page together with the shared layout.
func mustParsePages() map[string]*template.Template {
	funcs := template.FuncMap{
		"join": strings.Join,
	}
	layout := template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templatesFS, "templates/layout.html"))

	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t := template.Must(layout.Clone())
		pages[name] = template.Must(t.ParseFS(templatesFS, "templates/"+name))
	}
	return pages
}

func (a *app) render(w http.ResponseWriter, status int, name string, data map[string]any) {
	t, ok := a.pages[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	for _, k := range []string{"Error", "Notice", "Next", "Username"} {
		if _, ok := data[k]; !ok {
			data[k] = ""
		}
	}
	if _, ok := data["Session"]; !ok {
		data["Session"] = session{}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := t.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("template execute", "template", name, "error", err)
	}
}
