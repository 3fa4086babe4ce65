package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*
var templateFiles embed.FS

const (
	templateLogin     = "login.html"
	templateConsent   = "consent.html"
	templateLoggedOut = "logged_out.html"
)

func TemplateFilesFS() fs.FS {
	// Create the sub filesystem once
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a template from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	content, err := fs.ReadFile(TemplateFilesFS(), name)
	if err != nil {
		return nil, err
	}
	return template.New(name).Parse(string(content))
}

// renderTemplate executes the named template into a buffer first so a failing template never
// leaves a half written page.
func (s *Server) renderTemplate(w http.ResponseWriter, r *http.Request, endpoint, name string, status int, data any) {
	tmpl, err := ParseTemplate(name)
	if err != nil {
		s.serverError(w, r, endpoint, err)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.serverError(w, r, endpoint, err)
		return
	}
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
