package api

import (
	"embed"
	"html/template"
)

//go:embed static/dashboard.html
var apiStaticFS embed.FS

var dashboardTemplate = template.Must(
	template.New("dashboard.html").Funcs(template.FuncMap{
		"pct": formatPct,
	}).ParseFS(apiStaticFS, "static/dashboard.html"),
)
