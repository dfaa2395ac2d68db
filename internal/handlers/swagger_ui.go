package handlers

import (
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
)

const (
	docsPath        = "/api/docs"
	openAPIPath     = "/api/docs/openapi.json"
	swaggerUIDist   = "https://unpkg.com/swagger-ui-dist@5.10.0"
	swaggerUITitle  = "Discharge Volume API"
	swaggerUIDomID  = "swagger-ui"
	swaggerUIAssets = "swagger-ui-bundle.js"
)

var swaggerPage = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="de">
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="{{.Dist}}/swagger-ui.css">
<style>body { margin: 0; }</style>
</head>
<body>
<div id="{{.DomID}}"></div>
<script src="{{.Dist}}/{{.Bundle}}"></script>
<script>
window.onload = function () {
  window.ui = SwaggerUIBundle({
    url: "{{.SpecURL}}",
    dom_id: "#{{.DomID}}",
    deepLinking: true,
    docExpansion: "list",
    defaultModelsExpandDepth: 0
  });
};
</script>
</body>
</html>`))

type swaggerPageData struct {
	Title   string
	Dist    string
	Bundle  string
	DomID   string
	SpecURL string
}

// RegisterDocsRoutes serves the OpenAPI document and the Swagger UI
func RegisterDocsRoutes(router *mux.Router) {
	router.HandleFunc(docsPath, SwaggerUI).Methods("GET")
	router.HandleFunc(openAPIPath, OpenAPISpec).Methods("GET")
}

// SwaggerUI renders the interactive API browser for the OpenAPI document
func SwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	swaggerPage.Execute(w, swaggerPageData{
		Title:   swaggerUITitle,
		Dist:    swaggerUIDist,
		Bundle:  swaggerUIAssets,
		DomID:   swaggerUIDomID,
		SpecURL: openAPIPath,
	})
}
