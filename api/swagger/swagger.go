// Package swagger serves the OpenAPI document and the Swagger UI.
package swagger

import (
	_ "embed"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// DocPath is where the raw OpenAPI document is served.
const DocPath = "/openapi.json"

//go:embed users.swagger.json
var doc []byte

// Doc returns the embedded OpenAPI document.
func Doc() []byte {
	return doc
}

// DocHandler writes the OpenAPI document.
func DocHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(doc)
	}
}

// UIHandler serves the Swagger UI pointed at DocPath.
func UIHandler() http.HandlerFunc {
	return httpSwagger.Handler(httpSwagger.URL(DocPath))
}
