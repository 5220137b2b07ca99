// Package swagger Heatmap Service API.
//
// Location-quality heatmap tile service. Scores map locations against
// user-weighted proximity factors (transit, schools, parks, noise sources)
// backed by OpenStreetMap POIs, and serves tiled real-estate listings with
// price-vs-quality analysis.
//
// Main capabilities:
// - Heatmap tiles and viewport batches at a fixed server-side zoom
// - Per-factor score breakdowns for map popups
// - Tiled property listings from external sources
// - Admin tile prewarming and cache statistics
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
//	SecurityDefinitions:
//	BearerAuth:
//	     type: apiKey
//	     name: Authorization
//	     in: header
//
// swagger:meta
package swagger
