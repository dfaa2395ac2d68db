package handlers

import (
	"encoding/json"
	"net/http"
)

func queryParam(name, description, typ, format string) map[string]interface{} {
	schema := map[string]interface{}{"type": typ}
	if format != "" {
		schema["format"] = format
	}
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      schema,
	}
}

func intervalParams() []map[string]interface{} {
	return []map[string]interface{}{
		queryParam("start", "Interval start (YYYY-MM-DD or YYYY-MM-DDTHH:MM), defaults to the first sample", "string", ""),
		queryParam("end", "Interval end (YYYY-MM-DD or YYYY-MM-DDTHH:MM), defaults to the last sample", "string", ""),
	}
}

func paginationParams() []map[string]interface{} {
	return []map[string]interface{}{
		queryParam("page", "Page number (default: 1)", "integer", ""),
		queryParam("limit", "Records per page (default: 100, max: 1000)", "integer", ""),
	}
}

func jsonResponse(description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schema},
		},
	}
}

func object(properties map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "object", "properties": properties}
}

func arrayOf(items map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": items}
}

var (
	str      = map[string]string{"type": "string"}
	number   = map[string]string{"type": "number"}
	integer  = map[string]string{"type": "integer"}
	boolean  = map[string]string{"type": "boolean"}
	dateTime = map[string]string{"type": "string", "format": "date-time"}
)

func yearVolumeSchema() map[string]interface{} {
	return object(map[string]interface{}{
		"year":           integer,
		"interval_start": dateTime,
		"interval_end":   dateTime,
		"volume_m3":      number,
	})
}

func dayExtremeSchema() map[string]interface{} {
	return object(map[string]interface{}{
		"date": dateTime,
		"min":  number,
		"max":  number,
	})
}

func listSchema(items map[string]interface{}) map[string]interface{} {
	return object(map[string]interface{}{
		"series_id":   str,
		"table_label": str,
		"data":        arrayOf(items),
		"count":       integer,
		"stored":      boolean,
	})
}

func paginatedSchema(items map[string]interface{}) map[string]interface{} {
	return object(map[string]interface{}{
		"data":        arrayOf(items),
		"total":       integer,
		"page":        integer,
		"limit":       integer,
		"total_pages": integer,
	})
}

func storedYearSchema() map[string]interface{} {
	return object(map[string]interface{}{
		"id":             integer,
		"series_id":      str,
		"table_label":    str,
		"year":           integer,
		"interval_start": dateTime,
		"interval_end":   dateTime,
		"volume_m3":      number,
		"created_at":     dateTime,
		"updated_at":     dateTime,
	})
}

func storedExtremeSchema() map[string]interface{} {
	return object(map[string]interface{}{
		"id":          integer,
		"series_id":   str,
		"table_label": str,
		"day":         dateTime,
		"min_value":   number,
		"max_value":   number,
		"created_at":  dateTime,
		"updated_at":  dateTime,
	})
}

var persistParam = queryParam("persist", "Store the results when set to true", "boolean", "")

var unavailable = map[string]interface{}{"description": "Persistence is not configured"}

// OpenAPISpec returns the OpenAPI 3.0 document for the discharge volume API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	doc := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Discharge Volume API",
			"description": "Water volumes and daily discharge extremes computed from a UVF discharge series",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/series": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Describe the loaded series",
					"description": "Sample count, coverage and total volume of the series loaded at startup",
					"responses": map[string]interface{}{
						"200": jsonResponse("Successful response", object(map[string]interface{}{
							"series_id":      str,
							"table_label":    str,
							"samples":        integer,
							"first":          dateTime,
							"last":           dateTime,
							"span_volume_m3": number,
						})),
					},
				},
			},
			"/api/volume": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Volume over an interval",
					"description": "Integrates discharge over the interval clipped to the series coverage; the end instant is exclusive",
					"parameters":  intervalParams(),
					"responses": map[string]interface{}{
						"200": jsonResponse("Successful response", object(map[string]interface{}{
							"series_id":       str,
							"table_label":     str,
							"requested_start": dateTime,
							"requested_end":   dateTime,
							"effective_start": dateTime,
							"effective_end":   dateTime,
							"overlaps":        boolean,
							"volume_m3":       number,
							"report":          str,
						})),
						"400": map[string]interface{}{"description": "Invalid date"},
					},
				},
			},
			"/api/volume/hydro-years": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Volumes per hydrologic year",
					"description": "Splits the interval into hydrologic years (01 Nov to 31 Oct) and integrates each",
					"parameters":  append(intervalParams(), persistParam),
					"responses": map[string]interface{}{
						"200": jsonResponse("Successful response", listSchema(yearVolumeSchema())),
						"400": map[string]interface{}{"description": "Invalid date"},
						"503": unavailable,
					},
				},
			},
			"/api/volume/hydro-years/stored": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Stored hydrologic year volumes",
					"description": "Lists persisted hydrologic year volumes",
					"parameters": append([]map[string]interface{}{
						queryParam("series_id", "Filter by series", "string", ""),
						queryParam("table_label", "Filter by table label (empty for raw values)", "string", ""),
						queryParam("year", "Filter by hydrologic year", "integer", ""),
					}, paginationParams()...),
					"responses": map[string]interface{}{
						"200": jsonResponse("Successful response", paginatedSchema(storedYearSchema())),
						"503": unavailable,
					},
				},
			},
			"/api/volume/hydro-years/stored/{year}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "One stored hydrologic year volume",
					"description": "Defaults to the loaded series and table label",
					"parameters": []map[string]interface{}{
						{
							"name":     "year",
							"in":       "path",
							"required": true,
							"schema":   integer,
						},
						queryParam("series_id", "Series, defaults to the loaded one", "string", ""),
						queryParam("table_label", "Table label, defaults to the loaded one", "string", ""),
					},
					"responses": map[string]interface{}{
						"200": jsonResponse("Successful response", storedYearSchema()),
						"404": map[string]interface{}{"description": "Not stored"},
						"503": unavailable,
					},
				},
			},
			"/api/extremes": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Daily discharge extremes",
					"description": "Minimum and maximum discharge per calendar day; both interval ends are inclusive",
					"parameters":  append(intervalParams(), persistParam),
					"responses": map[string]interface{}{
						"200": jsonResponse("Successful response", listSchema(dayExtremeSchema())),
						"400": map[string]interface{}{"description": "Invalid date"},
						"503": unavailable,
					},
				},
			},
			"/api/extremes/stored": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Stored daily extremes",
					"description": "Lists persisted daily extremes",
					"parameters": append([]map[string]interface{}{
						queryParam("series_id", "Filter by series", "string", ""),
						queryParam("table_label", "Filter by table label (empty for raw values)", "string", ""),
						queryParam("start", "First day (YYYY-MM-DD)", "string", "date"),
						queryParam("end", "Last day (YYYY-MM-DD)", "string", "date"),
					}, paginationParams()...),
					"responses": map[string]interface{}{
						"200": jsonResponse("Successful response", paginatedSchema(storedExtremeSchema())),
						"503": unavailable,
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API and its database are reachable",
					"responses": map[string]interface{}{
						"200": jsonResponse("API is healthy", object(map[string]interface{}{
							"status":    str,
							"series_id": str,
							"timestamp": dateTime,
						})),
						"503": map[string]interface{}{"description": "Database unreachable"},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": str,
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(doc)
}
