package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/a2a"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/audit"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/registry"
)

const pagesLogPrefix = "server:pages"

// recentAuditLimit is how many audit entries the home page shows.
const recentAuditLimit = 20

// homePageTemplate is the HTML for the agent home page (white bg, black/blue text).
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Manifest.AgentName}}</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2, h3 { color: #0066cc; }
    .status-healthy { color: #0066cc; font-weight: bold; }
    .status-unhealthy { color: #cc0000; font-weight: bold; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .stat { font-weight: bold; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 1rem; }
    section { margin-bottom: 2rem; }
    .error { color: #cc0000; }
  </style>
</head>
<body>
  <h1>{{.Manifest.AgentName}}</h1>
  <p class="meta">{{.Manifest.Description}}</p>
  <p class="meta">Agent <code>{{.Manifest.AgentID}}</code> version {{.Manifest.Version}}, {{.Manifest.Protocol}} protocol {{.Manifest.ProtocolVersion}}.</p>

  <section>
    <h2>Health</h2>
    <p>Status: <span class="status-{{.Health.Status}}">{{.Health.Status}}</span></p>
    <p>Handler: {{if .Health.Checks.Handler}}<span class="stat">initialized</span>{{else}}<span class="error">not initialized</span>{{end}}</p>
    {{with .Comms}}<p>COMMS: <span class="{{.Class}}">{{.Label}}</span></p>{{end}}
    {{with .Database}}<p>Database: <span class="{{.Class}}">{{.Label}}</span></p>{{end}}
    <p>Timestamp: {{.Health.Timestamp}}</p>
  </section>

  <section>
    <h2>Capabilities</h2>
    <p>Total capabilities: <span class="stat">{{len .Manifest.Capabilities}}</span></p>
    {{if not .Manifest.Capabilities}}
    <p>No capabilities registered.</p>
    {{else}}
    <table>
      <thead>
        <tr><th>Capability</th><th>Name</th><th>Type</th><th>Version</th></tr>
      </thead>
      <tbody>
        {{range .Manifest.Capabilities}}
        <tr>
          <td><a href="/capability/{{.ID}}">{{.ID}}</a></td>
          <td>{{.Name}}</td>
          <td>{{.Type}}</td>
          <td>{{.Version}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>

  {{if .AuditEnabled}}
  <section>
    <h2>Recent requests</h2>
    {{if .AuditError}}
    <p class="error">Could not load audit log: {{.AuditError}}</p>
    {{else if not .Audit}}
    <p>No requests recorded.</p>
    {{else}}
    <table>
      <thead>
        <tr><th>Time</th><th>Capability</th><th>Sender</th><th>Status</th><th>Elapsed (ms)</th></tr>
      </thead>
      <tbody>
        {{range .Audit}}
        <tr>
          <td>{{.Timestamp.Format "2006-01-02 15:04:05"}}</td>
          <td>{{.CapabilityID}}</td>
          <td>{{.SenderAgentID}}</td>
          <td>{{.StatusCode}}{{if .Error}} <span class="error">{{.Error}}</span>{{end}}</td>
          <td>{{.ElapsedMs}}</td>
        </tr>
        {{end}}
      </tbody>
    </table>
    {{end}}
  </section>
  {{end}}
</body>
</html>
`

// capabilityDetailPageTemplate is the HTML for a single capability detail page.
const capabilityDetailPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Capability.ID}} – {{.AgentID}}</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    a { color: #0066cc; }
    h1, h2, h3 { color: #0066cc; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; vertical-align: top; }
    th { background: #f0f4f8; color: #0066cc; width: 140px; }
    .meta { color: #333; font-size: 0.9rem; margin-top: 0.5rem; }
    section { margin-bottom: 2rem; }
    pre { background: #f5f5f5; padding: 0.75rem; overflow-x: auto; font-size: 0.85rem; margin: 0.25rem 0; border: 1px solid #eee; }
    .back { margin-bottom: 1rem; }
    .actions { margin: 1rem 0; }
    .btn { display: inline-block; padding: 0.5rem 1rem; background: #0066cc; color: #fff; text-decoration: none; border-radius: 4px; }
    .btn:hover { background: #0052a3; }
  </style>
</head>
<body>
  <p class="back"><a href="/">← Back to agent</a></p>
  <h1>{{.Capability.ID}}</h1>
  {{if .Capability.Description}}<p class="meta">{{.Capability.Description}}</p>{{end}}
  <p class="actions"><a href="/capability/{{.Capability.ID}}/docs" class="btn">View API (Swagger)</a></p>

  <section>
    <h2>Details</h2>
    <table>
      <tr><th>Capability</th><td>{{.Capability.ID}}</td></tr>
      <tr><th>Name</th><td>{{.Capability.Name}}</td></tr>
      <tr><th>Type</th><td>{{.Capability.Type}}</td></tr>
      <tr><th>Version</th><td>{{.Capability.Version}}</td></tr>
      <tr><th>Endpoint</th><td><code>POST {{.Endpoint}}</code></td></tr>
      {{if .Capability.InputSchema.Required}}
      <tr><th>Required</th><td>{{range .Capability.InputSchema.Required}}{{.}} {{end}}</td></tr>
      {{end}}
    </table>
  </section>

  <section>
    <h2>Schemas</h2>
    <p><strong>Input:</strong></p><pre>{{json .Capability.InputSchema}}</pre>
    <p><strong>Output:</strong></p><pre>{{json .Capability.OutputSchema}}</pre>
  </section>
</body>
</html>
`

// homeData is the data passed to the home page template.
type homeData struct {
	Manifest     *registry.Manifest
	Health       *healthOutput
	Comms        *checkView
	Database     *checkView
	AuditEnabled bool
	Audit        []audit.Entry
	AuditError   string
}

// checkView renders one optional health check.
type checkView struct {
	Label string
	Class string
}

func newCheckView(check *bool, okLabel, failLabel string) *checkView {
	if check == nil {
		return nil
	}
	if *check {
		return &checkView{Label: okLabel, Class: "stat"}
	}
	return &checkView{Label: failLabel, Class: "error"}
}

// handleHome returns an HTTP handler for the agent home page.
func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()

		h := s.health(ctx)
		data := homeData{
			Manifest:     s.reg.Manifest(),
			Health:       h,
			Comms:        newCheckView(h.Checks.Comms, "OK", "Disconnected"),
			Database:     newCheckView(h.Checks.Database, "OK", "Failed"),
			AuditEnabled: s.auditLog != nil,
		}
		if s.auditLog != nil {
			entries, err := s.auditLog.Recent(ctx, recentAuditLimit)
			if err != nil {
				data.AuditError = err.Error()
			} else {
				data.Audit = entries
			}
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", pagesLogPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// capabilityDetailData is the data passed to the capability detail page template.
type capabilityDetailData struct {
	AgentID    string
	Capability a2a.Capability
	Endpoint   string
}

// openAPI3 types for generating specs from a capability.
type openAPI3Spec struct {
	OpenAPI string                      `json:"openapi"`
	Info    openAPI3Info                `json:"info"`
	Paths   map[string]openAPI3PathItem `json:"paths"`
}

type openAPI3Info struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version"`
}

type openAPI3PathItem struct {
	Post *openAPI3Operation `json:"post,omitempty"`
}

type openAPI3Operation struct {
	Summary     string                      `json:"summary"`
	Description string                      `json:"description,omitempty"`
	OperationID string                      `json:"operationId"`
	RequestBody *openAPI3RequestBody        `json:"requestBody,omitempty"`
	Responses   map[string]openAPI3Response `json:"responses"`
}

type openAPI3RequestBody struct {
	Content map[string]openAPI3MediaType `json:"content"`
}

type openAPI3Response struct {
	Description string                       `json:"description"`
	Content     map[string]openAPI3MediaType `json:"content,omitempty"`
}

type openAPI3MediaType struct {
	Schema map[string]interface{} `json:"schema,omitempty"`
}

// schemaMap renders a capability schema as a generic JSON object.
func schemaMap(s a2a.Schema) map[string]interface{} {
	out := map[string]interface{}{"type": "object"}
	data, err := json.Marshal(s)
	if err != nil {
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]interface{}{"type": "object"}
	}
	return out
}

// buildOpenAPISpec builds an OpenAPI 3.0 spec with the capability's invoke
// endpoint as its single path.
func buildOpenAPISpec(c a2a.Capability, endpoint string) *openAPI3Spec {
	invokeResult := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"success":            map[string]interface{}{"type": "boolean"},
			"result":             schemaMap(c.OutputSchema),
			"error":              map[string]interface{}{"type": "string"},
			"processing_time_ms": map[string]interface{}{"type": "integer"},
			"timestamp":          map[string]interface{}{"type": "string"},
		},
		"required": []string{"success", "processing_time_ms", "timestamp"},
	}
	desc := c.Description
	if desc == "" {
		desc = "Capability " + c.ID
	}
	return &openAPI3Spec{
		OpenAPI: "3.0.0",
		Info: openAPI3Info{
			Title:       c.ID,
			Description: desc,
			Version:     c.Version,
		},
		Paths: map[string]openAPI3PathItem{
			endpoint: {
				Post: &openAPI3Operation{
					Summary:     c.Name,
					Description: c.Description,
					OperationID: c.ID,
					RequestBody: &openAPI3RequestBody{
						Content: map[string]openAPI3MediaType{
							"application/json": {Schema: schemaMap(c.InputSchema)},
						},
					},
					Responses: map[string]openAPI3Response{
						"200": {
							Description: "Invocation outcome",
							Content: map[string]openAPI3MediaType{
								"application/json": {Schema: invokeResult},
							},
						},
					},
				},
			},
		},
	}
}

// swaggerUIPage is the HTML that embeds Swagger UI from CDN and loads the OpenAPI spec.
const swaggerUIPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>API – {{.Cap}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      SwaggerUIBundle({
        url: "{{.SpecURL}}",
        dom_id: "#swagger-ui",
        presets: [
          SwaggerUIBundle.presets.apis,
          SwaggerUIBundle.SwaggerUIStandalonePreset
        ]
      });
    };
  </script>
</body>
</html>
`

// handleCapabilityDetail returns an HTTP handler for the capability detail
// page, its OpenAPI spec and Swagger docs.
func (s *Server) handleCapabilityDetail() http.HandlerFunc {
	tmpl := template.Must(template.New("capabilityDetail").Funcs(template.FuncMap{
		"json": func(v interface{}) string {
			b, err := json.MarshalIndent(v, "", "  ")
			if err != nil {
				return fmt.Sprintf("%v", v)
			}
			return string(b)
		},
	}).Parse(capabilityDetailPageTemplate))
	swaggerTmpl := template.Must(template.New("swagger").Parse(swaggerUIPage))
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		c, ok := s.reg.Get(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		endpoint := s.reg.InvokeEndpoint(c.ID)

		switch chi.URLParam(r, "page") {
		case "openapi.json":
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Cache-Control", "public, max-age=60")
			if err := json.NewEncoder(w).Encode(buildOpenAPISpec(c, endpoint)); err != nil {
				slog.Error(fmt.Sprintf("%s - openapi json encode: %v", pagesLogPrefix, err))
			}
			return
		case "docs":
			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}
			specURL := scheme + "://" + r.Host + "/capability/" + url.PathEscape(c.ID) + "/openapi.json"
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			if err := swaggerTmpl.Execute(w, map[string]string{"Cap": c.ID, "SpecURL": specURL}); err != nil {
				slog.Error(fmt.Sprintf("%s - swagger template execute: %v", pagesLogPrefix, err))
			}
			return
		case "":
		default:
			http.NotFound(w, r)
			return
		}

		data := capabilityDetailData{AgentID: s.reg.AgentID(), Capability: c, Endpoint: endpoint}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, data); err != nil {
			slog.Error(fmt.Sprintf("%s - capability detail template execute: %v", pagesLogPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
