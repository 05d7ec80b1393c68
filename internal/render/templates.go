package render

import "html/template"

var cardTemplates = template.Must(template.New("cards").Parse(`
{{define "card"}}<div class="supplier-card" data-supplier-id="{{.ID}}">
  <div class="supplier-header">
    <h3>{{.Name}}</h3>
    <div class="score-badge {{.Bucket}}">{{.Score}}</div>
  </div>
  <div class="supplier-location"><i class="fas fa-map-marker-alt"></i> {{.Location}}</div>
  <div class="supplier-metrics">
    <div class="metric metric-renewable"><i class="fas fa-leaf"></i><span>Renewable energy:</span><strong>{{.Renewable}}</strong></div>
    <div class="metric metric-carbon"><i class="fas fa-cloud"></i><span>Carbon footprint:</span><strong>{{.Carbon}}</strong></div>
    <div class="metric metric-water"><i class="fas fa-tint"></i><span>Water consumption:</span><strong>{{.Water}}</strong></div>
    <div class="metric metric-transport"><i class="fas fa-truck"></i><span>Transport:</span><strong>{{.Transport}}</strong></div>
  </div>
  <div class="supplier-certifications">
    <h4>Certifications:</h4>
    <div class="certifications-container">
      {{- range .Certifications}}<span class="certification-badge">{{.}}</span>{{else}}<span class="certification-badge empty">No certification</span>{{end -}}
    </div>
  </div>
  {{- if .DetailsURL}}
  <a href="{{.DetailsURL}}" class="btn secondary-btn">View details</a>
  {{- end}}
</div>
{{end}}

{{define "top-card"}}<div class="top-supplier-card" data-rank="{{.Rank}}">
  <div class="top-supplier-header">
    <span class="medal">{{.Medal}}</span>
    <h4>{{.Name}}</h4>
    <div class="score-badge {{.Bucket}}" style="background-color: {{.Fill}}">{{.Score}}</div>
  </div>
  <div class="top-supplier-metrics">
    <div class="metric metric-renewable"><i class="fas fa-leaf"></i><span>Renewable energy:</span><strong>{{.Renewable}}</strong></div>
    <div class="metric metric-carbon"><i class="fas fa-cloud"></i><span>Carbon footprint:</span><strong>{{.Carbon}}</strong></div>
  </div>
</div>
{{end}}

{{define "diagnostic"}}<div class="supplier-card error-card">
  <div class="error-message">
    <i class="fas fa-exclamation-triangle"></i>
    <p>Some suppliers could not be displayed</p>
    <details>
      <summary>Technical details</summary>
      <code>{{.}}</code>
    </details>
  </div>
</div>
{{end}}

{{define "empty"}}<div class="no-results">
  <i class="fas fa-search"></i>
  <p>No supplier matches your criteria. Please adjust your filters.</p>
</div>
{{end}}

{{define "failed"}}<div class="error-message grid-error">
  <i class="fas fa-exclamation-triangle"></i>
  <p>{{.}}</p>
  <p>Please contact the system administrator.</p>
</div>
{{end}}
`))
