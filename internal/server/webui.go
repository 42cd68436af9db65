package server

import (
	"html/template"
	"net/http"

	"github.com/zate/searchbar/internal/db"
	"github.com/zate/searchbar/internal/search"
	"github.com/zate/searchbar/internal/view"
)

// registerWebUIRoutes adds the admin web UI routes.
func (s *Server) registerWebUIRoutes() {
	s.mux.HandleFunc("GET /admin", s.handleAdminDashboard)
	s.mux.HandleFunc("GET /admin/parse", s.handleParseBrowser)
}

// --- Dashboard ---

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	type searchRow struct {
		ID        string
		Name      string
		Query     string
		Filters   int
		Problems  []view.Problem
		UpdatedAt string
	}

	searches, err := s.store.ListSearches(db.ListOptions{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var rows []searchRow
	invalid := 0
	for _, saved := range searches {
		row := searchRow{
			ID:        saved.ID,
			Name:      saved.Name,
			Query:     saved.Query,
			UpdatedAt: saved.UpdatedAt.Format("2006-01-02 15:04"),
		}
		tokens, err := search.Parse(saved.Query, s.parser)
		if err != nil {
			row.Problems = []view.Problem{{Text: saved.Query, Message: err.Error()}}
		} else {
			summary := view.Compose(saved.Query, tokens)
			row.Filters = summary.Filters
			row.Problems = summary.Problems
		}
		if len(row.Problems) > 0 {
			invalid++
		}
		rows = append(rows, row)
	}

	data := map[string]any{
		"SearchCount":  len(searches),
		"InvalidCount": invalid,
		"KeyCount":     len(s.parser.Keys),
		"Searches":     rows,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = dashboardTmpl.Execute(w, data)
}

// --- Parse browser ---

func (s *Server) handleParseBrowser(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	type tokenRow struct {
		Depth   int
		Type    search.TokenType
		Text    string
		Start   int
		End     int
		Invalid *search.Invalid
	}

	var rows []tokenRow
	var walk func([]search.Token, int)
	walk = func(tokens []search.Token, depth int) {
		for _, tok := range tokens {
			if sp, ok := tok.(*search.Spaces); ok && sp.Value == "" {
				continue
			}
			loc := tok.Location()
			rows = append(rows, tokenRow{
				Depth:   depth,
				Type:    tok.Type(),
				Text:    tok.Text(),
				Start:   loc.Start.Offset,
				End:     loc.End.Offset,
				Invalid: search.InvalidOf(tok),
			})
			if g, ok := tok.(*search.LogicGroup); ok {
				walk(g.Inner, depth+1)
			}
		}
	}

	data := map[string]any{"Query": query}
	if query != "" {
		tokens, err := search.Parse(query, s.parser)
		if err != nil {
			data["Error"] = err.Error()
		} else {
			walk(tokens, 0)
			data["Tokens"] = rows
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = parseBrowserTmpl.Execute(w, data)
}

// --- Templates ---

const baseCSS = `
<style>
* { box-sizing: border-box; margin: 0; padding: 0; }
body { font-family: system-ui, -apple-system, sans-serif; background: #f8f9fa; color: #1a1a2e; }
nav { background: #1a1a2e; padding: 12px 24px; display: flex; gap: 24px; align-items: center; }
nav a { color: #e0e0e0; text-decoration: none; font-size: 14px; }
nav a:hover, nav a.active { color: #fff; }
nav .brand { font-weight: 700; font-size: 18px; color: #fff; margin-right: 24px; }
.container { max-width: 1100px; margin: 24px auto; padding: 0 24px; }
.cards { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 16px; margin-bottom: 24px; }
.card { background: #fff; border-radius: 8px; padding: 20px; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
.card .label { font-size: 12px; text-transform: uppercase; color: #666; margin-bottom: 4px; }
.card .value { font-size: 28px; font-weight: 700; }
table { width: 100%; border-collapse: collapse; background: #fff; border-radius: 8px; overflow: hidden; box-shadow: 0 1px 3px rgba(0,0,0,0.1); }
th { background: #f0f0f0; text-align: left; padding: 10px 14px; font-size: 12px; text-transform: uppercase; color: #666; }
td { padding: 10px 14px; border-top: 1px solid #eee; font-size: 14px; }
tr:hover td { background: #f8f8ff; }
.type { display: inline-block; background: #e8ffe8; color: #228822; padding: 2px 8px; border-radius: 10px; font-size: 11px; }
.invalid { color: #ef4444; font-weight: 600; }
.ok { color: #22c55e; font-weight: 600; }
h2 { margin-bottom: 16px; }
.search { margin-bottom: 16px; }
.search input { padding: 8px 14px; border: 1px solid #ddd; border-radius: 6px; width: 600px; font-size: 14px; font-family: monospace; }
.search button { padding: 8px 16px; background: #1a1a2e; color: #fff; border: none; border-radius: 6px; cursor: pointer; margin-left: 8px; }
.id, code { font-family: monospace; font-size: 12px; color: #666; }
.empty { text-align: center; padding: 40px; color: #999; }
</style>
`

const navHTML = `
<nav>
<span class="brand">searchbar</span>
<a href="/admin">Saved searches</a>
<a href="/admin/parse">Parse</a>
</nav>
`

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html><head><title>searchbar - Saved searches</title>` + baseCSS + `</head><body>
` + navHTML + `
<div class="container">
<div class="cards">
<div class="card"><div class="label">Saved searches</div><div class="value">{{.SearchCount}}</div></div>
<div class="card"><div class="label">With problems</div><div class="value">{{.InvalidCount}}</div></div>
<div class="card"><div class="label">Known keys</div><div class="value">{{.KeyCount}}</div></div>
</div>
<h2>Saved searches</h2>
{{if .Searches}}
<table>
<thead><tr><th>ID</th><th>Name</th><th>Query</th><th>Filters</th><th>Status</th><th>Updated</th></tr></thead>
<tbody>
{{range .Searches}}
<tr>
<td class="id">{{.ID}}</td>
<td>{{.Name}}</td>
<td><a href="/admin/parse?q={{.Query}}"><code>{{.Query}}</code></a></td>
<td>{{.Filters}}</td>
<td>{{if .Problems}}{{range .Problems}}<div class="invalid">{{.Text}}: {{.Message}}</div>{{end}}{{else}}<span class="ok">OK</span>{{end}}</td>
<td>{{.UpdatedAt}}</td>
</tr>
{{end}}
</tbody>
</table>
{{else}}<div class="empty">No saved searches. Use <code>searchbar save</code> to add one.</div>{{end}}
</div>
</body></html>`))

var parseBrowserTmpl = template.Must(template.New("parse").Parse(`<!DOCTYPE html>
<html><head><title>searchbar - Parse</title>` + baseCSS + `</head><body>
` + navHTML + `
<div class="container">
<h2>Parse</h2>
<div class="search">
<form method="GET" action="/admin/parse">
<input type="text" name="q" value="{{.Query}}" placeholder="browser:Chrome age:-24h">
<button type="submit">Parse</button>
</form>
</div>
{{if .Error}}<div class="invalid">{{.Error}}</div>{{end}}
{{if .Tokens}}
<table>
<thead><tr><th>Depth</th><th>Type</th><th>Text</th><th>Location</th><th>Problem</th></tr></thead>
<tbody>
{{range .Tokens}}
<tr>
<td>{{.Depth}}</td>
<td><span class="type">{{.Type}}</span></td>
<td><code>{{.Text}}</code></td>
<td>{{.Start}}-{{.End}}</td>
<td>{{if .Invalid}}<span class="invalid">{{.Invalid.Type}}</span> {{.Invalid.Reason}}{{end}}</td>
</tr>
{{end}}
</tbody>
</table>
{{else}}{{if not .Error}}<div class="empty">Enter a query to see its tokens.</div>{{end}}{{end}}
</div>
</body></html>`))
