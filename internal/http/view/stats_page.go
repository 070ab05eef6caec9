package view

// StatsPageData feeds the statistics page.
type StatsPageData struct {
	TotalLinks    int64
	TotalClicks   int64
	AverageClicks float64
	Links         []LinkRow
	Page          int
	LastPage      int
	// Offset is the rank of the first row minus one.
	Offset int
}

// HasPrev reports whether a previous page exists.
func (d StatsPageData) HasPrev() bool { return d.Page > 1 }

// HasNext reports whether a following page exists.
func (d StatsPageData) HasNext() bool { return d.Page < d.LastPage }

var statsPageTmpl = mustPage("stats_page", `
{{define "title"}}ShortLink · Statistics{{end}}
{{define "content"}}
<div class="totals">
	<div class="card"><span class="label">Total URLs</span><strong>{{.TotalLinks}}</strong></div>
	<div class="card"><span class="label">Total clicks</span><strong>{{.TotalClicks}}</strong></div>
	<div class="card"><span class="label">Average clicks</span><strong>{{printf "%.2f" .AverageClicks}}</strong></div>
</div>

<div class="card">
	<h2>Top links</h2>
	{{if .Links}}
	<table>
		<tr><th>#</th><th>Short URL</th><th>Original URL</th><th>Clicks</th><th>Created</th></tr>
		{{range $i, $link := .Links}}
		<tr>
			<td>{{rank $.Offset $i}}</td>
			<td><a href="{{$link.ShortURL}}">{{$link.ShortCode}}</a></td>
			<td class="url">{{$link.OriginalURL}}</td>
			<td>{{$link.Clicks}}</td>
			<td>{{date $link.CreatedAt}}</td>
		</tr>
		{{end}}
	</table>
	{{else}}
	<p>No links yet.</p>
	{{end}}

	<div class="pager">
		{{if .HasPrev}}<a class="button" href="/stats?page={{.Page | prev}}">Previous</a>{{else}}<span></span>{{end}}
		<span class="label">Page {{.Page}} of {{.LastPage}}</span>
		{{if .HasNext}}<a class="button" href="/stats?page={{.Page | next}}">Next</a>{{else}}<span></span>{{end}}
	</div>
</div>
{{end}}`)

// RenderStatsPage expands the statistics page.
func RenderStatsPage(data StatsPageData) (string, error) {
	if data.LastPage < 1 {
		data.LastPage = 1
	}
	return render(statsPageTmpl, data)
}
