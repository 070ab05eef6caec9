package view

// IndexPageData feeds the shorten form page.
type IndexPageData struct {
	// Input echoes the submitted value back into the form.
	Input   string
	Error   string
	Message string
	Result  *LinkRow
	Recent  []LinkRow
}

var indexPageTmpl = mustPage("index_page", `
{{define "title"}}ShortLink · Shorten a URL{{end}}
{{define "content"}}
<div class="card">
	<h1>Shorten a long URL</h1>
	<p>Paste a link and get a short one back.</p>
	<form method="POST" action="/">
		<input type="text" name="original_url" value="{{.Input}}" placeholder="https://example.com/very/long/url" autofocus />
		<button type="submit">Shorten</button>
	</form>
	{{if .Error}}<div class="error">{{.Error}}</div>{{end}}

	{{if .Result}}
	<div class="message">
		<div class="label">{{.Message}}</div>
		<p><a href="{{.Result.ShortURL}}">{{.Result.ShortURL}}</a></p>
		<div>{{.Result.OriginalURL}}</div>
	</div>
	{{end}}
</div>

{{if .Recent}}
<div class="card">
	<h2>Recent links</h2>
	<table>
		<tr><th>Short URL</th><th>Original URL</th><th>Clicks</th></tr>
		{{range .Recent}}
		<tr>
			<td><a href="{{.ShortURL}}">{{.ShortCode}}</a></td>
			<td class="url">{{.OriginalURL}}</td>
			<td>{{.Clicks}}</td>
		</tr>
		{{end}}
	</table>
</div>
{{end}}
{{end}}`)

// RenderIndexPage expands the shorten form page.
func RenderIndexPage(data IndexPageData) (string, error) {
	return render(indexPageTmpl, data)
}
