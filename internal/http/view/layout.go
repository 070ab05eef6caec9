package view

import (
	"bytes"
	"html/template"
	"time"
)

// LinkRow is one short link as shown in a listing.
type LinkRow struct {
	ShortCode   string
	ShortURL    string
	OriginalURL string
	Clicks      int64
	CreatedAt   time.Time
}

var funcs = template.FuncMap{
	"rank": func(offset, i int) int { return offset + i + 1 },
	"date": func(t time.Time) string { return t.UTC().Format("Jan 2, 2006 15:04") },
	"prev": func(page int) int { return page - 1 },
	"next": func(page int) int { return page + 1 },
}

const layoutSrc = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="utf-8" />
	<meta name="viewport" content="width=device-width, initial-scale=1" />
	<title>{{block "title" .}}ShortLink{{end}}</title>
	<style>
		:root {
			--bg: #090a0f;
			--card: rgba(255, 255, 255, 0.05);
			--border: rgba(255, 255, 255, 0.15);
			--text: #e7ecff;
			--muted: #a1acc5;
			--accent: #7dd3fc;
			--accent-strong: #38bdf8;
			--danger: #fca5a5;
			font-family: "Inter", -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
		}
		* { box-sizing: border-box; }
		body {
			margin: 0;
			min-height: 100vh;
			background: radial-gradient(circle at 20% 20%, #111827, #030712 60%);
			color: var(--text);
		}
		nav {
			display: flex;
			gap: 18px;
			justify-content: center;
			padding: 24px 0 0;
		}
		nav a { color: var(--muted); text-decoration: none; }
		nav a:hover { color: var(--accent); }
		main {
			width: min(860px, 92vw);
			margin: 32px auto;
		}
		.card {
			background: var(--card);
			border: 1px solid var(--border);
			border-radius: 18px;
			padding: 32px;
			margin-bottom: 24px;
			box-shadow: 0 45px 100px rgba(0,0,0,0.35);
			backdrop-filter: blur(18px);
		}
		h1 { font-size: 1.5rem; margin: 0 0 6px; }
		h2 { font-size: 1.1rem; margin: 0 0 16px; }
		p { color: var(--muted); margin-top: 0; }
		form { display: flex; gap: 12px; flex-wrap: wrap; }
		input[type=text] {
			flex: 1;
			min-width: 240px;
			height: 48px;
			padding: 0 16px;
			border-radius: 999px;
			border: 1px solid var(--border);
			background: rgba(0,0,0,0.3);
			color: var(--text);
		}
		button, a.button {
			display: inline-flex;
			align-items: center;
			justify-content: center;
			padding: 0 28px;
			height: 48px;
			border: 0;
			border-radius: 999px;
			background: linear-gradient(120deg, var(--accent), var(--accent-strong));
			color: #050708;
			font-weight: 600;
			text-decoration: none;
			cursor: pointer;
		}
		.error { color: var(--danger); margin-top: 10px; font-size: 0.9rem; }
		.message {
			margin: 24px 0 0;
			padding: 18px;
			border-radius: 14px;
			background: rgba(125, 211, 252, 0.07);
			border: 1px solid rgba(125, 211, 252, 0.25);
			word-break: break-all;
		}
		.label {
			font-size: 0.82rem;
			text-transform: uppercase;
			letter-spacing: 0.08em;
			color: var(--muted);
		}
		table { width: 100%; border-collapse: collapse; }
		th, td { text-align: left; padding: 10px 8px; border-bottom: 1px solid var(--border); }
		td.url { word-break: break-all; color: var(--muted); }
		a { color: var(--accent); }
		.totals { display: flex; gap: 16px; flex-wrap: wrap; }
		.totals .card { flex: 1; min-width: 180px; text-align: center; }
		.totals strong { display: block; font-size: 1.8rem; }
		.pager { display: flex; justify-content: space-between; align-items: center; margin-top: 18px; }
	</style>
</head>
<body>
	<nav><a href="/">Shorten</a><a href="/stats">Statistics</a></nav>
	<main>{{template "content" .}}</main>
</body>
</html>
{{end}}`

func mustPage(name, content string) *template.Template {
	t := template.Must(template.New(name).Funcs(funcs).Parse(layoutSrc))
	return template.Must(t.Parse(content))
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
