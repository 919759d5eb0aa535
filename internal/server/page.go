package server

import (
	"html/template"
	"net/url"
	"strconv"

	"newsletter_dashboard/internal/dashboard"
	"newsletter_dashboard/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numbers = message.NewPrinter(language.English)

var pageFuncs = template.FuncMap{
	"spend":   dashboard.FormatSpend,
	"percent": dashboard.Percent,
	"hasPrice": func(p *float64) bool {
		return p != nil && *p > 0
	},
	"price": func(p *float64) string {
		return "$" + strconv.FormatFloat(*p, 'f', -1, 64) + "/mo"
	},
	"cost": func(c float64) string {
		return "$" + strconv.FormatFloat(c, 'f', -1, 64) + "/mo"
	},
	"hasSubscribers": func(n *int64) bool {
		return n != nil && *n > 0
	},
	// subscribers groups thousands: 600000 renders as 600,000.
	"subscribers": func(n *int64) string {
		return numbers.Sprintf("%d", *n)
	},
	"deletePath": func(id models.ID) string {
		return "/newsletters/" + url.PathEscape(id.String()) + "/delete"
	},
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Newsletter Dashboard</title></head>
<body>
{{if .Loading}}
<main class="loading">Loading...</main>
{{else}}
<main>
<h1>Newsletter Dashboard</h1>
{{range .Errors}}
<div class="error" data-collection="{{.Collection}}">Could not load {{.Collection}}: {{.Message}}</div>
{{end}}
<section class="metrics">
	<div class="card" id="monthly-spend"><h2>Monthly Spend</h2><p>{{spend .Metrics.TotalSpend}}</p></div>
	<div class="card" id="low-engagement-paid"><h2>Low Engagement Paid</h2><p>{{.Metrics.LowEngagementPaid}}</p></div>
	<div class="card" id="high-engagement-free"><h2>High Engagement Free</h2><p>{{.Metrics.HighEngagementFree}}</p></div>
</section>
<section class="recommendations">
	<h2>Recommended Newsletters</h2>
	{{range .Recommendations}}
	<article>
		<div class="name">{{.Name}}</div>
		<div class="author">by {{.Author}}</div>
		<span class="badge">{{.Category}}</span>{{if hasPrice .Price}} <span class="badge">{{price .Price}}</span>{{end}}
		<p>{{.Description}}</p>
		<div class="match">{{.MatchPercent}}% match</div>
		{{if hasSubscribers .Subscribers}}<div class="subscribers">{{subscribers .Subscribers}} subscribers</div>{{end}}
		{{if .URL}}<a href="{{.URL}}" target="_blank" rel="noopener">Learn More</a>{{end}}
	</article>
	{{end}}
</section>
<section class="newsletters">
	<h2>Your Newsletters</h2>
	<form method="get" action="/"><input name="s" value="{{.Search}}" placeholder="Search newsletters..."></form>
	<form method="post" action="/newsletters" class="add-newsletter">
		<input name="name" placeholder="Name" required>
		<input name="author" placeholder="Author" required>
		<input name="category" placeholder="Category">
		<label><input type="checkbox" name="paid" value="true"> Paid</label>
		<input name="cost" type="number" step="0.01" min="0" value="0">
		<input name="engagement" type="number" step="0.01" min="0" max="1" value="0">
		<button type="submit">Add Newsletter</button>
	</form>
	{{range .Newsletters}}
	<article data-id="{{.ID}}">
		<div class="name">{{.Name}}</div>
		<div class="author">by {{.Author}}</div>
		<span class="badge">{{if .Paid}}Paid{{else}}Free{{end}}</span> <span class="badge">{{.Category}}</span>
		{{if .Paid}}<div class="cost">{{cost .Cost}}</div>{{end}}
		<div class="engagement {{.Tier}}">{{percent .Engagement}}% engagement</div>
		<form method="post" action="{{deletePath .ID}}" class="delete"><button type="submit" aria-label="Delete {{.Name}}">Delete</button></form>
	</article>
	{{end}}
</section>
</main>
{{end}}
</body>
</html>
`
