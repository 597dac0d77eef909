package notification

import "html/template"

var templates = template.Must(template.New("email").Funcs(template.FuncMap{
	"yen": formatYen,
}).Parse(`
{{define "greeting"}}<p>Hello{{if .Name}} {{.Name}}{{end}},</p>{{end}}
{{define "link"}}{{if .ItemURL}}<p><a href="{{.ItemURL}}">View item</a></p>{{end}}{{end}}

{{define "item_approved"}}{{template "greeting" .}}
<p>Your item <strong>{{.ItemTitle}}</strong> passed review and is now listed.</p>
{{template "link" .}}{{end}}

{{define "item_rejected"}}{{template "greeting" .}}
<p>Your item <strong>{{.ItemTitle}}</strong> was not approved.</p>
{{if .Note}}<p>Reason: {{.Note}}</p>{{end}}{{end}}

{{define "lottery_won"}}{{template "greeting" .}}
<p>Congratulations! You were selected for <strong>{{.ItemTitle}}</strong>.</p>
<p>Please make sure your delivery address in your profile is up to date.</p>
{{template "link" .}}{{end}}

{{define "lottery_lost"}}{{template "greeting" .}}
<p>Thank you for requesting <strong>{{.ItemTitle}}</strong>. Unfortunately you were not selected this time.</p>{{end}}

{{define "payment_submitted"}}{{template "greeting" .}}
<p>A deposit of {{yen .Amount}} was submitted for <strong>{{.ItemTitle}}</strong> (payment {{.PaymentID}}).</p>
<p>Please review it in the admin console.</p>{{end}}

{{define "payment_approved"}}{{template "greeting" .}}
<p>Your payment of {{yen .Amount}} for <strong>{{.ItemTitle}}</strong> was approved.</p>
{{template "link" .}}{{end}}

{{define "payment_rejected"}}{{template "greeting" .}}
<p>Your payment of {{yen .Amount}} for <strong>{{.ItemTitle}}</strong> was rejected.</p>
{{if .Note}}<p>Reason: {{.Note}}</p>{{end}}{{end}}

{{define "item_shipped"}}{{template "greeting" .}}
<p><strong>{{.ItemTitle}}</strong> is on its way.</p>
{{if .TrackingNumber}}<p>Tracking number: {{.TrackingNumber}}</p>{{end}}
{{template "link" .}}{{end}}
`))
