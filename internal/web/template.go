package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/pinscribe/internal/pins"
	"github.com/sweeney/pinscribe/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"isOutput": func(m pins.Mode) bool {
		return m == pins.ModeOutput
	},
	"levelClass": func(l pins.Level) string {
		if l == pins.High {
			return "high"
		}
		return "low"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>PinScribe</title>
<style>
body { font-family: monospace; max-width: 720px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.high { color: green; font-weight: bold; }
.low { color: #888; }
.held { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>PinScribe</h1>

<h2>Pins</h2>
{{if .Pins}}<table>
<tr><th>Pin</th><th>Name</th><th>Mode</th><th>Level</th><th>Press</th><th>Release</th><th>Double</th><th>Long</th></tr>
{{range .Pins}}<tr>
<td><a href="/pins/{{.Pin}}">{{.Pin}}</a></td>
<td>{{.Name}}</td>
<td>{{.Mode}}</td>
{{if isOutput .Mode}}<td class="{{levelClass .Output}}">{{.Output}}{{if .Blinking}} (blinking){{end}}</td>
{{else}}<td class="{{if .Held}}held{{else}}{{levelClass .Input}}{{end}}">{{if .Held}}pressed{{else}}{{.Input}}{{end}}</td>
{{end}}{{with index $.Counts .Pin}}<td>{{.Press}}</td><td>{{.Release}}</td><td>{{.DoublePress}}</td><td>{{.LongPress}}</td>{{end}}
</tr>
{{end}}</table>{{else}}<p>No pins configured.</p>{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Backend</th><td>{{.Config.Backend}}</td></tr>
<tr><th>Layout</th><td>{{if .Config.ConfigPath}}{{.Config.ConfigPath}}{{else}}built-in{{end}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
