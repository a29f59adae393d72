package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dmarques/board-monitor/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": formatUptime,
	"volts": func(v float64) string {
		return fmt.Sprintf("%.2fV", v)
	},
}).Parse(indexHTML))

func formatUptime(d time.Duration) string {
	d = d.Truncate(time.Second)
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd %s", int(d.Hours())/24, formatUptime(d%(24*time.Hour)))
	case d >= time.Hour:
		return fmt.Sprintf("%dh %dm %ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	case d >= time.Minute:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Board Monitor</title>
<style>
body { font-family: monospace; max-width: 640px; margin: 1.5em auto; padding: 0 1em; background: #fafafa; }
h1 { font-size: 1.3em; border-bottom: 2px solid #333; padding-bottom: 4px; }
h2 { font-size: 1.05em; margin-top: 1.2em; }
table { border-collapse: collapse; width: 100%; }
th, td { text-align: left; padding: 3px 10px; border-bottom: 1px solid #ccc; }
th { width: 45%; font-weight: normal; color: #555; }
.idle { color: #2a7; font-weight: bold; }
.active { color: #c22; font-weight: bold; }
.connected { color: #2a7; }
.disconnected { color: #c22; }
</style>
</head>
<body>
<h1>Board Monitor</h1>

<h2>Alarm</h2>
<table>
<tr><th>State</th><td class="{{if eq (printf "%s" .Alarm) "ACTIVE"}}active{{else}}idle{{end}}">{{.Alarm}}</td></tr>
<tr><th>Activations</th><td>{{.Transitions.Activations}}</td></tr>
<tr><th>Clears</th><td>{{.Transitions.Clears}}</td></tr>
</table>

<h2>Sensors</h2>
<table>
{{if .HaveSample}}<tr><th>Joystick X</th><td>{{volts .LastSample.X}}</td></tr>
<tr><th>Joystick Y</th><td>{{volts .LastSample.Y}}</td></tr>
<tr><th>Microphone</th><td>{{volts .LastSample.Mic}}</td></tr>{{else}}<tr><th>Joystick</th><td>no samples yet</td></tr>{{end}}
<tr><th>Samples sent</th><td>{{.SamplesSent}}</td></tr>
<tr><th>Samples dropped</th><td>{{.SamplesDropped}}</td></tr>
<tr><th>Button presses</th><td>{{.Presses}}</td></tr>
<tr><th>Self-test</th><td>{{if .SelfTestDone}}done{{else}}running{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} / {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Sample period</th><td>{{.Config.SampleMs}}ms</td></tr>
<tr><th>Button poll</th><td>{{.Config.ButtonMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Threshold</th><td>{{volts .Config.Threshold}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
