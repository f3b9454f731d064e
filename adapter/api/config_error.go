package api

import (
	"html/template"
	"net/http"
)

var configErrorPage = template.Must(template.New("config-error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Configuration error</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 40rem; margin: 4rem auto; padding: 0 1rem; color: #1f2937; }
h1 { color: #b91c1c; }
code { background: #f3f4f6; padding: 0.1rem 0.3rem; border-radius: 0.2rem; }
</style>
</head>
<body>
<h1>Configuration error</h1>
<p>The identity provider is not configured correctly, so the application cannot start.</p>
<ul>
{{range .}}<li><code>{{.}}</code></li>
{{end}}</ul>
<p>Set the keys from your identity provider dashboard in the environment and restart the server.
The publishable key starts with <code>pk_</code> and the secret key with <code>sk_</code>.</p>
</body>
</html>
`))

// configErrorHandler answers every request with the configuration error
// page. The health endpoint keeps reporting JSON for probes.
func configErrorHandler(problems []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":   "unhealthy",
				"problems": problems,
			})
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_ = configErrorPage.Execute(w, problems)
	})
}
