package api

import (
	"html"
	"strings"
)

const (
	doneTitle        = "Sign in received"
	doneMessage      = "You can close this window and return to the application."
	noAttemptTitle   = "No sign in in progress"
	noAttemptMessage = "This sign in link has expired. Start a new sign in from the application."
	failedTitle      = "Sign in failed"
	failedMessage    = "The response could not be processed. Start a new sign in from the application."
)

// callbackPageHTML is served after a form_post callback.
const callbackPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{TITLE}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif; display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; background: #f5f5f7; color: #1d1d1f; }
        .card { background: #fff; border-radius: 12px; padding: 2rem 2.5rem; box-shadow: 0 4px 24px rgba(0,0,0,0.08); max-width: 420px; text-align: center; }
        h1 { font-size: 1.4rem; margin: 0 0 0.75rem; }
        p { margin: 0; color: #515154; }
    </style>
</head>
<body>
    <div class="card">
        <h1>{{TITLE}}</h1>
        <p>{{MESSAGE}}</p>
    </div>
</body>
</html>`

func renderPage(title, message string) string {
	page := strings.ReplaceAll(callbackPageHTML, "{{TITLE}}", html.EscapeString(title))
	return strings.ReplaceAll(page, "{{MESSAGE}}", html.EscapeString(message))
}
