package server

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/gofiber/fiber/v2"
)

//go:embed web/index.html
var indexHTML []byte

var setupErrorPage = template.Must(template.New("setup").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>cortex</title>
<style>
body { font-family: system-ui, sans-serif; background: #0e1117; color: #fafafa; margin: 0; }
.error { max-width: 40rem; margin: 4rem auto; padding: 1rem 1.25rem; border-radius: .5rem;
         background: #3e2428; color: #ffbdbd; }
</style>
</head>
<body>
<div class="error" role="alert">{{.}}</div>
</body>
</html>
`))

// handleIndex serves the chat page, or the configuration error when chat is
// not set up.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)

	if s.engine == nil {
		var buf bytes.Buffer
		if err := setupErrorPage.Execute(&buf, s.config.SetupError); err != nil {
			return err
		}
		return c.Status(fiber.StatusServiceUnavailable).Send(buf.Bytes())
	}

	return c.Send(indexHTML)
}
