package diag

import (
	"fmt"

	"github.com/gookit/color"
)

// Render formats an error for terminal output as
// "path.key: message (source:line:column)". Diagnostics get their site
// rendered; any other error falls back to its plain message. Color is a
// presentation choice only and never changes the text content.
func Render(err error, colorize bool) string {
	d, ok := err.(Diagnostic)
	if !ok {
		if colorize {
			return color.Red.Sprint(err.Error())
		}
		return err.Error()
	}

	site := d.Where()
	subject := site.Subject()
	pos := site.Pos.String()

	if colorize {
		return fmt.Sprintf("%s: %s (%s)",
			color.Bold.Sprint(subject),
			color.Red.Sprint(d.Error()),
			color.Gray.Sprint(pos),
		)
	}
	return fmt.Sprintf("%s: %s (%s)", subject, d.Error(), pos)
}
