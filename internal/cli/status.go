package cli

import (
	"fmt"

	"github.com/dmitrijs2005/gophportal/internal/services"
)

// statusLine renders the prompt suffix, e.g. "(alice 3 left @newest)".
func statusLine(sess *services.Session) string {
	if !sess.LoggedIn() {
		return ""
	}
	return fmt.Sprintf("(%s %d left @%s)", sess.Username, sess.RemainingQueries, sess.Source)
}
