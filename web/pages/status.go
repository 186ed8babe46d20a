// Package pages renders the server's HTML surfaces.
package pages

import (
	"fmt"

	"notesync/web/api"

	"github.com/rohanthewiz/element"
)

// StatusPage renders a minimal status view: sync state, pending count,
// and last error. It pulls from the same status the JSON endpoint
// serves, so the two can never disagree.
func StatusPage() string {
	st := api.LocalStatus()

	b := element.NewBuilder()

	b.Html().R(
		b.Head().R(
			b.Meta("charset", "UTF-8"),
			b.Meta("viewport", "width=device-width, initial-scale=1.0"),
			b.Title().T("NoteSync Status"),
			b.Style().T(`
				body { font-family: sans-serif; margin: 2em; background-color: #fafafa; }
				.row { padding: 0.3em 0; }
				.label { display: inline-block; min-width: 10em; color: #555; }
				.err { color: #b00; }
				.ok { color: #080; }
			`),
		),
		b.Body().R(
			b.H1().T("NoteSync"),
			statusRow(b, "Sync eligible", yesNo(st.Eligible)),
			statusRow(b, "Sync in progress", yesNo(st.InProgress)),
			statusRow(b, "Pending changes", fmt.Sprintf("%d", st.PendingCount)),
			statusRow(b, "Last synced", st.LastSynced),
			b.Wrap(func() {
				if st.SyncError != "" {
					b.P("class", "err").T("Last sync error: " + st.SyncError)
				} else {
					b.P("class", "ok").T("No sync errors")
				}
			}),
		),
	)

	return b.String()
}

func statusRow(b *element.Builder, label, value string) (x any) {
	b.DivClass("row").R(
		b.SpanClass("label").T(label),
		b.Span().T(value),
	)
	return
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
