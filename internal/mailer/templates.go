package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"notekeeper/internal/library"
	"notekeeper/internal/users"
)

// renderMarkdown converts a note body to HTML for embedding in mail. On
// render failure the raw text is escaped and used as-is.
func (m *Mailer) renderMarkdown(body string) template.HTML {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(body), &buf); err != nil {
		return template.HTML("<p>" + template.HTMLEscapeString(body) + "</p>")
	}
	return template.HTML(buf.String())
}

func (m *Mailer) noteBlock(n library.Note) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div style="border:1px solid #ccc; border-radius:5px; padding:12px; margin-bottom:10px;">`)
	fmt.Fprintf(&b, "<h3>%s</h3>", template.HTMLEscapeString(n.Title))
	fmt.Fprintf(&b, "%s", m.renderMarkdown(n.Body))
	fmt.Fprintf(&b, `<p style="color:#888; font-size:12px;">updated %s</p>`, template.HTMLEscapeString(n.UpdatedAt))
	b.WriteString("</div>")
	return b.String()
}

func wrap(heading, greeting, inner string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; padding:20px;">
<h1>%s</h1>
<p>Hello %s,</p>
%s
</div>`, template.HTMLEscapeString(heading), template.HTMLEscapeString(greeting), inner)
}

func (m *Mailer) noteDeletedBody(ev library.NoteDeleted) string {
	inner := "<p>The following note was permanently deleted:</p>" + m.noteBlock(ev.Note)
	return wrap("Note deleted", ev.Owner.Name, inner)
}

func (m *Mailer) folderDeletedBody(ev library.FolderDeleted) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>The folder <strong>%s</strong> and its %d note(s) were deleted:</p>",
		template.HTMLEscapeString(ev.Folder.Name), len(ev.Folder.Notes))
	for _, n := range ev.Folder.Notes {
		b.WriteString(m.noteBlock(n))
	}
	return wrap("Folder deleted", ev.Owner.Name, b.String())
}

func (m *Mailer) libraryClearedBody(ev library.LibraryCleared) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Your library was cleared. %d folder(s) were removed; only the default folder remains:</p><ul>", len(ev.Folders))
	for _, f := range ev.Folders {
		fmt.Fprintf(&b, "<li>%s (%d notes)</li>", template.HTMLEscapeString(f.Name), len(f.Notes))
	}
	b.WriteString("</ul>")
	return wrap("Library cleared", ev.Owner.Name, b.String())
}

func (m *Mailer) binBackupBody(owner library.Owner, notes []library.Note) string {
	inner := fmt.Sprintf("<p>Attached is a PDF backup of the %d note(s) currently in your bin.</p>", len(notes))
	return wrap("Bin backup", owner.Name, inner)
}

func (m *Mailer) accountDeletedBody(u users.User) string {
	var b strings.Builder
	b.WriteString("<p>Your account and everything in it were deleted. For your records:</p><ul>")
	for _, f := range u.Library {
		fmt.Fprintf(&b, "<li>%s (%d notes)</li>", template.HTMLEscapeString(f.Name), len(f.Notes))
	}
	b.WriteString("</ul>")
	return wrap("Account deleted", u.Name, b.String())
}
