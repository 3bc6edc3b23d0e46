package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/gupta-akshay/portfolio-v2-sub000/internal/resume"
)

// Bullet indentation: two levels of two spaces, then the bullet glyph.
const (
	bulletFirst = "    • "
	bulletRest  = "      "
)

// labelWidth is the column reserved for field labels in key/value cards.
const labelWidth = 10

// HelpEntry is one row of the help card.
type HelpEntry struct {
	Name        string
	Description string
}

// field is one labelled line in a key/value card.
type field struct {
	label string
	value string
}

// Summary renders the multi-paragraph summary.
func (r *Renderer) Summary(res *resume.Resume, width int) string {
	inner := innerWidth(width)
	paras := make([]string, 0, len(res.Basics.Summary))
	for _, p := range res.Basics.Summary {
		if strings.TrimSpace(p) == "" {
			continue
		}
		paras = append(paras, Wrap(p, inner))
	}
	if len(paras) == 0 {
		paras = append(paras, r.styles.Dim.Render("No summary yet."))
	}
	return r.Box("About", strings.Join(paras, "\n\n"), width)
}

// Contacts renders the contact card.
func (r *Renderer) Contacts(res *resume.Resume, width int) string {
	c := res.Basics.Contact
	fields := []field{
		{"Email", c.Email},
		{"Phone", c.Phone},
		{"Location", c.Location},
		{"Website", c.Website},
	}
	return r.Box("Contact", r.fields(fields, innerWidth(width)), width)
}

// Skills renders every skill category with its items wrapped beneath the
// label.
func (r *Renderer) Skills(res *resume.Resume, width int) string {
	inner := innerWidth(width)
	groups := make([]string, 0, len(res.Skills))
	for _, cat := range res.Skills {
		var b strings.Builder
		b.WriteString(r.styles.Label.Render(Wrap(cat.Label, inner)))
		if len(cat.Items) > 0 {
			b.WriteByte('\n')
			b.WriteString(Hang(strings.Join(cat.Items, " · "), inner, "  ", "  "))
		}
		groups = append(groups, b.String())
	}
	if len(groups) == 0 {
		groups = append(groups, r.styles.Dim.Render("No skills listed."))
	}
	return r.Box("Skills", strings.Join(groups, "\n\n"), width)
}

// Experience renders one sub-entry per job, separated by divider rules.
func (r *Renderer) Experience(res *resume.Resume, width int) string {
	inner := innerWidth(width)
	entries := make([]string, 0, len(res.Experience))
	for _, e := range res.Experience {
		header := e.Title
		if e.Company != "" {
			header += " @ " + e.Company
		}
		entries = append(entries, r.entry(header, []string{e.Period, e.Location}, e.Highlights, inner))
	}
	return r.Box("Experience", r.joinEntries(entries, inner, "No experience listed."), width)
}

// Education renders one sub-entry per degree, separated by divider rules.
func (r *Renderer) Education(res *resume.Resume, width int) string {
	inner := innerWidth(width)
	entries := make([]string, 0, len(res.Education))
	for _, e := range res.Education {
		entries = append(entries, r.entry(e.Degree, []string{e.School, e.Period, e.Location}, nil, inner))
	}
	return r.Box("Education", r.joinEntries(entries, inner, "No education listed."), width)
}

// Links renders the website, social profiles and résumé download link.
func (r *Renderer) Links(res *resume.Resume, width int) string {
	b := res.Basics
	fields := []field{{"Website", b.Contact.Website}}
	for _, p := range b.Contact.Profiles {
		fields = append(fields, field{p.Network, p.URL})
	}
	fields = append(fields, field{"Résumé", b.ResumeURL})
	return r.Box("Links", r.fields(fields, innerWidth(width)), width)
}

// Help renders the command table, one line of description per command.
func (r *Renderer) Help(entries []HelpEntry, width int) string {
	inner := innerWidth(width)
	nameW := 0
	for _, e := range entries {
		if w := ansi.StringWidth(e.Name); w > nameW {
			nameW = w
		}
	}
	nameW += 2

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		pad := strings.Repeat(" ", nameW-ansi.StringWidth(e.Name))
		desc := Hang(e.Description, inner, strings.Repeat(" ", nameW), strings.Repeat(" ", nameW))
		lines = append(lines, r.styles.Accent.Render(e.Name)+pad+strings.TrimPrefix(desc, strings.Repeat(" ", nameW)))
	}
	return r.Box("Commands", strings.Join(lines, "\n"), width)
}

// Resume concatenates banner, summary, contacts, skills, experience,
// education and links, in that order, separated by blank lines.
func (r *Renderer) Resume(res *resume.Resume, width int) string {
	return strings.Join([]string{
		r.Banner(res, width),
		r.Summary(res, width),
		r.Contacts(res, width),
		r.Skills(res, width),
		r.Experience(res, width),
		r.Education(res, width),
		r.Links(res, width),
	}, "\n\n")
}

// Welcome is the block shown when a shell opens: banner, summary, contacts
// and a hint line.
func (r *Renderer) Welcome(res *resume.Resume, width int) string {
	return strings.Join([]string{
		r.Banner(res, width),
		r.Summary(res, width),
		r.Contacts(res, width),
		r.Hint(`Type "help" to see available commands.`, width),
	}, "\n\n")
}

// Prompt returns the "<name>@terminal $ " prompt with no trailing newline.
func (r *Renderer) Prompt(res *resume.Resume) string {
	return r.styles.Success.Render(res.FirstName()) +
		r.styles.Dim.Render("@terminal") +
		r.styles.Accent.Render(" $ ")
}

// fields renders labelled lines, skipping empty values. Long values wrap
// under the value column.
func (r *Renderer) fields(fields []field, inner int) string {
	indent := strings.Repeat(" ", labelWidth)
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		label := f.label
		if ansi.StringWidth(label) >= labelWidth {
			label = ansi.Truncate(label, labelWidth-1, "")
		}
		pad := strings.Repeat(" ", labelWidth-ansi.StringWidth(label))
		value := strings.TrimPrefix(Hang(f.value, inner, indent, indent), indent)
		lines = append(lines, r.styles.Label.Render(label)+pad+value)
	}
	if len(lines) == 0 {
		return r.styles.Dim.Render("Nothing here yet.")
	}
	return strings.Join(lines, "\n")
}

// entry renders a header line, a metadata line and indented bullets.
func (r *Renderer) entry(header string, meta []string, highlights []string, inner int) string {
	parts := []string{r.render(r.styles.Header, Wrap(header, inner))}

	var nonEmpty []string
	for _, m := range meta {
		if m != "" {
			nonEmpty = append(nonEmpty, m)
		}
	}
	if len(nonEmpty) > 0 {
		parts = append(parts, r.styles.Dim.Render(Wrap(strings.Join(nonEmpty, " | "), inner)))
	}

	for _, h := range highlights {
		if strings.TrimSpace(h) == "" {
			continue
		}
		parts = append(parts, Hang(h, inner, bulletFirst, bulletRest))
	}
	return strings.Join(parts, "\n")
}

func (r *Renderer) joinEntries(entries []string, inner int, empty string) string {
	if len(entries) == 0 {
		return r.styles.Dim.Render(empty)
	}
	return strings.Join(entries, "\n"+r.Divider(inner)+"\n")
}

// Unknown is the message written for a command that is not registered.
func Unknown(name string) string {
	return fmt.Sprintf("Unknown command: `%s`. Type \"help\" to see options.", name)
}
