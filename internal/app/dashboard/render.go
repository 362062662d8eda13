package dashboard

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"

	authdomain "github.com/Apurer/admin-dashboard/internal/domains/auth/domain"
	uidomain "github.com/Apurer/admin-dashboard/internal/domains/ui/domain"
	userapp "github.com/Apurer/admin-dashboard/internal/domains/users/application"
	userdomain "github.com/Apurer/admin-dashboard/internal/domains/users/domain"
)

var (
	colorSuccess = lipgloss.Color("#2CD7C7")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorInfo    = lipgloss.Color("#20B9B4")
	colorMuted   = lipgloss.Color("#2C4A54")
)

// Renderer draws slice state on a terminal. Colours are dropped when out is
// not a terminal.
type Renderer struct {
	out     io.Writer
	title   lipgloss.Style
	muted   lipgloss.Style
	dialog  lipgloss.Style
	byLevel map[uidomain.Severity]lipgloss.Style
}

func NewRenderer(out io.Writer) *Renderer {
	lg := lipgloss.NewRenderer(out)
	return &Renderer{
		out:   out,
		title: lg.NewStyle().Bold(true).Foreground(colorInfo),
		muted: lg.NewStyle().Foreground(colorMuted),
		dialog: lg.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorError).
			Padding(0, 1),
		byLevel: map[uidomain.Severity]lipgloss.Style{
			uidomain.SeveritySuccess: lg.NewStyle().Foreground(colorSuccess),
			uidomain.SeverityWarning: lg.NewStyle().Foreground(colorWarning),
			uidomain.SeverityError:   lg.NewStyle().Foreground(colorError).Bold(true),
			uidomain.SeverityInfo:    lg.NewStyle().Foreground(colorInfo),
		},
	}
}

var severityIcon = map[uidomain.Severity]string{
	uidomain.SeveritySuccess: "✓",
	uidomain.SeverityWarning: "⚠",
	uidomain.SeverityError:   "✗",
	uidomain.SeverityInfo:    "•",
}

// Snackbar prints an open snackbar; a closed one prints nothing.
func (r *Renderer) Snackbar(s uidomain.Snackbar) {
	if !s.Open {
		return
	}
	style, ok := r.byLevel[s.Severity]
	if !ok {
		style = r.byLevel[uidomain.SeverityInfo]
	}
	fmt.Fprintln(r.out, style.Render(severityIcon[s.Severity]+" "+s.Message))
}

// FieldErrors lists field messages in name order.
func (r *Renderer) FieldErrors(fields map[string]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	style := r.byLevel[uidomain.SeverityError]
	for _, name := range names {
		fmt.Fprintln(r.out, "  "+style.Render(name)+": "+fields[name])
	}
}

// ConfirmDialog draws an open dialog with its button labels.
func (r *Renderer) ConfirmDialog(d uidomain.ConfirmDialog) {
	if !d.Open {
		return
	}
	body := r.title.Render(d.Title) + "\n" + d.Message + "\n\n" +
		r.muted.Render(fmt.Sprintf("[y] %s  [N] %s", d.ConfirmText, d.CancelText))
	fmt.Fprintln(r.out, r.dialog.Render(body))
}

// Identity prints the signed-in user.
func (r *Renderer) Identity(user authdomain.Identity) {
	fmt.Fprintln(r.out, r.title.Render(user.DisplayName()))
	fmt.Fprintln(r.out, r.muted.Render("email:")+" "+user.Email)
	fmt.Fprintln(r.out, r.muted.Render("role:")+" "+user.Role)
}

// Users prints the listed page as a table followed by the page position.
func (r *Renderer) Users(s userapp.State) {
	rows := make([][]string, 0, len(s.List))
	for _, u := range s.List {
		rows = append(rows, []string{string(u.ID), u.Name, u.Email, u.Role, u.Status})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.muted).
		Headers("ID", "NAME", "EMAIL", "ROLE", "STATUS").
		Rows(rows...)
	fmt.Fprintln(r.out, t.Render())
	fmt.Fprintln(r.out, r.muted.Render(fmt.Sprintf("page %d of %d, %d users",
		s.Filters.Page, max(userapp.SelectPageCount(s), 1), s.Total)))
}

// User prints one user's fields.
func (r *Renderer) User(u userdomain.User) {
	fmt.Fprintln(r.out, r.title.Render(u.Name)+" "+r.muted.Render("#"+string(u.ID)))
	pairs := [][2]string{
		{"email", u.Email},
		{"phone", u.Phone},
		{"role", u.Role},
		{"status", u.Status},
		{"avatar", u.AvatarURL},
	}
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		fmt.Fprintln(r.out, r.muted.Render(p[0]+":")+" "+p[1])
	}
}

// Stats prints the total and the per-role and per-status counts in name order.
func (r *Renderer) Stats(s userdomain.Stats) {
	fmt.Fprintln(r.out, r.title.Render(fmt.Sprintf("%d users", s.Total)))
	for _, group := range []struct {
		label  string
		counts map[string]int
	}{{"role", s.ByRole}, {"status", s.ByStatus}} {
		if len(group.counts) == 0 {
			continue
		}
		keys := make([]string, 0, len(group.counts))
		for k := range group.counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rows := make([][]string, 0, len(keys))
		for _, k := range keys {
			rows = append(rows, []string{k, strconv.Itoa(group.counts[k])})
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			BorderStyle(r.muted).
			Headers(strings.ToUpper(group.label), "USERS").
			Rows(rows...)
		fmt.Fprintln(r.out, t.Render())
	}
}

// Bytes reports a saved download.
func (r *Renderer) Bytes(label string, n int) {
	fmt.Fprintln(r.out, r.muted.Render(label+": "+strconv.Itoa(n)+" bytes"))
}

// isInteractive reports whether in is a terminal a person can answer from.
func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
