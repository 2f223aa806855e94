package review

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/store"
)

// Lines per posting in the list view (title + subtitle + blank separator).
const itemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("39"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Width(14)

	expiredStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	duplicateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

// ReviewStore is the slice of the store the TUI needs.
type ReviewStore interface {
	List(ctx context.Context, f store.ListFilter) ([]model.Posting, error)
	Deactivate(ctx context.Context, id int64) error
}

// deactivatedMsg is sent when an async deactivate completes.
type deactivatedMsg struct {
	id  int64
	err error
}

type reviewModel struct {
	store    ReviewStore
	postings []model.Posting

	listViewport   viewport.Model
	detailViewport viewport.Model
	cursor         int
	width          int
	height         int
	ready          bool

	view            viewState
	showDescription bool
	statusMsg       string
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case deactivatedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("deactivate failed: %v", msg.err)
		} else {
			m.statusMsg = fmt.Sprintf("posting %d deactivated", msg.id)
			for i := range m.postings {
				if m.postings[i].ID == msg.id {
					m.postings[i].Status = model.StatusExpired
					break
				}
			}
		}
		m.recalcContent()
		if m.view == viewDetail {
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m reviewModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "o":
		if p, ok := m.current(); ok {
			openURL(p.ExternalURL)
		}
		return m, nil
	case "x":
		if p, ok := m.current(); ok && p.Status != model.StatusExpired {
			return m, m.deactivateCmd(p.ID)
		}
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	var cmd tea.Cmd
	m.listViewport, cmd = m.listViewport.Update(msg)
	return m, cmd
}

func (m reviewModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		m.recalcContent()
		return m, nil
	case "o":
		if p, ok := m.current(); ok {
			openURL(p.ExternalURL)
		}
		return m, nil
	case "x":
		if p, ok := m.current(); ok && p.Status != model.StatusExpired {
			return m, m.deactivateCmd(p.ID)
		}
		return m, nil
	case "r":
		if p, ok := m.current(); ok && p.Description != "" {
			m.showDescription = !m.showDescription
			m.detailViewport.SetContent(m.renderDetail())
			m.detailViewport.SetYOffset(0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m reviewModel) deactivateCmd(id int64) tea.Cmd {
	st := m.store
	return func() tea.Msg {
		err := st.Deactivate(context.Background(), id)
		return deactivatedMsg{id: id, err: err}
	}
}

func (m reviewModel) current() (model.Posting, bool) {
	if len(m.postings) == 0 {
		return model.Posting{}, false
	}
	return m.postings[m.cursor], true
}

func (m *reviewModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.postings)-1, 0))
}

func (m *reviewModel) ensureCursorVisible() {
	top := m.cursor * itemHeight
	bottom := top + itemHeight - 1

	if top < m.listViewport.YOffset {
		m.listViewport.SetYOffset(top)
	} else if bottom >= m.listViewport.YOffset+m.listViewport.Height {
		m.listViewport.SetYOffset(bottom - m.listViewport.Height + 1)
	}
}

func (m reviewModel) openDetailView() (tea.Model, tea.Cmd) {
	if len(m.postings) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.showDescription = false
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *reviewModel) recalcLayout() {
	paneWidth := max(m.width-2, 20)
	// Header (1) + border top/bottom (2) + status bar (1).
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.listViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.listViewport.Width = paneWidth
		m.listViewport.Height = paneHeight
	}
	m.recalcContent()
}

func (m *reviewModel) recalcContent() {
	m.listViewport.SetContent(renderPostings(m.postings, m.cursor))
}

func (m reviewModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m reviewModel) viewList() string {
	header := headerStyle.Render(fmt.Sprintf(" Stored Postings (%d)", len(m.postings)))
	pane := borderStyle.Width(m.listViewport.Width).Render(m.listViewport.View())

	statusText := " ↑/↓ cursor  Enter detail  o open URL  x deactivate  q quit"
	if m.statusMsg != "" {
		statusText = " " + m.statusMsg + "    " + strings.TrimSpace(statusText)
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return header + "\n" + pane + "\n" + statusBar
}

func (m reviewModel) viewDetail() string {
	title := headerStyle.Render(" Posting Details")
	content := borderStyle.Width(m.width - 2).Render(m.detailViewport.View())

	statusText := " o open URL  x deactivate  r description  esc back  ↑/↓ scroll  q quit"
	if m.statusMsg != "" {
		statusText = " " + m.statusMsg + "    " + strings.TrimSpace(statusText)
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m reviewModel) renderDetail() string {
	p, ok := m.current()
	if !ok {
		return "  (no postings)"
	}

	var b strings.Builder
	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Title", p.Title)
	addField("Company", p.Company)
	addField("Location", p.Location)
	addField("Source", string(p.Source))
	addField("External ID", p.ExternalID)
	addField("Job Type", p.JobType)
	addField("Work Mode", string(p.WorkMode))
	addField("Experience", string(p.ExperienceLevel))
	addField("Status", renderStatus(p))
	addField("Quality", fmt.Sprintf("%d/100", p.QualityScore))
	if p.Salary != nil && p.Salary.Text != "" {
		addField("Salary", p.Salary.Text)
	}
	if p.PostedDate != nil {
		addField("Posted", p.PostedDate.Format("2006-01-02"))
	}
	addField("URL", p.ExternalURL)

	wrapWidth := max(m.width-8, 20)
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		return subtitleStyle.Render(label + fill)
	}

	if len(p.RequiredSkills) > 0 && p.RequiredSkills[0] != model.Placeholder {
		b.WriteByte('\n')
		addField("Skills", strings.Join(p.RequiredSkills, ", "))
	}
	if len(p.Requirements) > 0 && p.Requirements[0] != model.Placeholder {
		b.WriteByte('\n')
		b.WriteString(divider("── Requirements ") + "\n\n")
		for _, r := range p.Requirements {
			b.WriteString(bodyStyle.Render("  • "+r) + "\n")
		}
	}

	if p.Description != "" {
		b.WriteByte('\n')
		if m.showDescription {
			b.WriteString(divider("── Description ") + "\n\n")
			b.WriteString(bodyStyle.Render(wordWrap(p.Description, wrapWidth)) + "\n")
		} else {
			b.WriteString(hintStyle.Render("  press r to read the description") + "\n")
		}
	}

	return b.String()
}

func renderStatus(p model.Posting) string {
	switch p.Status {
	case model.StatusExpired:
		return expiredStyle.Render(string(p.Status))
	case model.StatusDuplicate:
		s := string(p.Status)
		if p.DuplicateOf != "" {
			s += " of " + p.DuplicateOf
		}
		return duplicateStyle.Render(s)
	default:
		return string(p.Status)
	}
}

func renderPostings(postings []model.Posting, cursor int) string {
	if len(postings) == 0 {
		return "  (no postings)"
	}

	var b strings.Builder
	for i, p := range postings {
		titleSt := titleStyle
		subtitleSt := subtitleStyle
		prefix := "  "
		if i == cursor {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(p.Title))
		b.WriteByte('\n')

		posted := "n/a"
		if p.PostedDate != nil {
			posted = p.PostedDate.Format("2006-01-02")
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s · %s", p.Company, p.Location, p.Source, posted)))
		b.WriteByte('\n')

		if i < len(postings)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func wordWrap(text string, width int) string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, w := range words[1:] {
			if len(line)+1+len(w) <= width {
				line += " " + w
			} else {
				lines = append(lines, line)
				line = w
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run loads stored postings and launches the interactive review TUI.
func Run(ctx context.Context, st ReviewStore, filter store.ListFilter) error {
	postings, err := st.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("loading postings: %w", err)
	}

	m := reviewModel{store: st, postings: postings}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
