package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lovecontract/pkg/canvas"
	"github.com/matzehuels/lovecontract/pkg/contract"
	"github.com/matzehuels/lovecontract/pkg/errors"
	"github.com/matzehuels/lovecontract/pkg/render/sheet"
	"github.com/matzehuels/lovecontract/pkg/session"
)

// Signing pad size in terminal cells. Each cell maps to a block of the
// 600x300 capture surface.
const (
	padCols = 60
	padRows = 15
)

const refreshInterval = 100 * time.Millisecond

var (
	tabActiveStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorRose).Underline(true)
	tabInactiveStyle = lipgloss.NewStyle().Foreground(colorGray)
	tabLockedStyle   = lipgloss.NewStyle().Foreground(colorDim)
	padStyle         = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorWine)
	bannerStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorRose).Border(lipgloss.DoubleBorder()).BorderForeground(colorRose).Padding(0, 2)
)

// openCommand creates the interactive session command.
func (c *CLI) openCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open the contract in an interactive terminal session",
		Long: `Open the contract in an interactive terminal session.

Pages: 1 contract, 2 envelope, 3 celebration (unlocked once both have signed).

On the contract page press a or b to sign. The signing pad is drawn with the
arrow keys: space lifts or lowers the pen, c wipes the pad, enter saves and
esc discards. Shift+A or Shift+B clears a signature and y accepts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			coord, closeAll, err := c.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer closeAll()

			_, err = tea.NewProgram(newContractModel(cmd.Context(), coord), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

// =============================================================================
// ContractModel - Interactive signing session
// =============================================================================

type tickMsg time.Time

// resultMsg carries a finished persistence call back to the model.
type resultMsg struct {
	res     session.Result
	success string
}

type cell struct{ x, y int }

// ContractModel is the bubbletea model for the open command. All state lives
// in the coordinator; the model mirrors a snapshot and the pad cursor.
type ContractModel struct {
	ctx   context.Context
	coord *session.Coordinator
	snap  session.Snapshot

	cursor cell
	penUp  bool
	ink    map[cell]bool

	status    string
	statusErr bool
	busy      bool
}

func newContractModel(ctx context.Context, coord *session.Coordinator) ContractModel {
	return ContractModel{
		ctx:    ctx,
		coord:  coord,
		snap:   coord.Snapshot(),
		cursor: cell{padCols / 2, padRows / 2},
		penUp:  true,
		ink:    make(map[cell]bool),
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m ContractModel) Init() tea.Cmd {
	return tick()
}

func (m ContractModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.refresh()
		return m, tick()
	case resultMsg:
		m.busy = false
		if msg.res.OK() {
			m.setStatus(msg.success, false)
		} else {
			m.setStatus(resultText(msg.res), true)
		}
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		if m.snap.Capturing() {
			return m.updatePad(msg)
		}
		return m.updatePage(msg)
	}
	return m, nil
}

func (m *ContractModel) refresh() {
	m.snap = m.coord.Snapshot()
	if notices := m.coord.Notices(); len(notices) > 0 {
		n := notices[len(notices)-1]
		m.setStatus(fmt.Sprintf("%s: %s", n.Op, n.Message), true)
	}
}

func (m *ContractModel) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m ContractModel) updatePage(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "esc":
		return m, tea.Quit
	case "1", "2", "3":
		v, _ := session.ParseView(key)
		if err := m.coord.Navigate(v); err != nil {
			m.setStatus(errors.UserMessage(err), true)
		} else {
			m.setStatus("", false)
		}
	case "tab":
		next := session.View((int(m.snap.View) + 1) % 3)
		if next == session.ViewCelebration && !m.snap.CelebrationReachable() {
			next = session.ViewContract
		}
		_ = m.coord.Navigate(next)
	case "a", "b":
		if m.snap.View != session.ViewContract {
			return m, nil
		}
		slot, _ := contract.ParseSlot(key)
		opened, err := m.coord.OpenCapture(slot)
		switch {
		case err != nil:
			m.setStatus(errors.UserMessage(err), true)
		case !opened:
			m.setStatus(fmt.Sprintf("%s has already signed; press %s to clear", slot.Party(), strings.ToUpper(key)), true)
		default:
			m.resetPad()
			m.setStatus(fmt.Sprintf("Signing as %s", slot.Party()), false)
		}
	case "A", "B":
		if m.snap.View != session.ViewContract {
			return m, nil
		}
		slot, _ := contract.ParseSlot(key)
		return m.persist(func(ctx context.Context) session.Result {
			return m.coord.ClearSlot(ctx, slot)
		}, fmt.Sprintf("Cleared %s's signature", slot.Party()))
	case "y":
		return m.persist(m.coord.Accept, "Proposal accepted "+iconHeart)
	case "enter", "o":
		if m.snap.View == session.ViewEnvelope {
			m.coord.OpenEnvelope()
		}
	case "d":
		m.coord.DismissCelebration()
	}
	m.snap = m.coord.Snapshot()
	return m, nil
}

func (m ContractModel) updatePad(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.coord.CancelCapture()
		m.setStatus("Signature discarded", false)
	case "enter":
		if len(m.ink) == 0 {
			m.setStatus("Draw something first", true)
			return m, nil
		}
		slot := m.snap.CaptureSlot
		return m.persist(m.coord.SaveCapture, slot.Party()+" signed")
	case "c":
		if err := m.coord.ClearCapture(); err != nil {
			m.setStatus(errors.UserMessage(err), true)
		}
		m.resetPad()
	case " ":
		m.penUp = !m.penUp
		if m.penUp {
			m.coord.EndStroke()
		} else {
			m.coord.BeginStroke(cellCenter(m.cursor))
			m.ink[m.cursor] = true
		}
	case "left", "h":
		m.move(-1, 0)
	case "right", "l":
		m.move(1, 0)
	case "up", "k":
		m.move(0, -1)
	case "down", "j":
		m.move(0, 1)
	}
	m.snap = m.coord.Snapshot()
	return m, nil
}

// persist runs a store call off the UI goroutine.
func (m ContractModel) persist(fn func(context.Context) session.Result, success string) (tea.Model, tea.Cmd) {
	m.busy = true
	ctx := m.ctx
	return m, func() tea.Msg {
		return resultMsg{res: fn(ctx), success: success}
	}
}

func (m *ContractModel) resetPad() {
	m.ink = make(map[cell]bool)
	m.penUp = true
	m.cursor = cell{padCols / 2, padRows / 2}
}

func (m *ContractModel) move(dx, dy int) {
	next := cell{m.cursor.x + dx, m.cursor.y + dy}
	if next.x < 0 || next.x >= padCols || next.y < 0 || next.y >= padRows {
		return
	}
	m.cursor = next
	if !m.penUp {
		m.coord.ExtendStroke(cellCenter(next))
		m.ink[next] = true
	}
}

// cellCenter maps a pad cell to capture surface pixels.
func cellCenter(c cell) canvas.Point {
	return canvas.Pt(
		(float64(c.x)+0.5)*contract.CaptureWidth/padCols,
		(float64(c.y)+0.5)*contract.CaptureHeight/padRows,
	)
}

func resultText(res session.Result) string {
	msg := errors.UserMessage(res.Err)
	if res.RolledBack {
		return fmt.Sprintf("%s failed: %s", res.Op, msg)
	}
	return fmt.Sprintf("%s not saved: %s", res.Op, msg)
}

// =============================================================================
// Views
// =============================================================================

func (m ContractModel) View() string {
	var b strings.Builder

	b.WriteString(m.tabs())
	b.WriteString("\n\n")

	switch {
	case m.snap.Capturing():
		b.WriteString(m.padView())
	case m.snap.View == session.ViewEnvelope:
		b.WriteString(m.envelopeView())
	case m.snap.View == session.ViewCelebration:
		b.WriteString(m.celebrationView())
	default:
		b.WriteString(m.contractView())
	}

	if m.snap.Celebration {
		b.WriteString("\n\n")
		b.WriteString(bannerStyle.Render(iconHeart + " Both signed! " + iconHeart))
	}

	b.WriteString("\n\n")
	switch {
	case m.busy:
		b.WriteString(StyleDim.Render("Saving..."))
	case m.status != "" && m.statusErr:
		b.WriteString(StyleWarning.Render(iconWarning + " " + m.status))
	case m.status != "":
		b.WriteString(StyleSuccess.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render(m.help()))
	return b.String()
}

func (m ContractModel) tabs() string {
	names := []string{"1 Contract", "2 Envelope", "3 Celebration"}
	parts := make([]string, len(names))
	for i, name := range names {
		v := session.View(i)
		switch {
		case v == m.snap.View:
			parts[i] = tabActiveStyle.Render(name)
		case v == session.ViewCelebration && !m.snap.CelebrationReachable():
			parts[i] = tabLockedStyle.Render(name + " (locked)")
		default:
			parts[i] = tabInactiveStyle.Render(name)
		}
	}
	return strings.Join(parts, StyleDim.Render("  ·  "))
}

func (m ContractModel) contractView() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(sheet.Title))
	b.WriteString("\n\n")
	for i, clause := range sheet.Clauses {
		fmt.Fprintf(&b, "%d. %s\n", i+1, clause)
	}
	b.WriteString("\n")
	for _, slot := range contract.Slots {
		fmt.Fprintf(&b, "%-8s %s\n", slot.Party(), signatureStatus(m.snap.Document.Signature(slot)))
	}
	fmt.Fprintf(&b, "%-8s %s", "Proposal", acceptanceStatus(m.snap.Document.Acceptance))
	return b.String()
}

func (m ContractModel) padView() string {
	var b strings.Builder
	for y := 0; y < padRows; y++ {
		for x := 0; x < padCols; x++ {
			c := cell{x, y}
			switch {
			case c == m.cursor && m.penUp:
				b.WriteString(StyleHighlight.Render("+"))
			case c == m.cursor:
				b.WriteString(StyleInk.Render("●"))
			case m.ink[c]:
				b.WriteString(StyleInk.Render("•"))
			default:
				b.WriteString(" ")
			}
		}
		if y < padRows-1 {
			b.WriteString("\n")
		}
	}
	pen := "pen up"
	if !m.penUp {
		pen = "pen down"
	}
	title := fmt.Sprintf("Signing as %s · %s", m.snap.CaptureSlot.Party(), pen)
	return StyleTitle.Render(title) + "\n" + padStyle.Render(b.String())
}

func (m ContractModel) envelopeView() string {
	switch m.snap.Envelope {
	case session.EnvelopeOpening:
		return StyleHighlight.Render("  ✉  opening...")
	case session.EnvelopeOpen:
		return StyleTitle.Render("Will you be my Valentine?") + "\n\n" +
			StyleValue.Render("Open the contract (1) and sign it to say yes.")
	default:
		return StyleHighlight.Render("  ✉  ") + StyleDim.Render("press enter to open the envelope")
	}
}

func (m ContractModel) celebrationView() string {
	hearts := StyleHighlight.Render(strings.Repeat(iconHeart+" ", 12))
	body := "Signed by " + contract.SlotA.Party() + " and " + contract.SlotB.Party()
	if m.snap.Document.Acceptance.Accepted {
		body += "\n" + acceptanceStatus(m.snap.Document.Acceptance)
	} else {
		body += "\n" + StyleDim.Render("press y to accept the proposal")
	}
	return hearts + "\n\n" + StyleTitle.Render(body) + "\n\n" + hearts
}

func (m ContractModel) help() string {
	if m.snap.Capturing() {
		return "←↑↓→ move  space pen  c clear  ⏎ save  esc discard"
	}
	switch m.snap.View {
	case session.ViewEnvelope:
		return "1-3/tab page  ⏎ open  q quit"
	case session.ViewCelebration:
		return "1-3/tab page  y accept  d dismiss  q quit"
	default:
		return "1-3/tab page  a/b sign  A/B clear  y accept  q quit"
	}
}
