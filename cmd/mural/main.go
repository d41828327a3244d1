package main

import (
	"fmt"
	"image"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"mural"
)

const doubleClickWindow = 400 * time.Millisecond

func main() {
	cfg := mural.LoadConfig()

	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{cfg.GetSavePath("mural.log")}
	logger, err := zcfg.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	p := tea.NewProgram(
		initialModel(cfg, logger),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		log.Fatal(err)
	}
}

type Mode int

const (
	ModeNormal Mode = iota
	ModeTextInput
	ModeFileInput
	ModeLinkPick
	ModeConfirm
)

type ConfirmAction int

const (
	ConfirmQuit ConfirmAction = iota
	ConfirmRemoveViewport
)

type model struct {
	comp   *mural.Composition
	config *mural.Config

	width  int
	height int

	mode          Mode
	inputText     string
	confirmAction ConfirmAction

	lastClickAt   time.Time
	lastClickCell [2]int
	mouseDown     bool

	errorMessage   string
	successMessage string
}

// imageDecodedMsg carries an off-thread decode result back into Update.
type imageDecodedMsg struct {
	viewportID string
	img        image.Image
	err        error
}

func initialModel(cfg *mural.Config, logger *zap.Logger) model {
	return model{
		comp:   mural.NewComposition(cfg, logger),
		config: cfg,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

// cellToLocal maps a terminal cell to a logical point in the active
// viewport. The drawable area excludes the status line.
func (m model) cellToLocal(x, y int) (mural.Point, bool) {
	rows := m.height - 1
	if m.width < 1 || rows < 1 {
		return mural.Point{}, false
	}
	w, h := m.comp.Resolution()
	return mural.Point{
		X: (float64(x) + 0.5) * w / float64(m.width),
		Y: (float64(y) + 0.5) * h / float64(rows),
	}, true
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case imageDecodedMsg:
		m.comp.CompleteImageDecode(msg.viewportID, msg.img, msg.err)
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
		} else {
			m.successMessage = "image inserted"
		}
		return m, nil

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.mode != ModeNormal {
		return m, nil
	}
	local, ok := m.cellToLocal(msg.X, msg.Y)
	if !ok {
		return m, nil
	}
	vp := m.comp.ActiveViewport()
	m.comp.SetPointer(vp.ToGlobal(local))

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		now := time.Now()
		cell := [2]int{msg.X, msg.Y}
		if now.Sub(m.lastClickAt) < doubleClickWindow && cell == m.lastClickCell {
			vp.DoubleClick(local)
			m.lastClickAt = time.Time{}
			m.mouseDown = false
			return m, nil
		}
		m.lastClickAt = now
		m.lastClickCell = cell
		m.mouseDown = true
		vp.PointerDown(local, msg.Shift)
	case tea.MouseActionMotion:
		if m.mouseDown {
			vp.PointerMove(local)
		}
	case tea.MouseActionRelease:
		if m.mouseDown {
			m.mouseDown = false
			vp.PointerUp(local)
		}
	}
	return m, nil
}

func (m model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errorMessage = ""
	m.successMessage = ""

	switch m.mode {
	case ModeTextInput:
		return m.updateTextInput(msg)
	case ModeFileInput:
		return m.updateFileInput(msg)
	case ModeLinkPick:
		return m.updateLinkPick(msg)
	case ModeConfirm:
		return m.updateConfirm(msg)
	}

	vp := m.comp.ActiveViewport()
	switch msg.String() {
	case "ctrl+c", "q":
		m.mode = ModeConfirm
		m.confirmAction = ConfirmQuit
	case "tab":
		m.cycleActive(1)
	case "shift+tab":
		m.cycleActive(-1)
	case "n":
		if _, err := m.comp.AddViewport(mural.DirE); err != nil {
			m.errorMessage = err.Error()
		}
	case "m":
		if _, err := m.comp.AddViewport(mural.DirS); err != nil {
			m.errorMessage = err.Error()
		}
	case "X":
		m.mode = ModeConfirm
		m.confirmAction = ConfirmRemoveViewport
	case "g":
		m.comp.SetLinking(!m.comp.Linking())
	case "L":
		m.mode = ModeLinkPick
	case "t":
		m.mode = ModeTextInput
		m.inputText = ""
	case "o":
		m.mode = ModeFileInput
		m.inputText = ""
	case "S":
		name := fmt.Sprintf("mural-%s.png", time.Now().Format("20060102-150405"))
		path := m.config.GetSavePath(name)
		if err := m.comp.ExportPNG(path); err != nil {
			m.errorMessage = err.Error()
		} else {
			m.successMessage = "saved " + path
		}
	case "c":
		if err := m.comp.Copy(); err != nil {
			m.errorMessage = err.Error()
		}
	case "v":
		m.comp.Paste()
	case "d":
		m.comp.DuplicateSelection(20, 20)
	case "f":
		m.comp.BringToFront()
	case "b":
		m.comp.SendToBack()
	case "backspace", "delete":
		m.comp.DeleteSelection()
	case "up":
		m.comp.NudgeSelection(0, -1)
	case "down":
		m.comp.NudgeSelection(0, 1)
	case "left":
		m.comp.NudgeSelection(-1, 0)
	case "right":
		m.comp.NudgeSelection(1, 0)
	case "shift+up":
		m.comp.NudgeSelection(0, -10)
	case "shift+down":
		m.comp.NudgeSelection(0, 10)
	case "shift+left":
		m.comp.NudgeSelection(-10, 0)
	case "shift+right":
		m.comp.NudgeSelection(10, 0)
	case "esc":
		vp.KeyEscape()
	case "enter":
		vp.KeyEnter()
	}
	return m, nil
}

func (m model) updateTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.inputText = ""
	case "enter":
		if strings.TrimSpace(m.inputText) != "" {
			m.comp.CreateText(m.comp.ActiveViewport().ID(), m.inputText, 16)
		}
		m.mode = ModeNormal
		m.inputText = ""
	case "alt+enter":
		m.inputText += "\n"
	case "backspace":
		if len(m.inputText) > 0 {
			runes := []rune(m.inputText)
			m.inputText = string(runes[:len(runes)-1])
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.inputText += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			m.inputText += " "
		}
	}
	return m, nil
}

func (m model) updateFileInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		m.inputText = ""
	case "enter":
		path := strings.TrimSpace(m.inputText)
		m.mode = ModeNormal
		m.inputText = ""
		if path == "" {
			return m, nil
		}
		id := m.comp.ActiveViewport().ID()
		return m, func() tea.Msg {
			img, err := mural.LoadImageFile(path)
			return imageDecodedMsg{viewportID: id, img: img, err: err}
		}
	case "backspace":
		if len(m.inputText) > 0 {
			runes := []rune(m.inputText)
			m.inputText = string(runes[:len(runes)-1])
		}
	default:
		if msg.Type == tea.KeyRunes {
			m.inputText += string(msg.Runes)
		}
	}
	return m, nil
}

// updateLinkPick toggles the link between the active viewport and the
// neighbor in the pressed arrow direction.
func (m model) updateLinkPick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var dir mural.Direction
	switch msg.String() {
	case "esc":
		m.mode = ModeNormal
		return m, nil
	case "up":
		dir = mural.DirN
	case "down":
		dir = mural.DirS
	case "left":
		dir = mural.DirW
	case "right":
		dir = mural.DirE
	default:
		return m, nil
	}
	m.mode = ModeNormal
	active := m.comp.ActiveViewport().ID()
	neighbor, ok := m.comp.Grid().AdjacentOf(active)[dir]
	if !ok {
		m.errorMessage = "no neighbor in that direction"
		return m, nil
	}
	if linked, ok := m.comp.ToggleLink(active, neighbor); ok {
		if linked {
			m.successMessage = "link enabled"
		} else {
			m.successMessage = "link disabled"
		}
	}
	return m, nil
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		switch m.confirmAction {
		case ConfirmQuit:
			return m, tea.Quit
		case ConfirmRemoveViewport:
			m.mode = ModeNormal
			if err := m.comp.RemoveViewport(m.comp.ActiveViewport().ID()); err != nil {
				m.errorMessage = err.Error()
			}
		}
	case "n", "N", "esc":
		m.mode = ModeNormal
	}
	return m, nil
}

func (m *model) cycleActive(step int) {
	vps := m.comp.Viewports()
	if len(vps) < 2 {
		return
	}
	cur := 0
	for i, vp := range vps {
		if vp.ID() == m.comp.ActiveViewport().ID() {
			cur = i
			break
		}
	}
	next := (cur + step + len(vps)) % len(vps)
	m.comp.SetActiveViewport(vps[next].ID())
}

var (
	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
	activeCellStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
	cellStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func (m model) View() string {
	var b strings.Builder
	b.WriteString(m.gridView())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.statusLine()))
	return b.String()
}

// gridView sketches the viewport grid: one bordered cell per viewport
// with its element count, the active one highlighted.
func (m model) gridView() string {
	minRow, maxRow := 0, 0
	minCol, maxCol := 0, 0
	first := true
	for _, vp := range m.comp.Viewports() {
		cell, ok := m.comp.Grid().CellOf(vp.ID())
		if !ok {
			continue
		}
		if first {
			minRow, maxRow = cell.Row, cell.Row
			minCol, maxCol = cell.Col, cell.Col
			first = false
			continue
		}
		if cell.Row < minRow {
			minRow = cell.Row
		}
		if cell.Row > maxRow {
			maxRow = cell.Row
		}
		if cell.Col < minCol {
			minCol = cell.Col
		}
		if cell.Col > maxCol {
			maxCol = cell.Col
		}
	}

	activeID := m.comp.ActiveViewport().ID()
	var rows []string
	for r := minRow; r <= maxRow; r++ {
		var cells []string
		for col := minCol; col <= maxCol; col++ {
			id, ok := m.comp.Grid().ViewportAt(r, col)
			if !ok {
				cells = append(cells, "      ")
				continue
			}
			count := 0
			for _, e := range m.comp.Store().All() {
				if e.OwnerViewport == id {
					count++
				}
			}
			label := fmt.Sprintf("%d el", count)
			if id == activeID {
				cells = append(cells, activeCellStyle.Render(label))
			} else {
				cells = append(cells, cellStyle.Render(label))
			}
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m model) statusLine() string {
	switch m.mode {
	case ModeTextInput:
		return fmt.Sprintf("TEXT | %s_ | Enter=place, Alt+Enter=newline, Esc=cancel", m.inputText)
	case ModeFileInput:
		return fmt.Sprintf("IMAGE | path: %s_ | Enter=load, Esc=cancel", m.inputText)
	case ModeLinkPick:
		return "LINK | arrow key picks the neighbor to toggle | Esc=cancel"
	case ModeConfirm:
		switch m.confirmAction {
		case ConfirmQuit:
			return "Quit mural? (y/n)"
		case ConfirmRemoveViewport:
			return "Remove this viewport and keep its elements? (y/n)"
		}
	}

	linking := "off"
	if m.comp.Linking() {
		linking = "on"
	}
	status := fmt.Sprintf("NORMAL | viewports: %d | elements: %d | linking: %s",
		len(m.comp.Viewports()), m.comp.Store().Len(), linking)
	if sel := m.comp.Store().SelectedMany(); len(sel) > 0 {
		status += fmt.Sprintf(" | selected: %d", len(sel))
	}
	if style, ok := m.comp.SelectedStyle(); ok {
		status += fmt.Sprintf(" | %s %.0fpx", style.FontFamily, style.FontSize)
	}
	if m.errorMessage != "" {
		status += " | " + errorStyle.Render("ERROR: "+m.errorMessage)
	} else if m.successMessage != "" {
		status += " | " + m.successMessage
	} else {
		status += " | n/m=new viewport, t=text, o=image, g=linking, L=link, S=snapshot, q=quit"
	}
	return status
}
