// internal/tui/app.go
//
// Local playground channel. It renders a chat transcript and a prompt,
// feeds typed lines into the command router, and displays everything the
// game sends back. `/as <name>` switches the speaking actor so a single
// terminal can play as a whole defusal team.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/bombsquad-bot/bombsquad/internal/transport"
)

// Channel is the channel ID the playground plays in.
const Channel = "playground"

const outboxSize = 256

// Dispatcher receives the typed commands. Satisfied by router.Router.
type Dispatcher interface {
	Route(channel, actor, text string)
}

// Outbox implements transport.Sender by buffering outbound traffic for the
// transcript. Sends never block gameplay: when the buffer is full (for
// example after the UI has quit) lines are dropped.
type Outbox struct {
	ch chan string
}

// NewOutbox returns an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{ch: make(chan string, outboxSize)}
}

// Send queues an outbound message for display.
func (o *Outbox) Send(_ string, text string, att *transport.Attachment) error {
	lines := []string{text}
	if att != nil {
		lines = append(lines, fmt.Sprintf("[attachment: %s, %d bytes]", att.Name, len(att.Body)))
	}
	for _, line := range lines {
		select {
		case o.ch <- line:
		default:
		}
	}
	return nil
}

type outboundMsg string

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)
	actorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#5B8DEF"))
	gameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)
)

// App is the playground model. It holds the transcript, the prompt, and the
// identity of the currently speaking actor.
type App struct {
	dispatcher Dispatcher
	outbox     *Outbox
	actor      string

	input  textinput.Model
	view   viewport.Model
	lines  []string
	ready  bool
	width  int
	height int
}

// NewApp creates the playground around a dispatcher and the outbox the game
// was wired to send to.
func NewApp(dispatcher Dispatcher, outbox *Outbox) *App {
	input := textinput.New()
	input.Placeholder = "run 3 vanilla"
	input.Prompt = "> "
	input.Focus()
	return &App{
		dispatcher: dispatcher,
		outbox:     outbox,
		actor:      "defuser",
		input:      input,
		lines: []string{
			gameStyle.Render("Playing as defuser. `/as <name>` switches actor, `/quit` exits."),
		},
	}
}

// Init starts listening for outbound game traffic.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.waitForOutbound())
}

// waitForOutbound re-arms after every delivered message.
func (a *App) waitForOutbound() tea.Cmd {
	return func() tea.Msg {
		return outboundMsg(<-a.outbox.ch)
	}
}

// Update handles keystrokes and outbound game messages.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		viewHeight := max(3, msg.Height-6)
		if !a.ready {
			a.view = viewport.New(msg.Width, viewHeight)
			a.ready = true
		} else {
			a.view.Width = msg.Width
			a.view.Height = viewHeight
		}
		a.refreshTranscript()
		return a, nil

	case outboundMsg:
		a.appendLine(gameStyle.Render(string(msg)))
		return a, a.waitForOutbound()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "enter":
			return a, a.submit()
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	a.view, cmd = a.view.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

// submit consumes the prompt line: slash commands locally, everything else
// into the router.
func (a *App) submit() tea.Cmd {
	text := strings.TrimSpace(a.input.Value())
	a.input.SetValue("")
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, "/") {
		return a.slashCommand(text)
	}

	a.appendLine(actorStyle.Render(a.actor) + " " + text)
	actor := a.actor
	dispatcher := a.dispatcher
	return func() tea.Msg {
		dispatcher.Route(Channel, actor, text)
		return nil
	}
}

func (a *App) slashCommand(text string) tea.Cmd {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit", "/exit":
		return tea.Quit
	case "/as":
		if len(fields) != 2 {
			a.appendLine(gameStyle.Render("Usage: /as <name>"))
			return nil
		}
		a.actor = fields[1]
		a.appendLine(gameStyle.Render(fmt.Sprintf("Now playing as %s.", a.actor)))
		return nil
	default:
		a.appendLine(gameStyle.Render(fmt.Sprintf("Unknown slash command %s.", fields[0])))
		return nil
	}
}

func (a *App) appendLine(line string) {
	a.lines = append(a.lines, line)
	a.refreshTranscript()
}

func (a *App) refreshTranscript() {
	if !a.ready {
		return
	}
	a.view.SetContent(strings.Join(a.lines, "\n"))
	a.view.GotoBottom()
}

// View renders header, transcript, prompt, footer.
func (a *App) View() string {
	header := headerStyle.Render("⬡ BOMB SQUAD PLAYGROUND")
	transcript := "Starting..."
	if a.ready {
		transcript = a.view.View()
	}
	footer := footerStyle.Render(fmt.Sprintf("actor: %s · `run` starts a bomb · ctrl+c quits", a.actor))
	return strings.Join([]string{header, transcript, a.input.View(), footer}, "\n")
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
