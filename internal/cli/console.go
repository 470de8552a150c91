package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tamperestartuphub/coffeesituation/internal/bot"
	"github.com/tamperestartuphub/coffeesituation/internal/config"
	"github.com/tamperestartuphub/coffeesituation/internal/jokes"
	"github.com/tamperestartuphub/coffeesituation/internal/monitor"
)

// The console is the simpler second variant of the event engine: same
// validator, classifier, router and dispatch loop, but events come from a
// local prompt instead of the RTM socket and replies render in the TUI.

const (
	consoleSelfID   = "coffeebot"
	consoleUser     = "Uconsole"
	consoleChannel  = "console"
	consolePollRate = 200 * time.Millisecond
)

// loopbackSession feeds typed lines to the engine and hands replies back to
// the TUI. Every conversation with the console is direct.
type loopbackSession struct {
	mu      sync.Mutex
	queue   []bot.Event
	onReply func(bot.Reply)
}

func (s *loopbackSession) push(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, bot.Event{
		Type:    "message.im",
		User:    consoleUser,
		Channel: consoleChannel,
		Text:    text,
	})
}

func (s *loopbackSession) Poll() ([]bot.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.queue
	s.queue = nil
	return batch, nil
}

func (s *loopbackSession) Post(_ context.Context, r bot.Reply) error {
	s.onReply(r)
	return nil
}

func (s *loopbackSession) Typing(string) {}

func (s *loopbackSession) UserName(context.Context, string) (string, error) {
	return "operator", nil
}

func (s *loopbackSession) IsDirectChannel(context.Context, string) (bool, error) {
	return true, nil
}

// RunConsole starts the local console. cfg may lack Slack credentials; only
// the monitoring settings are used.
func RunConsole(cfg *config.Config) error {
	sess := &loopbackSession{}

	mc := monitor.NewClient(cfg.Monitor.URL, cfg.Monitor.Token, consoleChannel, Version,
		time.Duration(cfg.Monitor.TimeoutS)*time.Second)
	classifier := bot.NewClassifier(consoleSelfID, sess)
	engine := bot.New(bot.Config{
		Session:    sess,
		Classifier: classifier,
		Router:     bot.NewRouter(cfg.Slack.Maintainer, classifier, mc, jokes.NewSource()),
		ReadDelay:  consolePollRate,
		Debug:      cfg.Bot.Debug,
	})

	p := tea.NewProgram(newConsoleModel(sess), tea.WithAltScreen())
	sess.onReply = func(r bot.Reply) {
		p.Send(replyMsg(r))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go engine.Run(ctx)

	_, err := p.Run()
	return err
}

// --- bubbletea model ---

type replyMsg bot.Reply

type consoleEntry struct {
	role    string // "user" or "bot"
	content string
}

type consoleModel struct {
	input    textinput.Model
	viewport viewport.Model
	history  []consoleEntry

	sess *loopbackSession

	ready  bool
	width  int
	height int
}

func newConsoleModel(sess *loopbackSession) consoleModel {
	ti := textinput.New()
	ti.Placeholder = "Ask for coffee..."
	ti.Focus()
	ti.CharLimit = 0
	ti.Prompt = "❯ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(Accent)

	return consoleModel{input: ti, sess: sess}
}

func (m consoleModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// header(1) + divider(1) + viewport + divider(1) + input(1)
		vpHeight := msg.Height - 4
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = vpHeight
		}
		m.input.Width = msg.Width - 4
		m.viewport.SetContent(m.renderHistory())
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			if line == "exit" || line == "quit" {
				return m, tea.Quit
			}
			m.history = append(m.history, consoleEntry{role: "user", content: line})
			m.input.SetValue("")
			if m.sess != nil {
				m.sess.push(line)
			}
			m.viewport.SetContent(m.renderHistory())
			m.viewport.GotoBottom()
			return m, nil
		}

	case replyMsg:
		m.history = append(m.history, consoleEntry{role: "bot", content: bot.Reply(msg).Text})
		if m.ready {
			m.viewport.SetContent(m.renderHistory())
			m.viewport.GotoBottom()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m consoleModel) View() string {
	if !m.ready {
		return "loading..."
	}
	header := TitleStyle.Render(fmt.Sprintf(" %s coffeebot console", Logo)) +
		DimStyle.Render("  (exit to quit)")
	divider := DimStyle.Render(strings.Repeat("─", m.width))
	return header + "\n" + divider + "\n" + m.viewport.View() + "\n" + divider + "\n" + m.input.View()
}

func (m consoleModel) renderHistory() string {
	var sb strings.Builder
	for _, e := range m.history {
		switch e.role {
		case "user":
			sb.WriteString(UserLabel.Render("you") + "  " + e.content + "\n")
		default:
			sb.WriteString(BotLabel.Render("bot") + "  " + e.content + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
