// Package tui is the terminal front end: a sidebar to switch between chat and
// image modes, the chat history, and a single input line.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/cortex/pkg/chat"
	"github.com/papercomputeco/cortex/pkg/image"
)

type mode int

const (
	modeChat mode = iota
	modeImage
)

// Options configures the TUI.
type Options struct {
	// Engine runs chat turns. Nil means chat is not configured and only
	// SetupError is shown.
	Engine     *chat.Engine
	SetupError string

	SystemPrompt string
	Panel        *image.Panel
}

// frameMsg carries one redraw from the streaming turn.
type frameMsg struct {
	frame chat.Frame
}

// turnDoneMsg ends a chat turn.
type turnDoneMsg struct {
	err error
}

// imageDoneMsg ends an image generation.
type imageDoneMsg struct {
	img *image.Image
	err error
}

type imageResult struct {
	img     *image.Image
	warning string
	err     string
}

// Model is the bubbletea model for the terminal chat and image UI.
type Model struct {
	engine     *chat.Engine
	setupError string
	panel      *image.Panel
	session    *chat.Session

	mode     mode
	input    textinput.Model
	viewport viewport.Model
	markdown *glamour.TermRenderer
	darkBG   bool

	// chat turn state
	streaming bool
	live      string
	turnErr   string
	events    chan tea.Msg

	// image state
	generating bool
	images     []imageResult

	ctx    context.Context
	cancel context.CancelFunc

	width  int
	height int
}

// New builds a Model with a fresh session.
func New(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask something..."
	ti.CharLimit = 4000
	ti.Focus()

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		engine:     opts.Engine,
		setupError: opts.SetupError,
		panel:      opts.Panel,
		session:    chat.NewSession(opts.SystemPrompt),
		input:      ti,
		viewport:   viewport.New(80, 20),
		darkBG:     termenv.HasDarkBackground(),
		ctx:        ctx,
		cancel:     cancel,
		width:      100,
		height:     30,
	}
	m.resize()
	return m
}

// Run starts the TUI and blocks until the user quits.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case frameMsg:
		m.live = msg.frame.Display()
		m.refresh()
		return m, waitForEvent(m.events)

	case turnDoneMsg:
		m.streaming = false
		m.live = ""
		m.events = nil
		if msg.err != nil {
			m.turnErr = chat.UserMessage(msg.err)
		}
		m.refresh()
		return m, nil

	case imageDoneMsg:
		m.generating = false
		switch {
		case errors.Is(msg.err, image.ErrEmptyDescription):
			m.images = append(m.images, imageResult{warning: "Write a description first."})
		case msg.err != nil:
			m.images = append(m.images, imageResult{err: "Error: " + msg.err.Error()})
		default:
			m.images = append(m.images, imageResult{img: msg.img})
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.cancel()
		return m, tea.Quit
	}

	// Without a configured provider the only thing left to do is quit.
	if m.engine == nil {
		return m, nil
	}

	switch msg.String() {
	case "tab":
		if m.mode == modeChat {
			m.mode = modeImage
			m.input.Placeholder = "Describe the image..."
		} else {
			m.mode = modeChat
			m.input.Placeholder = "Ask something..."
		}
		m.refresh()
		return m, nil

	case "ctrl+n":
		if m.streaming {
			return m, nil
		}
		m.turnErr = ""
		if err := m.session.Reset(); err != nil {
			m.turnErr = chat.UserMessage(err)
		}
		m.refresh()
		return m, nil

	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case "enter":
		if m.mode == modeChat {
			return m.send()
		}
		return m.generate()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send starts a chat turn in the background. Frames come back through
// m.events one at a time.
func (m Model) send() (tea.Model, tea.Cmd) {
	content := m.input.Value()
	if m.streaming || content == "" {
		return m, nil
	}

	m.input.Reset()
	m.streaming = true
	m.turnErr = ""
	m.live = chat.Cursor

	events := make(chan tea.Msg, 16)
	m.events = events

	engine, session, ctx := m.engine, m.session, m.ctx
	go func() {
		defer close(events)
		display := chat.DisplayFunc(func(f chat.Frame) error {
			select {
			case events <- frameMsg{frame: f}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		_, err := engine.Send(ctx, session, content, display)
		select {
		case events <- turnDoneMsg{err: err}:
		case <-ctx.Done():
		}
	}()

	m.refresh()
	return m, waitForEvent(events)
}

func (m Model) generate() (tea.Model, tea.Cmd) {
	if m.generating {
		return m, nil
	}
	description := m.input.Value()
	m.input.Reset()
	m.generating = true

	panel, ctx := m.panel, m.ctx
	return m, func() tea.Msg {
		img, err := panel.Generate(ctx, image.Request{Description: description})
		return imageDoneMsg{img: img, err: err}
	}
}

func waitForEvent(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) resize() {
	mainWidth := max(20, m.width-sidebarWidth-2)
	m.viewport.Width = mainWidth
	m.viewport.Height = max(3, m.height-4)
	m.input.Width = mainWidth - 4

	style := "light"
	if m.darkBG {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(mainWidth-2),
	)
	if err == nil {
		m.markdown = r
	}
	m.refresh()
}

func (m *Model) refresh() {
	if m.mode == modeChat {
		m.viewport.SetContent(m.renderChat())
	} else {
		m.viewport.SetContent(m.renderImages())
	}
	m.viewport.GotoBottom()
}
