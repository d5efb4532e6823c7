// Package tui is the terminal front-end: a dish-name input and an image-path
// input sharing one result slot.
package tui

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vbonduro/dishcarbon/internal/domain"
	"github.com/vbonduro/dishcarbon/internal/estimation"
)

// Estimator is the subset of api.Client the terminal UI needs.
type Estimator interface {
	EstimateDish(ctx context.Context, dish string) (*domain.EstimationResult, error)
	EstimateImage(ctx context.Context, img domain.ImageUpload) (*domain.EstimationResult, error)
}

const (
	focusText = iota
	focusImage
)

// responseMsg carries the outcome of one backend call back into Update.
type responseMsg struct {
	method domain.Method
	seq    uint64
	result *domain.EstimationResult
	err    error
}

type Model struct {
	ctx       context.Context
	estimator Estimator

	inputs   [2]textinput.Model
	focus    int
	spinner  spinner.Model
	text     estimation.State
	image    estimation.State
	lastUsed domain.Method
	imageErr string
	sample   int
	width    int
	quitting bool

	readFile func(string) ([]byte, error)
}

func New(ctx context.Context, estimator Estimator) Model {
	dish := textinput.New()
	dish.Placeholder = "e.g. Chicken Biryani"
	dish.CharLimit = 200
	dish.Width = 40
	dish.Prompt = "Dish name: "
	dish.Focus()

	path := textinput.New()
	path.Placeholder = "path/to/dish.jpg"
	path.CharLimit = 1024
	path.Width = 40
	path.Prompt = "Image path: "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle

	return Model{
		ctx:       ctx,
		estimator: estimator,
		inputs:    [2]textinput.Model{dish, path},
		spinner:   sp,
		readFile:  os.ReadFile,
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Display is the coordinated result slot.
func (m Model) Display() estimation.Display {
	return estimation.Coordinate(m.text, m.image, m.lastUsed)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case responseMsg:
		var ev estimation.Event
		if msg.err != nil {
			ev = estimation.ResponseErr(msg.seq, msg.err.Error())
		} else {
			ev = estimation.ResponseOK(msg.seq, msg.result)
		}
		m.apply(msg.method, ev)
		return m, nil

	case spinner.TickMsg:
		if !m.text.IsLoading && !m.image.IsLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "tab", "shift+tab":
		m.inputs[m.focus].Blur()
		m.focus = 1 - m.focus
		return m, m.inputs[m.focus].Focus()

	case "ctrl+r":
		for _, method := range estimation.ResetTargets(m.lastUsed) {
			m.apply(method, estimation.Reset())
		}
		return m, nil

	case "ctrl+s":
		if m.focus == focusText && estimation.ShowSamples(m.text, m.image) {
			m.inputs[focusText].SetValue(estimation.SampleDishes[m.sample%len(estimation.SampleDishes)])
			m.inputs[focusText].CursorEnd()
			m.sample++
		}
		return m, nil

	case "enter":
		if m.focus == focusText {
			return m.submitText()
		}
		return m.submitImage()
	}

	if m.focus == focusImage {
		m.imageErr = ""
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) state(method domain.Method) *estimation.State {
	if method == domain.MethodImage {
		return &m.image
	}
	return &m.text
}

func (m *Model) apply(method domain.Method, ev estimation.Event) estimation.State {
	s := m.state(method)
	*s = estimation.ReduceFor(method, *s, ev)
	return *s
}

func (m Model) submitText() (tea.Model, tea.Cmd) {
	dish := strings.TrimSpace(m.inputs[focusText].Value())
	if dish == "" || m.text.IsLoading {
		return m, nil
	}

	m.lastUsed = domain.MethodText
	seq := m.apply(domain.MethodText, estimation.Submit()).Seq
	ctx, est := m.ctx, m.estimator
	run := func() tea.Msg {
		result, err := est.EstimateDish(ctx, dish)
		return responseMsg{method: domain.MethodText, seq: seq, result: result, err: err}
	}
	return m, tea.Batch(run, m.spinner.Tick)
}

func (m Model) submitImage() (tea.Model, tea.Cmd) {
	path := strings.TrimSpace(m.inputs[focusImage].Value())
	if path == "" || m.image.IsLoading {
		return m, nil
	}

	img, err := loadImage(path, m.readFile)
	if err != nil {
		m.imageErr = err.Error()
		return m, nil
	}
	if err := estimation.ValidateImage(img.MimeType, img.Size()); err != nil {
		m.imageErr = err.Error()
		return m, nil
	}
	m.imageErr = ""

	m.lastUsed = domain.MethodImage
	seq := m.apply(domain.MethodImage, estimation.Submit()).Seq
	ctx, est := m.ctx, m.estimator
	run := func() tea.Msg {
		result, err := est.EstimateImage(ctx, img)
		return responseMsg{method: domain.MethodImage, seq: seq, result: result, err: err}
	}
	return m, tea.Batch(run, m.spinner.Tick)
}

// LoadImage reads an image from disk, taking its MIME type from the extension.
func LoadImage(path string) (domain.ImageUpload, error) {
	return loadImage(path, os.ReadFile)
}

func loadImage(path string, readFile func(string) ([]byte, error)) (domain.ImageUpload, error) {
	data, err := readFile(path)
	if err != nil {
		return domain.ImageUpload{}, fmt.Errorf("failed to read image: %w", err)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = mt
	}
	return domain.ImageUpload{
		Filename: filepath.Base(path),
		MimeType: mimeType,
		Data:     data,
	}, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("🌱 Carbon Footprint Estimator"))
	b.WriteString("\n\n")

	textPanel := "📝 Text Input Method\n" + m.inputs[focusText].View()
	imagePanel := "📸 Image Upload Method\n" + m.inputs[focusImage].View()
	if m.imageErr != "" {
		imagePanel += "\n" + errorStyle.Render(m.imageErr)
	}
	b.WriteString(m.panel(focusText).Render(textPanel))
	b.WriteString("\n")
	b.WriteString(m.panel(focusImage).Render(imagePanel))
	b.WriteString("\n\n")

	d := m.Display()
	if out := RenderDisplay(d); out != "" {
		if d.IsLoading {
			out = m.spinner.View() + " " + out
		}
		b.WriteString(panelStyle.Render(out))
		b.WriteString("\n\n")
	}

	if estimation.ShowSamples(m.text, m.image) {
		b.WriteString(mutedStyle.Render("Try These Popular Dishes: " + strings.Join(estimation.SampleDishes, ", ")))
		b.WriteString("\n\n")
	}

	b.WriteString(mutedStyle.Render("tab switch input • enter estimate • ctrl+s sample dish • ctrl+r reset • esc quit"))
	return b.String()
}

func (m Model) panel(which int) lipgloss.Style {
	if m.focus == which {
		return focusedPanel
	}
	return panelStyle
}

// Run starts the terminal UI and blocks until the user quits.
func Run(ctx context.Context, estimator Estimator) error {
	_, err := tea.NewProgram(New(ctx, estimator), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
