package market

import (
	"errors"
	"io"

	"github.com/bnema/lumiere-ledger/internal/application"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

type renderReadyMsg struct{}

type model struct {
	draw   func(styles) string
	styles styles
	output string
}

func newModel(draw func(styles) string) model {
	return model{
		draw:   draw,
		styles: newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		return renderReadyMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case renderReadyMsg:
		m.output = m.draw(m.styles)
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m model) View() string {
	return m.output
}

func RenderMarketplace(view application.MarketplaceView, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return renderMarketplace(view, opts, s)
	})
}

func RenderState(view application.StateView, opts RenderOptions) (string, error) {
	return run(func(s styles) string {
		return renderState(view, opts, s)
	})
}

func RenderChain(report application.ChainReport) (string, error) {
	return run(func(s styles) string {
		return renderChain(report, s)
	})
}

func run(draw func(styles) string) (string, error) {
	p := tea.NewProgram(
		newModel(draw),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
