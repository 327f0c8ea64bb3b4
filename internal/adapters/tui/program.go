package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the presenter full-screen with mouse tracking and blocks until
// the user quits or ctx is done.
func Run(ctx context.Context, backend Backend, opts Options) error {
	m := New(ctx, backend, opts)
	defer m.Close()

	p := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run presenter: %w", err)
	}
	return nil
}
