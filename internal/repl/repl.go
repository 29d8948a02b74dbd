package repl

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the full-screen chat and blocks until the user quits or ctx is done.
func Run(ctx context.Context, assistant Assistant, opts Options) error {
	p := tea.NewProgram(
		NewModel(ctx, assistant, opts),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run chat: %w", err)
	}
	return nil
}
