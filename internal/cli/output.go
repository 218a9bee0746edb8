package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true)
)

// printer writes styled status lines to a command's output.
type printer struct{ w io.Writer }

func (p printer) line(icon lipgloss.Style, mark, format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", icon.Render(mark), fmt.Sprintf(format, args...))
}

func (p printer) Success(format string, args ...any) { p.line(successStyle, "✓", format, args...) }
func (p printer) Warning(format string, args ...any) { p.line(warningStyle, "⚠", format, args...) }
func (p printer) Error(format string, args ...any)   { p.line(errorStyle, "✗", format, args...) }
func (p printer) Info(format string, args ...any)    { p.line(infoStyle, "ℹ", format, args...) }

func (p printer) Title(s string) {
	fmt.Fprintln(p.w, titleStyle.Render(s))
}
