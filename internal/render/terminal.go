package render

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/vladislavdragonenkov/cafecart/internal/domain"
)

// CurrencySymbol - символ валюты в выводе корзины.
const CurrencySymbol = "₹"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	totalStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("63")).
			Padding(0, 1)

	levelStyles = map[domain.NotificationLevel]lipgloss.Style{
		domain.NotificationInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		domain.NotificationSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		domain.NotificationDanger:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

// FormatAmount печатает сумму так же, как её видит покупатель: ₹9, ₹2.5.
func FormatAmount(amount float64) string {
	return CurrencySymbol + strconv.FormatFloat(amount, 'f', -1, 64)
}

// Terminal рисует корзину, бейдж и уведомления в текстовый поток.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminal создаёт Terminal поверх out.
func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// RenderCart печатает позиции корзины и итоговую сумму.
func (t *Terminal) RenderCart(view domain.CartView) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if view.Empty {
		fmt.Fprintln(t.out, mutedStyle.Render("Your cart is empty"))
		return
	}

	fmt.Fprintln(t.out, titleStyle.Render("Your Cart"))
	tw := tabwriter.NewWriter(t.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tITEM\tPRICE\tQTY\tTOTAL")
	for _, line := range view.Lines {
		fmt.Fprintf(tw, "%s\t%s\t%s per item\t%d\t%s\n",
			line.ID,
			line.Name,
			FormatAmount(line.Price),
			line.Quantity,
			FormatAmount(line.LineTotal),
		)
	}
	_ = tw.Flush()
	fmt.Fprintln(t.out, totalStyle.Render("Total Amount: "+FormatAmount(view.TotalAmount)))
}

// RenderBadge печатает счётчик позиций; скрытый бейдж не выводится.
func (t *Terminal) RenderBadge(badge domain.BadgeView) {
	if !badge.Visible {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, badgeStyle.Render(fmt.Sprintf("Cart (%d)", badge.Count)))
}

// Notify печатает уведомление с уровнем.
func (t *Terminal) Notify(level domain.NotificationLevel, message string) {
	style, ok := levelStyles[level]
	if !ok {
		style = levelStyles[domain.NotificationInfo]
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, style.Render(fmt.Sprintf("[%s] %s", level, message)))
}

var (
	_ domain.Renderer = (*Terminal)(nil)
	_ domain.Notifier = (*Terminal)(nil)
)
