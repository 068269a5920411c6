package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/shiftlog/internal/application"
	"github.com/bnema/shiftlog/internal/domain"
)

const barWidth = 20

type Leaderboard struct {
	TenantID  domain.TenantID
	Period    domain.Period
	Range     domain.Interval
	Location  *time.Location
	Standings []application.Standing
}

type Totals struct {
	Period   domain.Period
	Location *time.Location
	Totals   application.Totals
}

func leaderboardView(board Leaderboard, s styles) string {
	lines := []string{
		s.title.Render(fmt.Sprintf("Top - %s", board.Period)),
		s.header.Render(fmt.Sprintf("tenant: %s  %s", board.TenantID, rangeLabel(board.Range, board.Location))),
	}

	if len(board.Standings) == 0 {
		lines = append(lines, s.empty.Render("No records yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	best := board.Standings[0].Coins
	rows := make([]string, 0, len(board.Standings))
	for _, standing := range board.Standings {
		rows = append(rows, standingLine(standing, best, s))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func standingLine(standing application.Standing, best float64, s styles) string {
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.rank.Render(fmt.Sprintf("%d.", standing.Rank)),
		s.user.Render(string(standing.UserID)),
		" ",
		renderProgressBar(share(standing.Coins, best), barWidth, s),
		" ",
		coinStyle(standing.Coins, s).Render(fmt.Sprintf("%.2f coins", standing.Coins)),
		" ",
		s.detail.Render(fmt.Sprintf("(%s normal, %s stellar)", FormatMinutes(standing.Split.Normal), FormatMinutes(standing.Split.Stellar))),
	)
}

func totalsView(t Totals, s styles) string {
	totals := t.Totals
	lines := []string{
		s.title.Render(fmt.Sprintf("Totals - %s", t.Period)),
		s.header.Render(fmt.Sprintf("tenant: %s  user: %s  %s", totals.TenantID, totals.UserID,
			rangeLabel(domain.Interval{Start: totals.From, End: totals.To}, t.Location))),
	}

	body := []string{
		s.detail.Render(fmt.Sprintf("normal:  %s", FormatMinutes(totals.Split.Normal))),
		s.detail.Render(fmt.Sprintf("stellar: %s", FormatMinutes(totals.Split.Stellar))),
	}
	if totals.AdjustmentMinutes != 0 {
		body = append(body, s.detail.Render(fmt.Sprintf("includes %+d min of adjustments", totals.AdjustmentMinutes)))
	}
	body = append(body, coinStyle(totals.Coins, s).Render(fmt.Sprintf("coins:   %.2f", totals.Coins)))
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, body...)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func coinStyle(coins float64, s styles) lipgloss.Style {
	if coins < 0 {
		return s.negative
	}
	return s.coins
}

// share is coins as a percentage of the leader's coins.
func share(coins, best float64) float64 {
	if best <= 0 || coins <= 0 {
		return 0
	}
	return math.Min(100, coins/best*100)
}

func renderProgressBar(percent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * percent / 100))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func rangeLabel(window domain.Interval, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	end := window.End.In(loc).Format("2006-01-02 15:04")
	if window.Start.IsZero() {
		return "all time to " + end
	}
	return fmt.Sprintf("%s to %s", window.Start.In(loc).Format("2006-01-02 15:04"), end)
}

// FormatMinutes renders minutes as 2h05m.
func FormatMinutes(minutes int64) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%dh%02dm", sign, minutes/60, minutes%60)
}
