package commands

import (
	"fmt"
	"strings"
	"timetable/internal/models/schedule"
	"timetable/internal/service"

	"github.com/charmbracelet/lipgloss"
)

const (
	colorBorder    = "#3A3F55"
	colorAccent    = "#7C3AED"
	colorCurrent   = "#22C55E"
	colorMuted     = "#6D7383"
	colorSecondary = "#B1B8C7"
)

var (
	dayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorAccent))

	todayStyle = dayStyle.
			Underline(true)

	currentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorCurrent))

	slotStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorSecondary))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorBorder)).
			Padding(0, 1)
)

func slotLabel(a *schedule.Activity) string {
	return fmt.Sprintf("%s-%s", a.Slot.Start, a.Slot.End)
}

func renderActivityLine(a *schedule.Activity, current bool) string {
	line := slotStyle.Render(slotLabel(a)) + "  " + a.Name
	if current {
		return currentStyle.Render("▶ ") + line
	}
	return "  " + line
}

// renderWeek рисует неделю блоками по дням, отмечая сегодняшний день и текущую активность
func renderWeek(t *service.Timetable) string {
	today := t.Now.Weekday()

	blocks := make([]string, 0, len(t.Days))
	for _, day := range t.Days {
		var b strings.Builder

		header := dayStyle.Render(day.Day.String())
		if day.Day == today {
			header = todayStyle.Render(day.Day.String()) + mutedStyle.Render(" (сегодня)")
		}
		b.WriteString(header)

		if len(day.Activities) == 0 {
			b.WriteString("\n" + mutedStyle.Render("  свободно"))
		}
		for _, activity := range day.Activities {
			isCurrent := t.Current != nil && t.Current.ID == activity.ID
			b.WriteString("\n" + renderActivityLine(activity, isCurrent))
		}

		blocks = append(blocks, boxStyle.Render(b.String()))
	}

	out := lipgloss.JoinVertical(lipgloss.Left, blocks...)

	if t.ActiveSession != nil {
		out += "\n" + currentStyle.Render("Идёт сессия: ") + t.ActiveSession.ID.String()
	}
	return out
}

func renderCurrent(current *schedule.Activity) string {
	if current == nil {
		return mutedStyle.Render("Сейчас ничего не запланировано")
	}
	return currentStyle.Render(current.Name) + "  " +
		slotStyle.Render(current.Slot.Day.String()+" "+slotLabel(current)) + "  " +
		mutedStyle.Render(current.ID.String())
}
