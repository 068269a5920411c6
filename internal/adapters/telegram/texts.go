package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bnema/shiftlog/internal/application"
	"github.com/bnema/shiftlog/internal/domain"
)

const (
	helpText = "Commands:\n" +
		"/start_shift - start your shift\n" +
		"/pause - take a break\n" +
		"/resume - back from the break\n" +
		"/stop - end your shift\n" +
		"/on_shift - who is on shift now\n" +
		"/top [today|week|month|all] - leaderboard\n" +
		"/total [today|week|month|all] - your totals"

	groupOnlyText   = "Use this command in your team chat."
	startedText     = "Shift started. Have a good one!"
	pausedText      = "Break started."
	resumedText     = "Welcome back, the clock is running again."
	noRecordsText   = "No records yet."
	ackText         = "Great, your shift keeps counting."
	closedFromPing  = "Shift closed."
	notYourShift    = "This shift belongs to someone else."
	genericFailText = "Something went wrong, try again later."
	rosterTitle     = "<b>On shift now</b>"
	rosterEmpty     = "Nobody yet."
)

const rosterLimit = 20

const (
	panelPrefix = "panel:"
	panelStart  = "start"
	panelStop   = "stop"
	panelPause  = "pause"
	panelResume = "resume"
)

func panelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Start", panelPrefix+panelStart),
		tgbotapi.NewInlineKeyboardButtonData("Stop", panelPrefix+panelStop),
		tgbotapi.NewInlineKeyboardButtonData("Break", panelPrefix+panelPause),
		tgbotapi.NewInlineKeyboardButtonData("Resume", panelPrefix+panelResume),
	))
}

// rosterText lists the first rosterLimit users on shift; paused users are
// marked as on break.
func rosterText(sessions []domain.Session) string {
	if len(sessions) == 0 {
		return rosterTitle + "\n" + rosterEmpty
	}

	var b strings.Builder
	b.WriteString(rosterTitle)
	for i, s := range sessions {
		if i == rosterLimit {
			fmt.Fprintf(&b, "\n+%d more", len(sessions)-rosterLimit)
			break
		}
		b.WriteString("\n" + mention(string(s.UserID)))
		if s.Status == domain.StatusPaused {
			b.WriteString(" (on break)")
		}
	}
	return b.String()
}

func stoppedText(result application.SessionResult) string {
	return fmt.Sprintf("Shift closed: +%s normal, +%s stellar = %.2f coins. Thanks!",
		formatMinutes(result.Split.Normal), formatMinutes(result.Split.Stellar), result.Coins)
}

func topText(period domain.Period, standings []application.Standing) string {
	if len(standings) == 0 {
		return noRecordsText
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Top - %s</b>\n", period)
	for _, s := range standings {
		fmt.Fprintf(&b, "%d. %s %.2f coins (%s normal, %s stellar)\n",
			s.Rank, mention(string(s.UserID)), s.Coins, formatMinutes(s.Split.Normal), formatMinutes(s.Split.Stellar))
	}
	return strings.TrimRight(b.String(), "\n")
}

func totalText(period domain.Period, totals application.Totals) string {
	text := fmt.Sprintf("Your %s: %s normal, %s stellar = %.2f coins",
		period, formatMinutes(totals.Split.Normal), formatMinutes(totals.Split.Stellar), totals.Coins)
	if totals.AdjustmentMinutes != 0 {
		text += fmt.Sprintf(" (includes %+d min of adjustments)", totals.AdjustmentMinutes)
	}
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, text)
}

// formatMinutes renders minutes as 2h05m. Negative totals keep their sign.
func formatMinutes(minutes int64) string {
	sign := ""
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%dh%02dm", sign, minutes/60, minutes%60)
}
