package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	"worktime/internal/model"
)

const clockLayout = "15:04"

func formatForceCompleted(reason string, tasks []model.Task) string {
	var sb strings.Builder
	sb.WriteString("⏹ <b>Tasks completed</b>\n")
	sb.WriteString(html.EscapeString(reason))
	sb.WriteString("\n\n")
	for _, t := range tasks {
		sb.WriteString(fmt.Sprintf("✅ %s\n", html.EscapeString(strings.TrimSpace(t.Title))))
	}
	return strings.TrimSpace(sb.String())
}

func formatDayClosed(rec *model.DayRecord, loc *time.Location) string {
	var sb strings.Builder
	sb.WriteString("🌙 <b>Day closed automatically</b>\n")
	sb.WriteString(fmt.Sprintf("🗓 %s\n", rec.DayIn.In(loc).Format("02.01.2006")))
	sb.WriteString(fmt.Sprintf("Day in %s", rec.DayIn.In(loc).Format(clockLayout)))
	if rec.DayOut != nil {
		sb.WriteString(fmt.Sprintf(", day out set to %s", rec.DayOut.In(loc).Format(clockLayout)))
	}
	sb.WriteString(".\nRemember to record a day out at the end of your shift.")
	return sb.String()
}

func formatToday(rec *model.DayRecord, loc *time.Location, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("📋 <b>Today</b>\n")
	sb.WriteString(fmt.Sprintf("🗓 %s, day in %s\n\n", rec.DayIn.In(loc).Format("02.01.2006"), rec.DayIn.In(loc).Format(clockLayout)))

	var worked time.Duration
	for _, e := range rec.ClockEntries {
		in := e.ClockIn.In(loc).Format(clockLayout)
		if e.ClockOut == nil {
			sb.WriteString(fmt.Sprintf("🟢 %s - now\n", in))
			worked += now.Sub(e.ClockIn)
			continue
		}
		sb.WriteString(fmt.Sprintf("⚪️ %s - %s\n", in, e.ClockOut.In(loc).Format(clockLayout)))
		worked += e.ClockOut.Sub(e.ClockIn)
	}
	if worked < 0 {
		worked = 0
	}
	minutes := int(worked / time.Minute)
	sb.WriteString(fmt.Sprintf("\n⏱ Clocked %dh %02dm", minutes/60, minutes%60))
	return sb.String()
}

func helpText(chatID int64) string {
	return fmt.Sprintf("👋 Your chat id is <code>%d</code>.\nUse it as telegramChatId when signing up to receive attendance notifications.\n\n/today shows your open day.", chatID)
}

func notLinkedText(chatID int64) string {
	return fmt.Sprintf("🔗 This chat is not linked to an account. Sign up with telegramChatId <code>%d</code>.", chatID)
}
