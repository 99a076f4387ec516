package http

import (
	"time"

	"github.com/aussiebroadwan/habits/internal/habits/dispatch"
	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/service"
	"github.com/aussiebroadwan/habits/pkg/habitsdk"
)

func toUserResponse(u domain.User) habitsdk.UserResponse {
	return habitsdk.UserResponse{
		ID:         u.ID,
		Username:   u.Username,
		IsAdmin:    u.IsAdmin,
		TelegramID: u.ExternalHandle,
		CreatedAt:  u.CreatedAt,
	}
}

func toHabitResponse(h domain.Habit) habitsdk.HabitResponse {
	return habitsdk.HabitResponse{
		ID:           h.ID,
		UserID:       h.UserID,
		Name:         h.Name,
		Description:  h.Description,
		Frequency:    string(h.Frequency),
		TargetCount:  h.TargetCount,
		Reminder:     h.Reminder,
		ReminderTime: h.ReminderTime,
		CreatedAt:    h.CreatedAt,
	}
}

func toEntryResponse(e domain.Entry) habitsdk.EntryResponse {
	return habitsdk.EntryResponse{
		ID:          e.ID,
		HabitID:     e.HabitID,
		UserID:      e.UserID,
		Completed:   e.Completed,
		Note:        e.Note,
		CompletedAt: e.CompletedAt,
	}
}

func toNotificationResponse(n domain.Notification) habitsdk.NotificationResponse {
	return habitsdk.NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		HabitID:   n.HabitID,
		Type:      string(n.Type),
		Message:   n.Message,
		Sent:      n.Sent,
		CreatedAt: n.CreatedAt,
	}
}

func toSettingsResponse(s domain.SystemSettings) habitsdk.SettingsResponse {
	return habitsdk.SettingsResponse{
		TelegramBotToken:     s.TelegramBotToken,
		EnableNotifications:  s.EnableNotifications,
		NotificationInterval: s.NotificationInterval,
		UpdatedAt:            s.UpdatedAt,
	}
}

func toHabitStatsResponse(s service.HabitStats) habitsdk.HabitStatsResponse {
	return habitsdk.HabitStatsResponse{
		Habit:          toHabitResponse(s.Habit),
		PeriodCount:    s.PeriodCount,
		CompletionRate: s.CompletionRate,
		Streak:         s.Streak,
		TotalEntries:   s.TotalEntries,
	}
}

func toTimelineResponse(t service.Timeline) habitsdk.TimelineResponse {
	resp := habitsdk.TimelineResponse{
		WeekStart: t.Start.Format(service.DayLayout),
		Days:      make([]string, len(t.Days)),
		Habits:    make([]habitsdk.TimelineRowResponse, len(t.Rows)),
	}
	for i, d := range t.Days {
		resp.Days[i] = d.Format(service.DayLayout)
	}
	for i, row := range t.Rows {
		resp.Habits[i] = habitsdk.TimelineRowResponse{
			Habit: toHabitResponse(row.Habit),
			Done:  row.Done[:],
		}
	}
	return resp
}

func toReportResponse(rep dispatch.Report) habitsdk.DispatchReportResponse {
	resp := habitsdk.DispatchReportResponse{
		TickID:     rep.TickID.String(),
		StartedAt:  rep.StartedAt,
		DurationMS: rep.Duration.Milliseconds(),
		Disabled:   rep.Disabled,
		Attempts:   rep.Attempts,
		Delivered:  rep.Delivered,
		Skipped:    rep.Skipped,
		Failed:     rep.Failed,
		Expired:    rep.Expired,
		Results:    make([]habitsdk.DispatchResultResponse, len(rep.Results)),
	}
	if rep.Err != nil {
		resp.Error = rep.Err.Error()
	}
	for i, res := range rep.Results {
		resp.Results[i] = habitsdk.DispatchResultResponse{
			NotificationID: res.NotificationID,
			UserID:         res.UserID,
			Outcome:        string(res.Outcome),
		}
		if res.Err != nil {
			resp.Results[i].Error = res.Err.Error()
		}
	}
	return resp
}

func toDispatcherStatusResponse(st dispatch.Status, transportActive bool) habitsdk.DispatcherStatusResponse {
	resp := habitsdk.DispatcherStatusResponse{
		State:           string(st.State),
		Enabled:         st.Config.Enabled,
		IntervalSeconds: int(st.Config.Interval / time.Second),
		TransportActive: transportActive,
	}
	if !st.NextRun.IsZero() {
		next := st.NextRun
		resp.NextRun = &next
	}
	if st.LastReport != nil {
		last := toReportResponse(*st.LastReport)
		resp.LastReport = &last
	}
	return resp
}
