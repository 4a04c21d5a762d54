package models

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&RefreshToken{},
		&Subscription{},
		&Team{},
		&TeamMember{},
		&Channel{},
		&Video{},
		&Comment{},
		&Report{},
		&Dashboard{},
		&AIInsight{},
		&UserDevice{},
		&SecurityAlert{},
		&SyncEvent{},
		&AnonymousTrial{},
		&Translation{},
		&SystemLog{},
	}
}

// CanonicalTables are the table names the API expects to exist.
var CanonicalTables = []string{
	"yt_users", "yt_refresh_tokens", "yt_subscriptions", "yt_teams",
	"yt_team_members", "yt_channels", "yt_videos", "yt_comments",
	"yt_reports", "yt_dashboards", "yt_ai_insights", "yt_user_devices",
	"yt_security_alerts", "yt_sync_events", "yt_anonymous_trials",
	"yt_translations", "system_logs",
}
