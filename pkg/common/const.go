package common

const (
	// Cache key format: task id.
	KEY_WATCHDOG_CURSOR = "watchdog_cursor:%d"
)

const (
	KEY_LOG_HOOK_SEND_ALERT = "send_alert"
)
