package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		chatsJoinedTotal,
		telegramCommandsReceivedTotal,
		telegramRateLimitTriggeredTotal,
		adminCommandsTotal,
	)
}

var (
	chatsJoinedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chats_joined_total",
			Help: "Total number of group chats the bot was added to.",
		},
	)

	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming messages and commands from users.",
		},
		[]string{"command"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)

	adminCommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_commands_total",
			Help: "Privileged actions by outcome (authorized/unauthorized).",
		},
		[]string{"command", "status"},
	)
)

func IncChatsJoined() {
	chatsJoinedTotal.Inc()
}

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(norm(command)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}

func IncAdminCommand(command, status string) {
	adminCommandsTotal.WithLabelValues(norm(command), norm(status)).Inc()
}
