// Package metrics exposes prometheus counters for the connection,
// conversation and community workflows.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// ConnectionRequests counts workflow transitions by outcome: sent, accepted, rejected
	ConnectionRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ubuhinzi_connection_requests_total",
			Help: "Connection request workflow transitions.",
		},
		[]string{"outcome"},
	)

	// ConversationsCreated counts new conversations by type
	ConversationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ubuhinzi_conversations_created_total",
			Help: "Conversations created.",
		},
		[]string{"type"},
	)

	// MessagesAppended counts appended messages by kind
	MessagesAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ubuhinzi_messages_appended_total",
			Help: "Messages appended to conversations.",
		},
		[]string{"kind"},
	)

	// CommunityActions counts community board writes by action
	CommunityActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ubuhinzi_community_actions_total",
			Help: "Posts, comments, likes, plots, listings and alerts written.",
		},
		[]string{"action"},
	)

	// AssistantCalls counts assistant calls by operation and result
	AssistantCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ubuhinzi_assistant_calls_total",
			Help: "Calls to the generative-language provider.",
		},
		[]string{"operation", "result"},
	)

	// Snapshots counts state persistence runs by result
	Snapshots = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ubuhinzi_state_snapshots_total",
			Help: "State snapshots written to storage.",
		},
		[]string{"result"},
	)

	// StateVersion reports the committed state version
	StateVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ubuhinzi_state_version",
			Help: "Number of committed state write transactions.",
		},
	)
)

// Registry holds every collector of this package
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		ConnectionRequests,
		ConversationsCreated,
		MessagesAppended,
		CommunityActions,
		AssistantCalls,
		Snapshots,
		StateVersion,
		collectors.NewGoCollector(),
	)
}
