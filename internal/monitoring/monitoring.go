package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ChangesJournaled    prometheus.Counter
	ChangesPushed       prometheus.Counter
	ChangesPulled       prometheus.Counter
	ConflictsKeepLocal  prometheus.Counter
	ConflictsKeepRemote prometheus.Counter
	ConflictsMerged     prometheus.Counter
	ConflictsManual     prometheus.Counter
	DecryptFailures     prometheus.Counter
	SyncInProgress      prometheus.Gauge
	PendingChanges      prometheus.Gauge
	PushDuration        prometheus.Histogram
	PullDuration        prometheus.Histogram
	JournalAppendLength prometheus.Histogram
	ErrorCount          prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		ChangesJournaled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinisync_changes_journaled_total",
			Help: "Total number of local mutations appended to the change journal",
		}),
		ChangesPushed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinisync_changes_pushed_total",
			Help: "Total number of journal entries acknowledged by a push",
		}),
		ChangesPulled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinisync_changes_pulled_total",
			Help: "Total number of remote changes applied by a pull",
		}),
		ConflictsKeepLocal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinisync_conflicts_keep_local_total",
			Help: "Total number of conflicts resolved in favor of the local change",
		}),
		ConflictsKeepRemote: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinisync_conflicts_keep_remote_total",
			Help: "Total number of conflicts resolved in favor of the remote change",
		}),
		ConflictsMerged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinisync_conflicts_merged_total",
			Help: "Total number of conflicts resolved by a field-level merge",
		}),
		ConflictsManual: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinisync_conflicts_manual_total",
			Help: "Total number of conflicts surfaced for manual resolution",
		}),
		DecryptFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinisync_decrypt_failures_total",
			Help: "Total number of field decryption failures encountered on read",
		}),
		SyncInProgress: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "clinisync_sync_in_progress",
			Help: "1 while a push/pull cycle is running, 0 otherwise",
		}),
		PendingChanges: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "clinisync_pending_changes",
			Help: "Current count of unsynced journal entries",
		}),
		PushDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clinisync_push_duration_seconds",
			Help:    "Time taken to push pending changes to the collaborator",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		PullDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clinisync_pull_duration_seconds",
			Help:    "Time taken to pull and apply remote changes",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		JournalAppendLength: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "clinisync_journal_append_duration_seconds",
			Help:    "Time taken to append a change to the journal",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		ErrorCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "clinisync_errors_total",
			Help: "Total number of errors encountered across the sync pipeline",
		}),
	}
}
