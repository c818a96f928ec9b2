package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InspectionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quality_inspections_created_total",
		Help: "QC records created.",
	})

	InspectionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quality_inspections_completed_total",
		Help: "QC inspections completed, by result.",
	}, []string{"result"})

	InspectionsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quality_inspections_cancelled_total",
		Help: "QC records cancelled.",
	})

	VersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quality_version_conflicts_total",
		Help: "Optimistic concurrency conflicts on save.",
	})
)
