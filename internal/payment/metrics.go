package payment

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chargesInitiated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yuto_charges_initiated_total",
		Help: "M-PESA charge requests sent to the gateway.",
	})

	webhooksConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yuto_webhooks_confirmed_total",
		Help: "Webhook deliveries that marked a member paid.",
	})

	webhooksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yuto_webhooks_rejected_total",
		Help: "Webhook deliveries rejected before any store mutation.",
	}, []string{"reason"})

	groupsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yuto_groups_settled_total",
		Help: "Groups whose last outstanding payment was confirmed.",
	})
)
