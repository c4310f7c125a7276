// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/parsdao/vault/errcode"
)

// Metrics counts Vault activity. A nil *Metrics records nothing.
type Metrics struct {
	calls           *prometheus.CounterVec
	swaps           *prometheus.CounterVec
	flashLoans      prometheus.Counter
	flashLoanTokens prometheus.Counter
	feesCredited    *prometheus.CounterVec
	poolsRegistered *prometheus.CounterVec
}

// NewMetrics creates the Vault metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_calls_total",
			Help: "Vault entry point calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		swaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_swaps_total",
			Help: "Committed pool swaps by pool specialization.",
		}, []string{"specialization"}),
		flashLoans: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_flash_loans_total",
			Help: "Committed flash loans.",
		}),
		flashLoanTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_flash_loan_tokens_total",
			Help: "Tokens lent across committed flash loans.",
		}),
		feesCredited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_protocol_fees_credited_total",
			Help: "Protocol fee credits by source.",
		}, []string{"source"}),
		poolsRegistered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_pools_registered_total",
			Help: "Registered pools by specialization.",
		}, []string{"specialization"}),
	}
	for _, c := range []prometheus.Collector{
		m.calls,
		m.swaps,
		m.flashLoans,
		m.flashLoanTokens,
		m.feesCredited,
		m.poolsRegistered,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeCall(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = errcode.Reason(err)
		if _, coded := errcode.As(err); !coded {
			outcome = "error"
		}
	}
	m.calls.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) observeSwap(specialization PoolSpecialization) {
	if m == nil {
		return
	}
	m.swaps.WithLabelValues(specialization.String()).Inc()
}

func (m *Metrics) observeFlashLoan(tokens int) {
	if m == nil {
		return
	}
	m.flashLoans.Inc()
	m.flashLoanTokens.Add(float64(tokens))
}

func (m *Metrics) observeFee(source string) {
	if m == nil {
		return
	}
	if source == "" {
		source = "unknown"
	}
	m.feesCredited.WithLabelValues(source).Inc()
}

func (m *Metrics) observePoolRegistered(specialization PoolSpecialization) {
	if m == nil {
		return
	}
	m.poolsRegistered.WithLabelValues(specialization.String()).Inc()
}
