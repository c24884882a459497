/*
 * Copyright 2026 Ledger-SHM Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ledger

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	claimsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledger_shm",
		Name:      "claims_total",
		Help:      "Extent claim attempts by result.",
	}, []string{"result"})

	releasedBlocksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ledger_shm",
		Name:      "released_blocks_total",
		Help:      "Total capacity blocks released.",
	})
)

func init() {
	prometheus.MustRegister(claimsTotal, releasedBlocksTotal)
}

func (l *Ledger) initInstrumentation(conf *Config) {
	if conf.Tracer != nil {
		l.tracer = conf.Tracer
	} else {
		l.tracer = noop.NewTracerProvider().Tracer("ledger-shm")
	}
	if conf.Meter != nil {
		c, err := conf.Meter.Int64Counter("ledger.claims",
			metric.WithDescription("extent claim attempts"))
		if err != nil {
			internalLogger.warnf("otel claim counter: %v", err)
		} else {
			l.claimCounter = c
		}
	}
}

func (l *Ledger) countClaim(err error) {
	result := "claimed"
	switch {
	case err == nil:
	case errors.Is(err, ErrConflict):
		result = "conflict"
	default:
		result = "error"
	}
	claimsTotal.WithLabelValues(result).Inc()
	if l.claimCounter != nil {
		l.claimCounter.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("result", result)))
	}
}

func (l *Ledger) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return l.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int64("ledger.head", int64(l.conf.HeadID))))
}
