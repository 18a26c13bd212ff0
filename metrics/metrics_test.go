// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveDocument(t *testing.T) {
	ok := testutil.ToFloat64(documentsProcessed.WithLabelValues(OutcomeOK))
	failed := testutil.ToFloat64(documentsProcessed.WithLabelValues(OutcomeFailed))
	ObserveDocument(time.Now(), false)
	ObserveDocument(time.Now(), false)
	ObserveDocument(time.Now(), true)
	if d := testutil.ToFloat64(documentsProcessed.WithLabelValues(OutcomeOK)) - ok; d != 2 {
		t.Fatalf("ok counter moved by %v", d)
	}
	if d := testutil.ToFloat64(documentsProcessed.WithLabelValues(OutcomeFailed)) - failed; d != 1 {
		t.Fatalf("failed counter moved by %v", d)
	}
}
