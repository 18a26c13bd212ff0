// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

// Package batch runs a program over a stream of JSON documents.
package batch

import (
	"bufio"
	"context"
	ej "encoding/json"
	"io"
	"time"

	jsoncodec "github.com/karmarun/ixl/codec/json"
	"github.com/karmarun/ixl/kvm"
	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/kvm/val"
	"github.com/karmarun/ixl/metrics"
	"go.uber.org/zap"
)

type Stats struct {
	Processed int
	Failed    int
}

type errorLine struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// Run decodes JSON documents from r, processes each with p and writes one
// line per document to w: the output document, or an error object for a
// document that failed. Failures do not stop the run; a malformed stream
// or a cancelled ctx does.
func Run(ctx context.Context, p *kvm.Program, r io.Reader, w io.Writer, log *zap.Logger) (Stats, error) {
	if log == nil {
		log = zap.NewNop()
	}
	bw := bufio.NewWriter(w)
	enc := ej.NewEncoder(bw)
	stats, line := Stats{}, 0
	var werr error
	e := jsoncodec.DecodeStream(ej.NewDecoder(r), p.InputModel(), func(v val.Value, e err.Error) bool {
		line++
		if ctx.Err() != nil {
			return false
		}
		start := time.Now()
		var out *val.Struct
		if e == nil {
			out, e = p.Process(v.(*val.Struct))
		}
		metrics.ObserveDocument(start, e != nil)
		if e != nil {
			stats.Failed++
			log.Warn("document failed", zap.Int("line", line), zap.Error(e))
			werr = enc.Encode(errorLine{Line: line, Error: err.Root(e).String()})
			return werr == nil
		}
		stats.Processed++
		if _, werr = bw.Write(jsoncodec.Encode(out)); werr == nil {
			werr = bw.WriteByte('\n')
		}
		return werr == nil
	})
	if werr == nil {
		werr = bw.Flush()
	}
	if e != nil {
		return stats, e
	}
	if werr != nil {
		return stats, werr
	}
	return stats, ctx.Err()
}
