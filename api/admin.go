// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.

package api

import (
	"archive/zip"
	"net/http"

	"go.uber.org/zap"
)

const exportFileName = `ixl.db`

// export streams a zipped snapshot of the database file.
func (s *Server) export(rw http.ResponseWriter, rq *http.Request) {
	rw.Header().Set(`Content-Type`, `application/zip`)
	rw.Header().Set(`Content-Disposition`, `attachment; filename="`+exportFileName+`.zip"`)
	zw := zip.NewWriter(rw)
	fw, e := zw.Create(exportFileName)
	if e != nil {
		s.writeInternal(rw, "export failed", e)
		return
	}
	n, e := s.store.WriteTo(fw)
	if e == nil {
		e = zw.Close()
	}
	if e != nil {
		// headers are gone once the snapshot started streaming
		s.log.Error("export failed", zap.Int64("bytes", n), zap.Error(e))
		return
	}
	s.log.Info("database exported", zap.Int64("bytes", n), zap.String("remote", rq.RemoteAddr))
}
