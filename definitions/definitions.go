// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package definitions

const (
	DocumentBucket = `DocumentBucket` // id -> binary encoded output document
	MetaBucket     = `MetaBucket`
	ProgramKey     = `Program` // MetaBucket key holding the bound program
)

var (
	DocumentBucketBytes = []byte(DocumentBucket)
	MetaBucketBytes     = []byte(MetaBucket)
	ProgramKeyBytes     = []byte(ProgramKey)
)
