// Copyright 2017 karma.run AG. All rights reserved.
// Use of this source code is governed by an AGPL license that can be found in the LICENSE file.
package codec

import (
	"fmt"
	"sort"

	"github.com/karmarun/ixl/kvm/err"
	"github.com/karmarun/ixl/kvm/mdl"
	"github.com/karmarun/ixl/kvm/val"
)

type Instantiator func() Interface

// Interface converts between values and their wire form. Decode is guided
// by model; codecs that embed their own model accept a nil model.
type Interface interface {
	Decode([]byte, mdl.Model) (val.Value, err.Error)
	Encode(val.Value) []byte
}

// Not thread-safe, codecs register in init.
var registry = make(map[string]Instantiator)

func Register(key string, itr Instantiator) {
	if _, ok := registry[key]; ok {
		panic(fmt.Sprintf(`codec already registered for key: %s`, key))
	}
	registry[key] = itr
}

// Available returns the registered codec names in sorted order.
func Available() []string {
	decs := make([]string, 0, len(registry))
	for k := range registry {
		decs = append(decs, k)
	}
	sort.Strings(decs)
	return decs
}

// Get returns a fresh instance of the named codec, or nil.
func Get(key string) Interface {
	i := registry[key]
	if i == nil {
		return nil
	}
	return i()
}
