// Copyright 2025 The OpenChoreo Authors
// SPDX-License-Identifier: Apache-2.0

package deploy

import (
	"fmt"
	"math/rand"
	"time"
)

// words is a small embedded word list standing in for Faker's word corpus;
// no fake-name-generator library appears anywhere in the retrieval pack.
var words = []string{
	"amber", "birch", "cedar", "delta", "ember", "falcon", "glade", "heron",
	"ivory", "jasper", "kestrel", "lotus", "maple", "nimbus", "opal", "pebble",
	"quartz", "raven", "sable", "tundra", "umber", "violet", "willow", "xenon",
	"yarrow", "zephyr", "amber", "basalt", "coral", "dune",
}

// NameGenerator produces SpinApp names of the form spin-<word>-<word>-<n>.
type NameGenerator struct {
	rng *rand.Rand
}

// NewNameGenerator constructs a NameGenerator seeded from the runtime.
func NewNameGenerator() *NameGenerator {
	return &NameGenerator{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Generate returns a randomly chosen, lowercase, Kubernetes-name-safe
// application name; repeated calls can return the same name.
func (g *NameGenerator) Generate() string {
	word1 := words[g.rng.Intn(len(words))]
	word2 := words[g.rng.Intn(len(words))]
	number := g.rng.Intn(9000) + 1000
	return fmt.Sprintf("spin-%s-%s-%d", word1, word2, number)
}
