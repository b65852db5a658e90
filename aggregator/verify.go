// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package aggregator

import (
	"context"

	"github.com/modulardao/govcore/snapshot"
	"github.com/modulardao/govcore/vote"
	"golang.org/x/sync/errgroup"
)

// DefaultVerifyLimit bounds the number of concurrent signature recoveries.
const DefaultVerifyLimit = 8

// VerifyAll checks every attestation against the snapshot using up to limit
// goroutines. It returns the valid attestations in input order and a slice of
// per-attestation failures, nil where the attestation is valid. The returned
// error is non-nil only if ctx was cancelled.
func VerifyAll(ctx context.Context, v *vote.Verifier, snap *snapshot.Snapshot, atts []*vote.Attestation, limit int) ([]*vote.Attestation, []error, error) {
	if limit <= 0 {
		limit = DefaultVerifyLimit
	}
	failures := make([]error, len(atts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, att := range atts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			weight, proof, err := snap.Prove(att.Voter)
			if err != nil {
				failures[i] = err
				return nil
			}
			failures[i] = v.Verify(att, snap, weight, proof)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	valid := make([]*vote.Attestation, 0, len(atts))
	for i, att := range atts {
		if failures[i] == nil {
			valid = append(valid, att)
		}
	}
	return valid, failures, nil
}
