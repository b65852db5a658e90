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

package offchain

import "github.com/modulardao/govcore/governance"

// TallyPolicy turns final tallies into an outcome.
type TallyPolicy interface {
	Decide(yes, no, totalWeight uint64) governance.Outcome
}

// SimpleMajority passes when yes strictly exceeds no.
type SimpleMajority struct{}

func (SimpleMajority) Decide(yes, no, _ uint64) governance.Outcome {
	if yes > no {
		return governance.OutcomePass
	}
	return governance.OutcomeFail
}

// TallyPolicyFunc adapts a function to TallyPolicy.
type TallyPolicyFunc func(yes, no, totalWeight uint64) governance.Outcome

func (f TallyPolicyFunc) Decide(yes, no, totalWeight uint64) governance.Outcome {
	return f(yes, no, totalWeight)
}
