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

// Package config loads the deployment configuration of a governance core:
// timing parameters and the genesis access control entries.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/modulardao/govcore/acl"
	"github.com/modulardao/govcore/governance"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	errMissingSubject = errors.New("acl entry without subject")
	errEmptyFlags     = errors.New("acl entry grants nothing")
)

// File is the on-disk layout, TOML or YAML.
type File struct {
	DataDir    string           `toml:"data_dir" yaml:"data_dir"` // empty keeps the ledger in memory
	Governance GovernanceConfig `toml:"governance" yaml:"governance"`
	ACL        []ACLEntry       `toml:"acl" yaml:"acl"`
}

// GovernanceConfig mirrors governance.Config with file friendly types.
type GovernanceConfig struct {
	DaoID         string `toml:"dao_id" yaml:"dao_id"`
	VotingPeriod  uint64 `toml:"voting_period" yaml:"voting_period"`
	GracePeriod   uint64 `toml:"grace_period" yaml:"grace_period"`
	SnapshotCache int    `toml:"snapshot_cache" yaml:"snapshot_cache"`
}

// ACLEntry is one genesis capability grant. Flags carries a precomputed
// bitset (decimal or 0x hex), Capabilities lists names; both are merged.
type ACLEntry struct {
	Subject      string   `toml:"subject" yaml:"subject"`
	Target       string   `toml:"target" yaml:"target"` // "dao", "acl" or a 32 byte hex id
	Flags        string   `toml:"flags" yaml:"flags"`
	Capabilities []string `toml:"capabilities" yaml:"capabilities"`
}

// Default returns a file populated with the default governance timing.
func Default() *File {
	def := governance.DefaultConfig()
	return &File{
		Governance: GovernanceConfig{
			VotingPeriod:  def.VotingPeriod,
			GracePeriod:   def.GracePeriod,
			SnapshotCache: def.SnapshotCache,
		},
	}
}

// Load reads a config file on top of the defaults and applies environment
// overrides. Files ending in .yaml or .yml are decoded as YAML, anything else
// as TOML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	}
	return Parse(data)
}

// Parse decodes TOML data on top of the defaults and applies environment
// overrides.
func Parse(data []byte) (*File, error) {
	file := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(file); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("config line %d column %d: %v", row, col, derr)
		}
		return nil, err
	}
	applyEnv(file)
	return file, nil
}

// ParseYAML is Parse for YAML documents.
func ParseYAML(data []byte) (*File, error) {
	file := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyEnv(file)
	return file, nil
}

// GovernanceConfig converts and validates the governance section.
func (f *File) GovernanceConfig() (*governance.Config, error) {
	if f.Governance.DaoID != "" && !common.IsHexAddress(f.Governance.DaoID) {
		return nil, fmt.Errorf("%w: dao id %q", governance.ErrInvalidConfig, f.Governance.DaoID)
	}
	config := &governance.Config{
		DaoID:         common.HexToAddress(f.Governance.DaoID),
		VotingPeriod:  f.Governance.VotingPeriod,
		GracePeriod:   f.Governance.GracePeriod,
		SnapshotCache: f.Governance.SnapshotCache,
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ACLEntries converts the genesis capability grants.
func (f *File) ACLEntries() ([]acl.Entry, error) {
	entries := make([]acl.Entry, 0, len(f.ACL))
	for i, e := range f.ACL {
		entry, err := e.convert()
		if err != nil {
			return nil, fmt.Errorf("acl entry %d: %w", i, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (e *ACLEntry) convert() (acl.Entry, error) {
	if e.Subject == "" {
		return acl.Entry{}, errMissingSubject
	}
	if !common.IsHexAddress(e.Subject) {
		return acl.Entry{}, fmt.Errorf("invalid subject %q", e.Subject)
	}
	target, err := parseTarget(e.Target)
	if err != nil {
		return acl.Entry{}, err
	}
	var flags acl.Flags
	if e.Flags != "" {
		if flags, err = acl.ParseFlags(e.Flags); err != nil {
			return acl.Entry{}, err
		}
	}
	for _, name := range e.Capabilities {
		c, err := acl.ParseCapability(name)
		if err != nil {
			return acl.Entry{}, err
		}
		flags = flags.Union(acl.MustFlags(c))
	}
	if flags.IsZero() {
		return acl.Entry{}, errEmptyFlags
	}
	return acl.Entry{Subject: common.HexToAddress(e.Subject), Target: target, Flags: flags}, nil
}

func parseTarget(s string) (common.Hash, error) {
	switch strings.ToLower(s) {
	case "", "dao":
		return acl.DAOTarget, nil
	case "acl":
		return acl.RegistryTarget, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid target %q", s)
	}
	return common.BytesToHash(b), nil
}
