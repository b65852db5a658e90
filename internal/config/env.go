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

package config

import (
	"os"

	"github.com/ethereum/go-ethereum/log"
)

// Environment variables overriding file values. They are set by the
// deployment and take precedence over the TOML file.
const (
	envDataDir = "GOVCORE_DATA_DIR"
	envDaoID   = "GOVCORE_DAO_ID"
)

// applyEnv overrides file values with the deployment environment.
func applyEnv(f *File) {
	if v := os.Getenv(envDataDir); v != "" && v != f.DataDir {
		log.Info("Data directory overridden by environment", "file", f.DataDir, "env", v)
		f.DataDir = v
	}
	if v := os.Getenv(envDaoID); v != "" && v != f.Governance.DaoID {
		log.Info("DAO id overridden by environment", "file", f.Governance.DaoID, "env", v)
		f.Governance.DaoID = v
	}
}
