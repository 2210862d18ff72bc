/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package version exposes the build version of the slugline toolchain.
package version

// Version is the semantic version reported by the CLI and the sync server.
// Release builds override it via -ldflags "-X slugline/internal/version.Version=...".
var Version = "0.4.0-dev"

// Commit is the short VCS revision, injected the same way as Version.
var Commit = ""

// String returns the human readable version, including the commit when known.
func String() string {
	if Commit != "" {
		return Version + "+" + Commit
	}
	return Version
}
