// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package route provides the parameter constraint types used by the
// router's radix tree.
//
// A constraint validates a path parameter's value at dispatch time (int,
// UUID, regex, enum, date, etc.) before a route's handler chain runs:
//
//	r.GET("/users/:id", handler).WhereInt("id")
//
// The package is kept separate from router so the radix tree can depend on
// it without creating an import cycle back into the router package.
package route
