// Copyright 2025 Poiesic Systems
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


// Package stream encodes search events as newline-delimited JSON.
//
// Each event becomes one line:
//
//	{"direction":"forward","path":[{"target":"A","displayText":"A","origin":""}],"time":0.42}
//	{"direction":"forward","path":[...],"time":1.03,"finished":true}
//	{"direction":"backward","error":"search budget exceeded: 60s elapsed","time":60.01}
//	{"error":"invalid endpoint: no page named \"Atlantis\""}
//
// Times are elapsed seconds with two decimals.
package stream
