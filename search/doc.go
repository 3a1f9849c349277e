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


// Package search provides similarity search over stored document embeddings.
//
// An Index keeps one vector per content record and answers queries with the
// records whose cosine similarity to the query strictly exceeds a threshold
// (default 0.5), best first, at most count (default 10) of them. Similarity is
// recomputed exactly for every candidate; there is no approximate index.
//
// Text queries are embedded through the same capability invoker that embeds
// documents, so queries and documents share one vector space. Results that
// contain every significant query word, in the body or in the generated
// title, keywords or tags, are flagged as verbatim hits.
package search
