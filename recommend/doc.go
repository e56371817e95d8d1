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


// Package recommend composes the similarity ranker and the eligibility
// filter into the recommendation flow.
//
// A request embeds the profile text, ranks a candidate pool larger than
// the requested result size, filters the pool, deduplicates by scheme
// name, re-sorts by the possibly adjusted score and truncates. When fewer
// candidates survive than were requested the shorter list is returned;
// ineligible schemes are never used as padding.
//
// A Monitor observes each stage:
//
//	result, err := recommender.RecommendWithMonitor(ctx, profile, 10,
//	    recommend.NewLogMonitor(slog.Default()))
package recommend
