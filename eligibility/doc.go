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


// Package eligibility applies rule-based eligibility checks to ranked
// scheme candidates.
//
// The filter evaluates an ordered list of named rules against every
// candidate. A rule either keeps the candidate, excludes it, or multiplies
// its score by a factor. The first exclusion ends evaluation for that
// candidate; score adjustments accumulate.
//
// Rules run in this order:
//
//   - south-india-region: schemes flagged for South India require a user
//     in one of the configured southern states
//   - bihar-jharkhand-region: schemes flagged for Bihar or Jharkhand require
//     a user in one of those states
//   - state-scope: a scheme observed in fewer than state_scope_min_states
//     states requires the user's state to be one of them
//   - senior-age: old age and senior citizen schemes require age >= 60
//   - scholarship-age: scholarships require 16 <= age <= 30
//   - scholarship-category: scholarships naming a caste category token
//     (obc, sc, st) require the user to belong to one of those categories
//   - bpl-required: schemes naming BPL require a below poverty line user
//   - income-ceiling: low-income schemes exclude users earning more than a
//     multiple of the 95th percentile income observed for the scheme
//
// Missing metadata never excludes a candidate. Rules that depend on
// observed statistics are skipped when the statistic is absent.
//
// Thresholds are tunable through Config, which can be layered from
// defaults, a YAML file and CIVIC_FILTER_* environment variables:
//
//	cfg, err := eligibility.LoadConfig("filter.yaml")
//	if err != nil {
//	    return err
//	}
//	filter, err := eligibility.NewFilter(cfg, catalog)
//	if err != nil {
//	    return err
//	}
//	for _, v := range filter.Apply(profile, candidates) {
//	    if !v.Included {
//	        fmt.Println(v.Candidate.Name, "excluded by", v.Rule, v.Reason)
//	    }
//	}
package eligibility
