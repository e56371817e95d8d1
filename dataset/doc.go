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


// Package dataset reads the beneficiary dataset that drives CivicConnect.
//
// The dataset is a CSV file with one row per beneficiary profile and a
// semicolon separated list of the schemes that profile was eligible for.
// Required columns are age, annual_income, category, state, is_bpl and
// eligible_schemes; column order does not matter and header names are
// matched case-insensitively.
//
// # Usage
//
//	ds, err := dataset.Load("data/schemes.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	names := dataset.SchemeNames(ds.Records)
//
// Load returns core.ErrData for a missing file, a missing column or a file
// without data rows. Individual malformed numeric cells are treated as
// missing values rather than errors.
package dataset
