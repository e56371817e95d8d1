// Package metadata derives per-scheme eligibility statistics from the
// beneficiary dataset.
//
// For every scheme name the builder records which states, categories, ages
// and incomes were observed among the beneficiaries listing that scheme,
// plus keyword flags computed from the name itself. The eligibility filter
// consults these statistics instead of hard-coded scheme lists.
//
// Results are persisted as a JSON artifact tagged with the digest of the
// dataset they were built from; LoadOrBuild regenerates the artifact
// whenever the dataset changes or the artifact cannot be read.
package metadata
