package metadata

import (
	"fmt"
	"slices"

	"github.com/utkarshchauhan26/CivicConnect/core"
)

// Catalog maps scheme names to their metadata.
type Catalog map[string]*core.SchemeMetadata

// Lookup returns the metadata for name, or nil when the scheme is unknown.
func (c Catalog) Lookup(name string) *core.SchemeMetadata {
	if c == nil {
		return nil
	}
	return c[name]
}

// Names returns the catalogued scheme names in ascending order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// accumulator collects observations for one scheme.
type accumulator struct {
	states     map[string]struct{}
	categories map[string]struct{}
	ages       []int
	incomes    []int64
	bplCount   int
	total      int
}

// Build computes metadata for every scheme named in records. Every listed
// occurrence is one observation, so a scheme listed twice in a record
// counts that record twice.
func Build(records []core.SchemeRecord) (Catalog, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records to build metadata from", core.ErrData)
	}

	groups := make(map[string]*accumulator)
	for i := range records {
		rec := &records[i]
		for _, name := range rec.Schemes {
			acc, ok := groups[name]
			if !ok {
				acc = &accumulator{
					states:     make(map[string]struct{}),
					categories: make(map[string]struct{}),
				}
				groups[name] = acc
			}
			acc.add(rec)
		}
	}

	catalog := make(Catalog, len(groups))
	for name, acc := range groups {
		catalog[name] = acc.metadata(name)
	}
	return catalog, nil
}

func (a *accumulator) add(rec *core.SchemeRecord) {
	a.total++
	if rec.IsBPL {
		a.bplCount++
	}
	if rec.State != "" {
		a.states[rec.State] = struct{}{}
	}
	if rec.Category != "" {
		a.categories[rec.Category] = struct{}{}
	}
	if rec.Age != nil {
		a.ages = append(a.ages, *rec.Age)
	}
	if rec.AnnualIncome != nil {
		a.incomes = append(a.incomes, *rec.AnnualIncome)
	}
}

func (a *accumulator) metadata(name string) *core.SchemeMetadata {
	md := &core.SchemeMetadata{
		States:      sortedKeys(a.states),
		Categories:  sortedKeys(a.categories),
		BPLCount:    a.bplCount,
		TotalCount:  a.total,
		SchemeFlags: FlagsFor(name),
	}

	if len(a.ages) > 0 {
		lo, hi := slices.Min(a.ages), slices.Max(a.ages)
		md.AgeMin, md.AgeMax = &lo, &hi
	}

	if len(a.incomes) > 0 {
		lo, hi := slices.Min(a.incomes), slices.Max(a.incomes)
		p90, p95 := Percentile(a.incomes, 90), Percentile(a.incomes, 95)
		md.IncomeMin, md.IncomeMax = &lo, &hi
		md.IncomeP90, md.IncomeP95 = &p90, &p95
	}

	return md
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
