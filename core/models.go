package core

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// BPLIncomeThreshold is the annual income at or below which a user is
// treated as living below the poverty line.
const BPLIncomeThreshold int64 = 25000

// DisplayCategory is the category label attached to every recommendation.
const DisplayCategory = "Government Scheme"

// Digest returns the hex encoded BLAKE2b-256 digest of the given parts.
// Parts are length prefixed so that ("ab", "c") and ("a", "bc") differ.
func Digest(parts ...string) string {
	h, _ := blake2b.New(32, nil)
	for _, p := range parts {
		fmt.Fprintf(h, "%d:", len(p))
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ContentDigest returns the hex encoded BLAKE2b-256 digest of raw bytes.
func ContentDigest(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SchemeRecord is one row of the source dataset: a beneficiary profile and
// the schemes that beneficiary was eligible for.
type SchemeRecord struct {
	Age          *int   // nil when the cell is missing
	AnnualIncome *int64 // nil when the cell is missing
	Category     string
	State        string
	IsBPL        bool
	Schemes      []string
}

// SchemeFlags are keyword flags derived from a scheme name alone.
type SchemeFlags struct {
	LowIncome      bool `json:"low_income_flag"`
	Senior         bool `json:"senior_flag"`
	Scholarship    bool `json:"scholarship_flag"`
	SouthIndia     bool `json:"south_india_flag"`
	BiharJharkhand bool `json:"bihar_jharkhand_flag"`
}

// SchemeMetadata holds statistics observed across every record listing a
// scheme. Nil numeric fields mean no record carried a usable value.
type SchemeMetadata struct {
	States     []string `json:"states"`
	AgeMin     *int     `json:"age_min"`
	AgeMax     *int     `json:"age_max"`
	IncomeMin  *int64   `json:"income_min"`
	IncomeMax  *int64   `json:"income_max"`
	IncomeP90  *int64   `json:"income_p90"`
	IncomeP95  *int64   `json:"income_p95"`
	Categories []string `json:"categories"`
	BPLCount   int      `json:"bpl_count"`
	TotalCount int      `json:"total_count"`
	SchemeFlags
}

// UserProfile is the input to a recommendation request.
type UserProfile struct {
	Age          int    `json:"age" validate:"gte=1,lte=150"`
	Category     string `json:"category" validate:"notblank"`
	AnnualIncome int64  `json:"annualIncome" validate:"gte=0"`
	State        string `json:"state" validate:"notblank"`
}

// IsBPL reports whether the profile falls below the default poverty line.
func (p *UserProfile) IsBPL() bool {
	return p.AnnualIncome <= BPLIncomeThreshold
}

// Text renders the profile as the sentence that gets embedded, using the
// default poverty line.
func (p *UserProfile) Text() string {
	return p.Describe(p.IsBPL())
}

// Describe renders the profile sentence with a BPL status decided by the
// caller.
func (p *UserProfile) Describe(isBPL bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "age %d, category %s, annual income %d, state %s",
		p.Age, p.Category, p.AnnualIncome, p.State)
	if isBPL {
		sb.WriteString(", belongs to BPL")
	}
	return sb.String()
}

// Candidate is a scheme scored against a user profile.
type Candidate struct {
	Name  string
	Score float64
}

// Recommendation is one entry of the response.
type Recommendation struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Category string  `json:"category"`
}

// RecommendationResult is the response document.
type RecommendationResult struct {
	Schemes []Recommendation `json:"schemes"`
}
