// Package ranking scores schemes against a user embedding.
//
// Similarity is cosine similarity computed in float64. The ranker returns
// a candidate pool ordered by descending score; equal scores keep the
// order in which the source yields its names, which for an embedcache
// snapshot is the canonical sorted order.
//
// Example usage:
//
//	pool := ranking.Rank(userVector, embeddings, 50)
//	for _, c := range pool {
//	    fmt.Printf("%.3f %s\n", c.Score, c.Name)
//	}
package ranking
