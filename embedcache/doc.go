// Package embedcache maintains one embedding vector per scheme name.
//
// Ensure compares the persisted snapshot against the canonical scheme list
// derived from the dataset. A matching snapshot is reused; anything else
// (missing, unreadable, built from a different list) causes every name to be
// encoded again and the snapshot to be replaced. Encoding happens in batches
// on a bounded worker pool and stops at the first encoder error.
//
// # Usage
//
//	builder, err := embedcache.NewBuilder(store, provider.Embedder(),
//	    embedcache.WithBatchSize(64),
//	    embedcache.WithProgress(os.Stderr),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer builder.Release()
//
//	embeddings, err := builder.Ensure(ctx, dataset.SchemeNames(ds.Records))
package embedcache
