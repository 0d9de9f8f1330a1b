// Package chromasearch provides a typed expression DSL and client for
// Chroma-compatible hybrid search services.
//
// Queries are immutable expression trees built from filters (Where), ranking
// arithmetic (Rank), pagination (Limit), projection (Select), and grouping
// (GroupBy), composed into a Search and serialized to the wire payload.
//
// # Building a query
//
//	filter, _ := chromasearch.K("type").Eq("doc")
//	knn, _ := chromasearch.Knn(
//	    chromasearch.KnnQueryVector([]float32{0.1, 0.2}),
//	    chromasearch.WithKnnLimit(5),
//	)
//	limit, _ := chromasearch.NewLimit(5)
//
//	search, _ := chromasearch.NewSearch()
//	search = search.Where(filter).Rank(knn).Limit(limit).SelectAll()
//
// # Executing it
//
//	client, _ := chromasearch.NewClient(
//	    chromasearch.WithBaseURL("http://localhost:8000"),
//	)
//	result, _ := client.Collection("articles").Search(ctx, search)
//	for _, row := range result.Rows()[0] {
//	    fmt.Println(row.ID, row.Score)
//	}
//
// Rank expressions compose arithmetically; Rrf fuses several rankings by
// reciprocal rank. All validation happens at construction time, never at
// serialization or on the server round-trip.
package chromasearch
