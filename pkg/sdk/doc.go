// Package partnerdex is an embeddable Go client for the CBD-sector partner
// directory. It wires the same data context and search pipeline as the
// partnerdex API server, in-process, on top of Valkey or Redis.
//
// The directory is served from an immutable snapshot. When the database is
// unreachable or empty, the bundled fallback table replaces it (never merged)
// and Source reports "fallback".
//
//	client, _ := partnerdex.New(ctx,
//	    partnerdex.WithValkey("localhost:6379", ""),
//	    partnerdex.WithRefreshInterval(5*time.Minute),
//	)
//	defer client.Close()
//
//	res, _ := client.Search(ctx, partnerdex.SearchParams{
//	    Term:     "canna",
//	    Category: "bank",
//	})
//	for _, e := range res.Items {
//	    fmt.Println(e.Name, e.CategoryLabel)
//	}
package partnerdex
