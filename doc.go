// Package allerpredict embeds the product analysis pipeline in a Go program.
//
// A Client loads a product catalog, embeds it, and answers two kinds of
// requests: a structured allergen and ethics analysis of one product, and
// a free-form question grounded on the closest catalog products.
//
//	client, err := allerpredict.New(ctx,
//	    allerpredict.WithCatalogPath("data/metadata.json"),
//	    allerpredict.WithOllama("phi3"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	a := client.Analyze(ctx, "Peanut Butter Cookies")
//	fmt.Println(a.Result.RiskLevel, a.Result.DetectedAllergens)
//
// Analyze never fails: an unknown product yields RiskUnknown and a broken
// model backend yields RiskError with a diagnostic recommendation.
// Ask, Product and Reload return errors that can be matched with errors.Is
// against the sentinels in this package.
package allerpredict
