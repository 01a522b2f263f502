// Package exclusive declares sets of build-time feature flags as mutually
// exclusive and checks a flag selection against them.
//
// A set is declared in one of two modes:
//
//   - AtMostOne ("none-or-one-of"): zero or one flag of the set may be enabled.
//   - ExactlyOne ("exactly-one-of"): precisely one flag of the set must be enabled.
//
// # Checks
//
// A set expands into a flat list of independent checks. Every unordered pair
// of flags yields one pairwise check, n·(n−1)/2 in total for n flags, and
// ExactlyOne sets get one more coverage check requiring at least one flag.
// The checks are the same whether they are rendered into build-constrained
// source files by the featureguard generator or evaluated at process startup:
//
//	set, err := exclusive.NewSet("tls", exclusive.ExactlyOne, "rustls", "nativetls")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, check := range set.Checks() {
//	    fmt.Println(check.Message)
//	}
//
// # Startup validation
//
// Where build tags are not available, or in addition to them, a set can be
// validated against an Enabled predicate:
//
//	if err := exclusive.ExactlyOneOf(exclusive.Tags(os.Args[1:]...), "rustls", "nativetls"); err != nil {
//	    var conflict *exclusive.PairwiseConflict
//	    if errors.As(err, &conflict) {
//	        log.Fatalf("conflicting features %s and %s", conflict.A, conflict.B)
//	    }
//	    log.Fatal(err)
//	}
//
// Validation reports every failing check. The error text of each failure is
// the same message the compile-time check aborts the build with.
package exclusive
