package exclusive_test

import (
	"errors"
	"fmt"

	"github.com/conneroisu/featureguard/pkg/exclusive"
)

func ExampleSet_Checks() {
	set, err := exclusive.NewSet("tls", exclusive.ExactlyOne, "rustls", "nativetls", "boring")
	if err != nil {
		panic(err)
	}
	for _, check := range set.Checks() {
		fmt.Println(check.Kind, check.Flags)
	}
	// Output:
	// pairwise [rustls nativetls]
	// pairwise [rustls boring]
	// pairwise [nativetls boring]
	// coverage [rustls nativetls boring]
}

func ExampleNoneOrOneOf() {
	enabled := exclusive.Tags("zap", "zerolog")

	err := exclusive.NoneOrOneOf(enabled, "zap", "zerolog", "logrus")

	var conflict *exclusive.PairwiseConflict
	if errors.As(err, &conflict) {
		fmt.Println(conflict.A, conflict.B)
	}
	fmt.Println(err)
	// Output:
	// zap zerolog
	// The `zap` and `zerolog` features are mutually exclusive and cannot be enabled at the same time!
}

func ExampleExactlyOneOf() {
	fmt.Println(exclusive.ExactlyOneOf(exclusive.Tags(), "postgres", "sqlite"))
	fmt.Println(exclusive.ExactlyOneOf(exclusive.Tags("sqlite"), "postgres", "sqlite"))
	// Output:
	// You must enable exactly one of `postgres`, `sqlite` features!
	// <nil>
}
