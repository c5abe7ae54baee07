// Package verify runs bulk identifier verification jobs: existence checks,
// profile lookups with heuristic scoring, and offline digit-pattern analysis.
// Jobs run in fixed-size concurrent batches with pauses in between so large
// inputs do not trip network rate limits.
package verify
