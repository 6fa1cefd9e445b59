// Package processor defines the contract between upstream message processors
// and the subscription framework.
//
// Processors are external collaborators: they consume raw broker messages and
// turn them into rows that subscription queries later observe. The framework
// never processes messages itself, but it assumes every processor is
// idempotent: processing the same message with the same metadata twice must
// yield byte-for-byte identical output, with no processor-internal mutable
// state and no wall-clock reads influencing the result.
//
// VerifyIdempotency is the conformance check for that assumption. Run it in
// the processor's own tests against representative raw messages:
//
//	metadata := processor.Metadata{Offset: 1000, Partition: 1, Timestamp: fixedTime}
//	if err := processor.VerifyIdempotency(p, rawMessage, metadata); err != nil {
//		// the processor leaks state or time into its output
//	}
package processor
