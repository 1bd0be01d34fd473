// Package services defines shared utilities consumed by the release pipeline
// and its external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, categories, item names, and stage
//     names for logging.
//   - Structured error markers plus the Wrap helper so failures carry a
//     consistent classification into logs and the run summary.
//   - A blocking CommandRunner abstraction that makes invocations of mediainfo,
//     mkbrr, and guessit testable.
//
// Use these helpers when wiring new stage logic so operational behaviour (error
// handling, observability) stays uniform across the pipeline.
package services
