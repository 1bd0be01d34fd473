// Package scheduler runs independent jobs with a bounded number in flight.
//
// Admission is semaphore based: the submission loop acquires a slot before
// starting each job, so a slow job never holds back the others and a limit of
// one runs jobs strictly in submission order. A failing or panicking job is
// recorded in the Report and never prevents other jobs from running. The
// scheduler performs no retries.
package scheduler
