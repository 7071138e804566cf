// Package core provides the tabular cleaning pipeline behind the sweeper.
//
// It holds all domain logic independent of any transport layer, so the web
// handlers, tests and any future CLI drive the same code.
//
// # Pipeline
//
// A file moves through these steps, each a plain function over a [Table]:
//
//  1. [Parse] reads CSV or XLSX bytes. The format comes from the extension;
//     anything else fails with [UnsupportedFormatError].
//  2. [Deduplicate] and [FillMissingWithMean] run when enabled, in the order
//     given by [CleaningOptions].Order (dedupe first by default).
//  3. [Project] keeps the selected columns in the order requested.
//  4. [ExtractChartData] picks at most [MaxChartSeries] numeric columns for
//     [BuildBarChart]. No numeric column is a warning, not a failure.
//  5. [Convert] encodes the result as CSV or XLSX and names it after the
//     source file.
//
// [Pipeline.Apply] runs steps 2-5 against a clone of a parsed table, so the
// parsed upload can be reused for any number of actions.
//
// # Batches
//
// [Pipeline.ProcessBatch] and [Service.Upload] process every file of a batch
// on its own: one file failing never stops the others. A batch reports
// Complete once every file reached a terminal state.
//
// # Sessions
//
// [Service] keeps parsed uploads in a [Store] with an idle TTL and caches the
// result of each distinct action. A [BatchLimiter] bounds how many batches
// are parsed at once.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - FILE001-FILE007: File errors (size, format, encoding, empty, missing)
//   - COL001: Unknown column in a selection
//   - CHART001: No numeric data to chart
//   - CONV001: Encoding failures
//   - REQ001-REQ002, UPL002-UPL005, RATE001: Request handling
package core
