// Package core detects the character encoding of a CSV file and rewrites it
// as UTF-8.
//
// This package holds all domain logic and has no UI dependencies. The CLI and
// the HTTP handlers both drive it through [Converter].
//
// # Flow
//
//  1. [Detect] reads a bounded sample and returns a [Detection]: a [Guess]
//     with a confidence in [0,1], [NoSignal], or a [DetectionFailure].
//  2. [BuildCandidates] turns the detection into an ordered, de-duplicated
//     list of encodings. UTF-7 is moved to the front when the guess is weak
//     or ASCII-flavoured, and the fixed [Fallbacks] close the list.
//  3. [Resolver.Try] decodes and parses the whole file with each candidate
//     in turn and stops at the first that works.
//  4. [WriteCSV] writes the table atomically as UTF-8.
//
// # Errors
//
// Per-candidate failures ([CandidateError]) are logged and skipped. The
// conversion stops on [DetectionError], [SourceError], [ExhaustionError] and
// [WriteError]. [MapError] turns any of them into a coded [UserMessage]:
//
//   - DET001-DET003: detection (missing, empty, unreadable)
//   - ENC001-ENC002: no encoding worked, decode failure
//   - SRC001, CSV001: source I/O, malformed CSV
//   - OUT001-OUT002: write failure, destination exists
//
// # Progress
//
// A [ProgressFunc] receives [Progress] events synchronously: detection,
// the candidate list, each attempt with byte counts, and the write.
package core
