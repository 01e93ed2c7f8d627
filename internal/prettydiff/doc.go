// Package prettydiff rewrites a unified diff stream for reading in a terminal.
//
// The input is classified line by line into three sections:
//   - Prelude: anything before the first diff header (ex: a commit message). Once left, it is never re-entered.
//   - Header: per-file lines such as "diff --git", "index", "---" and "+++". These are consumed and replaced by a one-line, colored banner naming the file and
//     whether it was added, modified, moved or deleted.
//   - Context: hunk content. Removed ("-") and added ("+") lines are buffered in runs; when a run of removed lines is followed by a run of added lines of the same
//     length, the lines are paired and the part of each line that differs from its partner is shown in reverse video.
//
// Use Process for a whole stream, or a Prettifier to feed lines one at a time. With Options.Colorize false, lines are only stripped of existing color escapes and
// passed through unchanged.
//
// Malformed header sequences (ex: "rename to" without "rename from") produce warnings on Options.Diag and processing continues. I/O errors are returned.
package prettydiff
