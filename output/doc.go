// Package output provides the two sink kinds a pipeline can terminate into:
// an in-memory sink that collects records for a caller to inspect or
// re-sort, and a streaming sink that renders and writes records as they
// arrive. Both are grounded on filter_pipeline.cpp's sam_pipeline_output
// (in-memory, sortable) and stream_pipeline_output (append-only, hard
// error on sort).
package output
