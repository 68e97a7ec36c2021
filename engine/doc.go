// Package engine assembles parsed filters into a running pipeline: it
// reads SAM text, binds the requested header filters (which may mutate the
// header and resolve the effective sorting order), drains the result into
// either a streaming or in-memory sink, and runs the two-phase dance a
// stream sink sorted by coordinate or queryname requires. Grounded on
// _examples/original_source/cpp/elprep.cpp's elprep_filter_script and
// filter_pipeline.cpp's sam_pipeline_input/stream_pipeline_input.
package engine
