// Package filter implements the alignment- and header-level filters
// described by simple_filters.cpp in the original implementation:
// predicates and header transforms that the engine wires into
// pipeline.Stage chains ahead of, or after, reference-dictionary
// replacement.
//
// Every exported constructor here returns a pipeline.Filter[*samio.Record]
// (or a pair of one and an error, when the filter can fail to construct),
// ready to hand to pipeline.NewStage alongside any other filter.
package filter
