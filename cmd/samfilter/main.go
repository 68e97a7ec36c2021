package main

/*
  samfilter reads SAM text, applies a script of filters, and writes the
  result back out. For more information, see
  github.com/grailbio/bio-samfilter/engine/doc.go
*/

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/bio-samfilter/engine"
	"github.com/grailbio/bio-samfilter/filter"
	"github.com/grailbio/bio-samfilter/internal/sambuf"
	"github.com/grailbio/bio-samfilter/markduplicates"
	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samio"
)

var (
	input  = flag.String("input", "/dev/stdin", "Input SAM filename")
	output = flag.String("output", "/dev/stdout", "Output SAM filename")

	replaceReferenceSequences = flag.String("replace-reference-sequences", "", "Replace the input's @SQ dictionary with the one parsed from this SAM header file")
	filterUnmappedReads       = flag.Bool("filter-unmapped-reads", false, "Remove reads with the unmapped flag set")
	filterUnmappedReadsStrict = flag.Bool("filter-unmapped-reads-strict", false, "Remove reads with the unmapped flag set or RNAME \"*\"")
	replaceReadGroup          = flag.String("replace-read-group", "", "Replace the @RG list with one entry built from this TAG:VALUE list (tab-separated, e.g. \"ID:grp1\tPL:illumina\")")
	markDuplicates            = flag.Bool("mark-duplicates", false, "Mark PCR and optical duplicates")
	markDuplicatesDet         = flag.Bool("mark-duplicates-deterministic", false, "Mark duplicates, breaking ties deterministically instead of by first-seen order")
	removeDuplicates          = flag.Bool("remove-duplicates", false, "Remove reads with the duplicate flag set")
	sortingOrder              = flag.String("sorting-order", "keep", "One of keep, unknown, unsorted, queryname, coordinate")
	nrOfThreads               = flag.Int("nr-of-threads", 0, "ignored, kept for command-line compatibility")
	timed                     = flag.Bool("timed", false, "Print elapsed time to stderr")

	filterNonExactMappingReads       = flag.Bool("filter-non-exact-mapping-reads", false, "unsupported")
	filterNonExactMappingReadsStrict = flag.Bool("filter-non-exact-mapping-reads-strict", false, "unsupported")
	filterNonOverlappingReads        = flag.Bool("filter-non-overlapping-reads", false, "unsupported")
	removeOptionalFields             = flag.Bool("remove-optional-fields", false, "unsupported")
	keepOptionalFields               = flag.Bool("keep-optional-fields", false, "unsupported")
	cleanSAM                         = flag.Bool("clean-sam", false, "unsupported")
	profile                          = flag.Bool("profile", false, "unsupported")
	referenceT                       = flag.Bool("reference-t", false, "unsupported")
	referenceTCapital                = flag.Bool("reference-T", false, "unsupported")
	renameChromosomes                = flag.Bool("rename-chromosomes", false, "unsupported")
)

var unsupportedFlags = map[string]*bool{
	"--filter-non-exact-mapping-reads":        filterNonExactMappingReads,
	"--filter-non-exact-mapping-reads-strict": filterNonExactMappingReadsStrict,
	"--filter-non-overlapping-reads":          filterNonOverlappingReads,
	"--remove-optional-fields":                removeOptionalFields,
	"--keep-optional-fields":                  keepOptionalFields,
	"--clean-sam":                             cleanSAM,
	"--profile":                               profile,
	"--reference-t":                           referenceT,
	"--reference-T":                           referenceTCapital,
	"--rename-chromosomes":                    renameChromosomes,
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" || path == "/dev/stdin" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" || path == "/dev/stdout" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// refSeqDict parses a SAM header file and returns its @SQ lines, the Go
// equivalent of replace_reference_sequence_dictionary_from_sam_file.
func refSeqDict(path string) ([]samio.SQLine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	h, err := samio.ParseHeader(sambuf.NewReader(f))
	if err != nil {
		return nil, err
	}
	return h.SQ, nil
}

func buildOpts() (engine.Opts, error) {
	for name, set := range unsupportedFlags {
		if *set {
			return engine.Opts{}, fmt.Errorf("%s not supported", name)
		}
	}

	opts := engine.Opts{SortingOrder: *sortingOrder}
	switch *sortingOrder {
	case "keep", "unknown", "unsorted", "queryname", "coordinate":
	default:
		return engine.Opts{}, fmt.Errorf("unknown sorting order %q", *sortingOrder)
	}

	if *filterUnmappedReadsStrict {
		opts.Filters = append(opts.Filters, func(*samio.Header) (pipeline.Filter[*samio.Record], error) {
			return filter.FilterUnmappedReadsStrict(), nil
		})
	} else if *filterUnmappedReads {
		opts.Filters = append(opts.Filters, func(*samio.Header) (pipeline.Filter[*samio.Record], error) {
			return filter.FilterUnmappedReads(), nil
		})
	}

	if *replaceReferenceSequences != "" {
		dict, err := refSeqDict(*replaceReferenceSequences)
		if err != nil {
			return engine.Opts{}, err
		}
		opts.HasReplaceReferenceDictionary = true
		opts.Filters = append(opts.Filters, func(h *samio.Header) (pipeline.Filter[*samio.Record], error) {
			return filter.ReplaceReferenceDictionary(h, dict), nil
		})
	}

	if *replaceReadGroup != "" {
		fields, err := samio.ParseRecordFromHeaderField(*replaceReadGroup)
		if err != nil {
			return engine.Opts{}, err
		}
		opts.Filters = append(opts.Filters, func(h *samio.Header) (pipeline.Filter[*samio.Record], error) {
			return filter.AddOrReplaceReadGroup(h, fields)
		})
	}

	if (opts.HasReplaceReferenceDictionary || *markDuplicates || *markDuplicatesDet ||
		*sortingOrder == "coordinate" || *sortingOrder == "queryname") {
		opts.Filters = append(opts.Filters, func(h *samio.Header) (pipeline.Filter[*samio.Record], error) {
			return filter.AddRefID(h), nil
		})
	}

	if *markDuplicatesDet {
		opts.HasMarkDuplicates = true
		opts.Filters = append(opts.Filters, func(h *samio.Header) (pipeline.Filter[*samio.Record], error) {
			return markduplicates.NewFilter(h, true), nil
		})
	} else if *markDuplicates {
		opts.HasMarkDuplicates = true
		opts.Filters = append(opts.Filters, func(h *samio.Header) (pipeline.Filter[*samio.Record], error) {
			return markduplicates.NewFilter(h, false), nil
		})
	}

	opts.Filters = append(opts.Filters, func(h *samio.Header) (pipeline.Filter[*samio.Record], error) {
		return filter.FilterOptionalReads(h), nil
	})

	if *removeDuplicates {
		opts.PostFilters = append(opts.PostFilters, func(*samio.Header) (pipeline.Filter[*samio.Record], error) {
			return filter.FilterDuplicateReads(), nil
		})
	}

	return opts, nil
}

func timedRun(msg string, f func() error) error {
	if !*timed {
		return f()
	}
	fmt.Fprint(os.Stderr, msg)
	start := time.Now()
	err := f()
	fmt.Fprintf(os.Stderr, "Elapsed time: %s\n", time.Since(start))
	return err
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() > 0 {
		a := flag.Args()
		log.Fatalf("unparsed flags, please check flag syntax: '%s'", strings.Join(a, " "))
	}
	opts, err := buildOpts()
	if err != nil {
		log.Fatalf(err.Error())
	}

	in, err := openInput(*input)
	if err != nil {
		log.Fatalf(err.Error())
	}
	defer in.Close()
	out, err := openOutput(*output)
	if err != nil {
		log.Fatalf(err.Error())
	}
	defer out.Close()

	if err := timedRun("Running pipeline.\n", func() error {
		return engine.Run(in, out, opts)
	}); err != nil {
		log.Fatalf(err.Error())
	}
	log.Debug.Printf("exiting")
}
