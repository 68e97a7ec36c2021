package filter

import (
	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samio"
)

// Keep reports whether a record should survive a filter.
type Keep func(r *samio.Record) bool

// receiver returns a pipeline.Receiver that compacts a batch's Items down to
// those Keep approves, in place.
func receiver(keep Keep) pipeline.Receiver[*samio.Record] {
	return func(b samio.Batch[*samio.Record]) samio.Batch[*samio.Record] {
		items := b.Items[:0]
		for _, r := range b.Items {
			if keep(r) {
				items = append(items, r)
			}
		}
		b.Items = items
		return b
	}
}

// static turns a Keep that needs no header/dataSize binding into a
// pipeline.Filter.
func static(keep Keep) pipeline.Filter[*samio.Record] {
	return func(pipeline.Kind, *int) (pipeline.Receiver[*samio.Record], pipeline.Finalizer) {
		return receiver(keep), nil
	}
}

func fieldValue(fields []samio.Field, tag string) (string, bool) {
	for _, f := range fields {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	return "", false
}

func setFieldValue(fields *[]samio.Field, tag, value string) {
	for i := range *fields {
		if (*fields)[i].Tag == tag {
			(*fields)[i].Value = value
			return
		}
	}
	*fields = append(*fields, samio.Field{Tag: tag, Value: value})
}
