package filter

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/grailbio/bio-samfilter/pipeline"
	"github.com/grailbio/bio-samfilter/samerr"
	"github.com/grailbio/bio-samfilter/samio"
)

var pgIDRange = big.NewInt(0x10001)

func randPGSuffix() uint32 {
	n, err := rand.Int(rand.Reader, pgIDRange)
	if err != nil {
		// crypto/rand failing indicates a broken entropy source; the
		// original's random_device has no recovery path either.
		panic(samerr.Wrap(samerr.Internal, err, "crypto/rand failed"))
	}
	return uint32(n.Int64())
}

// AddPGLine appends a @PG line built from fields to h, uniquifying its ID
// against every existing @PG ID and, unless fields already sets PP, chaining
// it onto the current terminal @PG link (samio.Header.LastPG).
func AddPGLine(h *samio.Header, fields []samio.Field) (pipeline.Filter[*samio.Record], error) {
	if _, ok := fieldValue(fields, "ID"); !ok {
		return nil, samerr.New(samerr.Config, "PG line missing ID field")
	}
	return func(pipeline.Kind, *int) (pipeline.Receiver[*samio.Record], pipeline.Finalizer) {
		pg := append([]samio.Field(nil), fields...)
		id, _ := fieldValue(pg, "ID")

		var suffix strings.Builder
		suffix.WriteString(id)
		for hasPGID(h, suffix.String()) {
			fmt.Fprintf(&suffix, "%x", randPGSuffix())
		}
		setFieldValue(&pg, "ID", suffix.String())

		if _, hasPP := fieldValue(pg, "PP"); !hasPP {
			if last, ok := h.LastPG(); ok {
				setFieldValue(&pg, "PP", last.ID())
			}
		}
		h.PG = append(h.PG, samio.PGLine{TaggedLine: samio.TaggedLine{Fields: pg}})
		return nil, nil
	}, nil
}

func hasPGID(h *samio.Header, id string) bool {
	for _, pg := range h.PG {
		if pg.ID() == id {
			return true
		}
	}
	return false
}
