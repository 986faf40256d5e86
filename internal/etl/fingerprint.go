package etl

import (
	"encoding/binary"
	"math"

	"github.com/zeebo/xxh3"

	"beautywiz/internal/catalog"
)

// Fingerprints hash the ingredient id and every record field. Each field is
// tagged as null or length-prefixed so adjacent fields cannot run together.

func hazardFingerprint(h catalog.IngredientHazard) uint64 {
	var b fpBuf
	b.int(h.IngredientID)
	b.float(h.HazardScore)
	b.str(h.Concerns)
	b.str(h.RegulationStatus)
	b.str(h.SourceURLs)
	return xxh3.Hash(b)
}

func reportFingerprint(r catalog.ChemicalReport) uint64 {
	var b fpBuf
	b.int(r.IngredientID)
	b.str(r.ChemicalID)
	b.str(r.FirstReported)
	b.str(r.MostRecentReport)
	b.str(r.DiscontinuedDate)
	if r.ReportCount == nil {
		b.null()
	} else {
		b.int(*r.ReportCount)
	}
	return xxh3.Hash(b)
}

type fpBuf []byte

func (b *fpBuf) null() { *b = append(*b, 0) }

func (b *fpBuf) int(v int64) {
	*b = append(*b, 1)
	*b = binary.AppendVarint(*b, v)
}

func (b *fpBuf) float(v *float64) {
	if v == nil {
		b.null()
		return
	}
	*b = append(*b, 1)
	*b = binary.BigEndian.AppendUint64(*b, math.Float64bits(*v))
}

func (b *fpBuf) str(v *string) {
	if v == nil {
		b.null()
		return
	}
	*b = append(*b, 1)
	*b = binary.AppendUvarint(*b, uint64(len(*v)))
	*b = append(*b, *v...)
}
