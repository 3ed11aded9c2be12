package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the types persisted in BadgerDB. Written by hand
// in the same Marshal/Unmarshal/Size shape as generated serializers, so
// storage code stays independent of how the encoding is produced.

var (
	// IDMUS serializes document IDs.
	IDMUS = idSer{}
	// URLCacheEntryMUS serializes URL cache entries.
	URLCacheEntryMUS = urlCacheEntrySer{}
	// VectorDocumentMUS serializes stored vector documents.
	VectorDocumentMUS = vectorDocumentSer{}
)

var (
	float32SliceSer = ord.NewSliceSer[float32](raw.Float32)
	stringMapSer    = ord.NewMapSer[string, string](ord.String, ord.String)
)

type idSer struct{}

func (idSer) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idSer) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idSer) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

type urlCacheEntrySer struct{}

func (urlCacheEntrySer) Marshal(e URLCacheEntry, bs []byte) (n int) {
	n = ord.String.Marshal(e.URL, bs)
	n += ord.String.Marshal(e.ContentHash, bs[n:])
	n += varint.Int64.Marshal(e.LastScrapedAt.UnixMicro(), bs[n:])
	n += ord.Bool.Marshal(e.Success, bs[n:])
	n += ord.String.Marshal(e.Category, bs[n:])
	n += ord.String.Marshal(e.FailureReason, bs[n:])
	return n
}

func (urlCacheEntrySer) Unmarshal(bs []byte) (e URLCacheEntry, n int, err error) {
	var n1 int
	if e.URL, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if e.ContentHash, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	e.LastScrapedAt = time.UnixMicro(micros).UTC()
	if e.Success, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if e.Category, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if e.FailureReason, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (urlCacheEntrySer) Size(e URLCacheEntry) (size int) {
	size = ord.String.Size(e.URL)
	size += ord.String.Size(e.ContentHash)
	size += varint.Int64.Size(e.LastScrapedAt.UnixMicro())
	size += ord.Bool.Size(e.Success)
	size += ord.String.Size(e.Category)
	size += ord.String.Size(e.FailureReason)
	return size
}

type vectorDocumentSer struct{}

func (vectorDocumentSer) Marshal(d VectorDocument, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(d.ID), bs)
	n += float32SliceSer.Marshal(d.Embedding, bs[n:])
	n += ord.String.Marshal(d.Text, bs[n:])
	n += stringMapSer.Marshal(d.Metadata, bs[n:])
	n += varint.Int64.Marshal(d.Stored.UnixMicro(), bs[n:])
	return n
}

func (vectorDocumentSer) Unmarshal(bs []byte) (d VectorDocument, n int, err error) {
	var (
		n1 int
		id uint64
	)
	if id, n, err = varint.Uint64.Unmarshal(bs); err != nil {
		return
	}
	d.ID = ID(id)
	if d.Embedding, n1, err = float32SliceSer.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if d.Metadata, n1, err = stringMapSer.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	d.Stored = time.UnixMicro(micros).UTC()
	return
}

func (vectorDocumentSer) Size(d VectorDocument) (size int) {
	size = varint.Uint64.Size(uint64(d.ID))
	size += float32SliceSer.Size(d.Embedding)
	size += ord.String.Size(d.Text)
	size += stringMapSer.Size(d.Metadata)
	size += varint.Int64.Size(d.Stored.UnixMicro())
	return size
}
