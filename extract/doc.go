// Package extract turns fetched documents into clean plain text plus
// the metadata the rest of the pipeline needs: title, description,
// outgoing links, word count and a language guess. A small registry
// routes by content type so HTML, plain text and PDF sources all come
// out in the same shape.
package extract
