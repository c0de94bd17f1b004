// Package ooxml provides the package-level access the report renderers need
// for Office Open XML documents.
//
// A DOCX file is a ZIP archive of XML parts. The renderers only ever need a
// narrow capability over it:
//
//   - open the archive from bytes
//   - enumerate its parts
//   - read and replace a part's content
//   - re-serialize the archive
//
// That capability is the Archive interface. ZipArchive implements it on top of
// github.com/klauspost/compress/zip.
//
// # Token Streams
//
// XML parts are handled as flat, lossless token streams (Stream) instead of
// typed structures. Namespace prefixes, unknown elements and attribute order
// survive a Parse/Encode round trip unchanged, so a template part only changes
// where a renderer rewrites it.
//
// Example:
//
//	archive, err := ooxml.OpenDocx(data)
//	if err != nil {
//	    return err
//	}
//	body, _ := archive.ReadPart(ooxml.MainDocumentPart)
//	stream, err := ooxml.Parse(body)
//	if err != nil {
//	    return err
//	}
//	archive.ReplacePart(ooxml.MainDocumentPart, stream.Bytes())
//	out, err := archive.Bytes()
package ooxml
