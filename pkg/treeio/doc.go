// Package treeio provides the JSON wire format for game trees and
// evaluation results.
//
// This is the serialization boundary between the in-memory model
// (pkg/tree) and everything outside it: files on disk, API request and
// response bodies, and cache entries. The format is a plain node-link
// JSON object designed for round-trip fidelity - export followed by
// import produces an identical tree.
//
// Common operations:
//
//	t, _ := treeio.ImportJSON("game.json")   // File → Tree
//	treeio.ExportJSON(t, "out.json")         // Tree → File
//	t, _ := treeio.ReadJSON(req.Body)        // Reader → Tree
//	data, _ := treeio.MarshalResult(res)     // Result → []byte
package treeio
