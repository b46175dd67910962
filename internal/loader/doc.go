// Package loader reads workflow graphs from disk.
//
// Two formats are understood: the JSON form of graph.Graph, and an HCL form
// built from `node` and `edge` blocks:
//
//	node "A" {
//	  type   = "input"
//	  config = { value = 21 }
//	  output "result" { type = number }
//	}
//
//	edge "a_to_b" {
//	  from = A.result
//	  to   = B.in
//	}
//
// Edge ends may be written either as bare traversals or as quoted
// "node.handle" strings. A directory is loaded by merging every .hcl and .json
// file beneath it; the merged graph is validated later by the engine, so
// identifiers duplicated across files surface as validation errors.
package loader
