// Package filesystem provides path manipulation utilities for watch roots:
// normalization of requested paths, canonicalization through symbolic links,
// and lexical ancestry relationships.
package filesystem
