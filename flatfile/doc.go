// Package flatfile persists a kv.Store in a line-oriented text file
// with .mcufs extension.
//
// Each entry is one line. A scalar is written as <tag><key>:<value>
// and a list as *<tag><key>:<v1>,<v2>,... where tag is a single
// character identifying the kind (see kv.Kind.Tag):
//
//	Ivolume:7
//	*stags:a,b\,c
//	bmuted:f
//
// In String and Char values '\', newline and carriage return are written
// as \\, \n and \r. Inside lists of String and Char ',' is written as \,.
//
// Entries are written sorted by key. Lines that can't be decoded are
// skipped and reported in *LoadError.
package flatfile
