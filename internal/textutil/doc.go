// Package textutil provides the text canonicalization shared by the cache and
// the response parser.
//
// SanitizeLatin is the only representation ever persisted or displayed:
// lowercase ASCII letters and digits separated by single spaces.
package textutil
