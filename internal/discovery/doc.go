// Package discovery enumerates the work items of a category and the package
// artifacts already produced.
//
// Two layouts exist. LayoutFiles walks the source tree and turns every media
// file into a single-file item (films). LayoutEntries looks only at the top
// level: matching files become single-file items and folders become folder
// items whose media files are collected recursively (series, music). All
// results are sorted so a run processes items in a stable order.
package discovery
