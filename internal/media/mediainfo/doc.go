// Package mediainfo runs the mediainfo CLI and post-processes its text report
// into the body of a release .nfo file.
package mediainfo
