package release

import (
	"path/filepath"
	"strings"

	"torrentify/internal/discovery"
)

// Artifacts lists the output files of one item.
type Artifacts struct {
	Dir     string
	NFO     string
	Package string
	Tag     string
}

// ArtifactsFor returns the artifact paths of item.
func ArtifactsFor(item discovery.Item) Artifacts {
	dir := item.OutputDir
	return Artifacts{
		Dir:     dir,
		NFO:     filepath.Join(dir, item.Name+".nfo"),
		Package: filepath.Join(dir, item.Name+"."+discovery.PackageExtension),
		Tag:     filepath.Join(dir, item.Name+".txt"),
	}
}

// PartialPackage is where the creator writes before the final rename. It is
// hidden so package enumeration never picks it up.
func (a Artifacts) PartialPackage() string {
	ext := "." + discovery.PackageExtension
	base := strings.TrimSuffix(filepath.Base(a.Package), ext)
	return filepath.Join(a.Dir, "."+base+".partial"+ext)
}
