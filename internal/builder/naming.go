package builder

import (
	"path/filepath"

	"github.com/altafino/folder-import/internal/models"
	"github.com/altafino/folder-import/internal/utility/u_io"
)

// DestinationName returns the master file name of file inside subfolder:
// "{subfolder}_{file}" with every rune outside [A-Za-z0-9_.] replaced by "_".
func DestinationName(subfolder, file string) string {
	return u_io.CleanFilename(subfolder + "_" + file)
}

// NewImageAsset pairs an image of subfolder with its master file name
func NewImageAsset(subfolder, sourcePath string) models.ImageAsset {
	return models.ImageAsset{
		SourcePath:      sourcePath,
		DestinationName: DestinationName(subfolder, filepath.Base(sourcePath)),
	}
}
