package fpack

// Manifest is a contents-free view of a container. The depot stores one next
// to each saved container so callers can inspect the comment, timestamp
// fields and file listing without fetching and decoding the blob.
type Manifest struct {
	Comment string         `json:"comment"`
	X       uint64         `json:"x"`
	Y       uint64         `json:"y"`
	Z       uint64         `json:"z"`
	Files   []ManifestFile `json:"files,omitempty"`
}

// ManifestFile records a file's name and content size.
type ManifestFile struct {
	Name string `json:"name"`
	Size uint64 `json:"size"`
}

// Manifest derives the manifest of c.
func (c *Container) Manifest() Manifest {
	m := Manifest{Comment: c.Comment, X: c.X, Y: c.Y, Z: c.Z}
	if len(c.Files) > 0 {
		m.Files = make([]ManifestFile, len(c.Files))
		for i := range c.Files {
			m.Files[i] = ManifestFile{
				Name: c.Files[i].Name,
				Size: uint64(len(c.Files[i].Content)),
			}
		}
	}
	return m
}
