package fpack

import "time"

// Container is the root aggregate of the format: a comment, the timestamp x
// with its two derived fields, and an ordered file list. Insertion order of
// Files is the order serialized.
type Container struct {
	Comment string
	X       uint64 // seconds since the Unix epoch at construction; read verbatim on decode
	Y       uint64 // always X + 43
	Z       uint64 // always X + 34
	Files   []File
}

// File is a named blob owned by a Container. Names are unique within one
// container by convention only; nothing enforces it.
type File struct {
	Name    string
	Content []byte
}

// Clock supplies the construction timestamp. Swap it out in tests.
type Clock func() time.Time

// NewContainer builds an empty container stamped with the current wall-clock
// time.
func NewContainer(comment string) (*Container, error) {
	return NewContainerWithClock(comment, time.Now)
}

// NewContainerWithClock is NewContainer with an injected time source.
// A pre-epoch instant yields a *ClockError.
func NewContainerWithClock(comment string, clock Clock) (*Container, error) {
	now := clock()
	secs := now.Unix()
	if secs < 0 {
		return nil, &ClockError{At: now}
	}
	x := uint64(secs)
	y, z := derive(x)
	return &Container{Comment: comment, X: x, Y: y, Z: z}, nil
}

// AddFile appends f to the file list. Duplicate names are allowed.
func (c *Container) AddFile(f File) {
	c.Files = append(c.Files, f)
}

// RemoveFile drops every file whose name equals name (not just the first
// match). No-op when nothing matches.
func (c *Container) RemoveFile(name string) {
	kept := c.Files[:0]
	for _, f := range c.Files {
		if f.Name != name {
			kept = append(kept, f)
		}
	}
	// clear the tail so removed contents can be collected
	for i := len(kept); i < len(c.Files); i++ {
		c.Files[i] = File{}
	}
	c.Files = kept
}

// GetFile returns the first file (in sequence order) named name, or nil.
func (c *Container) GetFile(name string) *File {
	for i := range c.Files {
		if c.Files[i].Name == name {
			return &c.Files[i]
		}
	}
	return nil
}
