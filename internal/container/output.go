package container

import (
	"fmt"
	"os"
	"path/filepath"
)

// CheckOutput fails with ErrOverwriteRefused if dest exists and overwrite
// is false
func CheckOutput(dest string, overwrite bool) error {
	_, err := os.Stat(dest)
	switch {
	case err == nil:
		if !overwrite {
			return fmt.Errorf("%w: %s", ErrOverwriteRefused, dest)
		}
		return nil
	case os.IsNotExist(err):
		return nil
	default:
		return fmt.Errorf("failed to check output %s: %w", dest, err)
	}
}

// checkDistinct refuses to write an output over its own input
func checkDistinct(input, dest string) error {
	inAbs, err1 := filepath.Abs(input)
	outAbs, err2 := filepath.Abs(dest)
	if err1 == nil && err2 == nil && inAbs == outAbs {
		return fmt.Errorf("%w: output is the input file %s", ErrOverwriteRefused, input)
	}
	inInfo, err1 := os.Stat(input)
	outInfo, err2 := os.Stat(dest)
	if err1 == nil && err2 == nil && os.SameFile(inInfo, outInfo) {
		return fmt.Errorf("%w: output is the input file %s", ErrOverwriteRefused, input)
	}
	return nil
}

// Output is a container being written. Data goes to a hidden temp file
// next to the destination and only replaces it on Commit.
type Output struct {
	dest      string
	file      *os.File
	closed    bool
	committed bool
}

// PrepareOutput checks the overwrite policy and opens the temp file
func PrepareOutput(dest string, overwrite bool) (*Output, error) {
	if err := CheckOutput(dest, overwrite); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary output: %w", err)
	}
	return &Output{dest: dest, file: f}, nil
}

// File returns the open temp file
func (o *Output) File() *os.File {
	return o.file
}

// Path returns the temp file path
func (o *Output) Path() string {
	return o.file.Name()
}

// Dest returns the final destination
func (o *Output) Dest() string {
	return o.dest
}

// Close closes the temp file handle. It is safe to call more than once.
func (o *Output) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	return o.file.Close()
}

// Commit moves the temp file into place
func (o *Output) Commit() error {
	if err := o.Close(); err != nil {
		o.Abort()
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Chmod(o.Path(), 0644); err != nil {
		o.Abort()
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err := os.Rename(o.Path(), o.dest); err != nil {
		o.Abort()
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	o.committed = true
	return nil
}

// Abort discards the temp file. It does nothing after Commit.
func (o *Output) Abort() error {
	if o.committed {
		return nil
	}
	o.Close()
	if err := os.Remove(o.Path()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
