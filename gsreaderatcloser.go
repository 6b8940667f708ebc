package snptools

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
)

// Decorates a Google Storage object handle with ReadAt
type GSReaderAtCloser struct {
	*storage.ObjectHandle
	Context context.Context
}

// ReadAt satisfies io.ReaderAt with one ranged request per call, so it is safe
// for concurrent use.
func (o GSReaderAtCloser) ReadAt(p []byte, offset int64) (n int, err error) {
	rdr, err := o.NewRangeReader(o.Context, offset, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer rdr.Close()

	n, err = io.ReadFull(rdr, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}

	return n, err
}

// Close is a nop: each ReadAt closes its own range reader.
func (o GSReaderAtCloser) Close() error {
	return nil
}

// IsGoogleStoragePath reports whether path names a gs:// object.
func IsGoogleStoragePath(path string) bool {
	return strings.HasPrefix(path, "gs://")
}

func googleStorageObject(path string, client *storage.Client) (*storage.ObjectHandle, error) {
	if client == nil {
		return nil, fmt.Errorf("%s: a storage client is required to read from Google Storage", path)
	}

	// Detect the bucket and the path to the actual file
	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if len(pathParts) != 2 {
		return nil, fmt.Errorf("Tried to split your google storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}
	bucketName := pathParts[0]
	pathName := pathParts[1]

	// Open the bucket with default credentials
	return client.Bucket(bucketName).Object(pathName), nil
}

// OpenReaderAt opens path for random access, along with its size in bytes.
// gs:// paths are read through client; anything else is a local file.
func OpenReaderAt(ctx context.Context, path string, client *storage.Client) (ReaderAtCloser, int64, error) {
	if IsGoogleStoragePath(path) {
		handle, err := googleStorageObject(path, client)
		if err != nil {
			return nil, 0, err
		}

		// Make a hard call to get the filesize
		attrs, err := handle.Attrs(ctx)
		if err != nil {
			return nil, 0, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}

		return GSReaderAtCloser{ObjectHandle: handle, Context: ctx}, attrs.Size, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	fstat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}

	return f, fstat.Size(), nil
}

// OpenText opens path for sequential reading, transparently decompressing it.
func OpenText(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	var rc io.ReadCloser
	if IsGoogleStoragePath(path) {
		handle, err := googleStorageObject(path, client)
		if err != nil {
			return nil, err
		}
		if rc, err = handle.NewReader(ctx); err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		rc = f
	}

	return MaybeDecompressReadCloser(rc)
}

// Exists reports whether path can be found. Errors other than absence are
// returned so callers do not mistake an unreachable file for a missing one.
func Exists(ctx context.Context, path string, client *storage.Client) (bool, error) {
	if IsGoogleStoragePath(path) {
		handle, err := googleStorageObject(path, client)
		if err != nil {
			return false, err
		}
		_, err = handle.Attrs(ctx)
		if err == storage.ErrObjectNotExist {
			return false, nil
		}
		return err == nil, err
	}

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}

	return err == nil, err
}
