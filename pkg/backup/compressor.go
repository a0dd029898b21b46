package backup

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const extension = "zst"

// Compress compresses a file using zstd.
func Compress(filepath string) (string, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return "", fmt.Errorf("open file: %s", err)
	}
	pr, pw := io.Pipe()
	zW, err := zstd.NewWriter(pw)
	if err != nil {
		return "", fmt.Errorf("new writer: %s", err)
	}

	errs := errgroup.Group{}
	errs.Go(func() error {
		if _, err := io.Copy(zW, file); err != nil {
			return errors.Errorf("copy to writer: %s", err)
		}

		if err := zW.Close(); err != nil {
			return errors.Errorf("closing writer: %s", err)
		}

		if err := pw.Close(); err != nil {
			return errors.Errorf("closing pipe writer: %s", err)
		}

		return nil
	})

	newFilepath := fmt.Sprintf("%s.%s", filepath, extension)
	df, err := os.OpenFile(newFilepath, os.O_CREATE|os.O_WRONLY, 0o755)
	if err != nil {
		return "", errors.Errorf("open new file: %s", err)
	}

	writer := bufio.NewWriter(df)
	if _, err := io.Copy(writer, pr); err != nil {
		return "", errors.Errorf("copy to compressed file: %s", err)
	}

	if err := errs.Wait(); err != nil {
		return "", errors.Errorf("compressing: %s", err)
	}

	if err := writer.Flush(); err != nil {
		return "", errors.Errorf("flushing writer: %s", err)
	}

	if err := df.Close(); err != nil {
		return "", errors.Errorf("closing compressed file: %s", err)
	}

	if err := file.Close(); err != nil {
		return "", errors.Errorf("closing source file: %s", err)
	}

	return newFilepath, nil
}

// Decompress decompresses a zstd file, writing the output next to it.
func Decompress(filepath string) (string, error) {
	if !strings.HasSuffix(filepath, "."+extension) {
		return "", errors.Errorf("file %s has no .%s extension", filepath, extension)
	}

	file, err := os.Open(filepath)
	if err != nil {
		return "", errors.Errorf("open file: %s", err)
	}

	zR, err := zstd.NewReader(file)
	if err != nil {
		return "", errors.Errorf("new reader: %s", err)
	}
	defer zR.Close()

	newFilepath := strings.TrimSuffix(filepath, "."+extension)
	df, err := os.OpenFile(newFilepath, os.O_CREATE|os.O_WRONLY, 0o755)
	if err != nil {
		return "", errors.Errorf("open new file: %s", err)
	}

	if _, err := io.Copy(df, zR); err != nil {
		return "", errors.Errorf("copy to decompressed file: %s", err)
	}

	if err := df.Close(); err != nil {
		return "", errors.Errorf("closing decompressed file: %s", err)
	}

	if err := file.Close(); err != nil {
		return "", errors.Errorf("closing source file: %s", err)
	}

	return newFilepath, nil
}
