package vector

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// maxFileDimensions bounds the dimension header read from disk.
const maxFileDimensions = 1 << 16

// headerSize is the row count and dimension header in bytes.
const headerSize = 8

// SaveMatrix writes the matrix rows to path. Directory is created if needed.
// Format (little-endian): rows (4), dimensions (4), then rows*dimensions float32 values, row-major.
// Item ids are not part of the file; they are persisted separately as an index map.
func SaveMatrix(path string, m *Matrix) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create matrix dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create matrix file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := writeMatrix(w, m); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush matrix file: %w", err)
	}
	return f.Close()
}

func writeMatrix(w io.Writer, m *Matrix) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.Rows))); err != nil {
		return fmt.Errorf("write row count: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(m.Dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	for i, row := range m.Rows {
		if _, err := w.Write(float32SliceToBytes(row)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return nil
}

// LoadMatrix reads a matrix written by SaveMatrix and attaches ids from index.
// A truncated file, trailing bytes, or an index map that is not a bijection over the rows is an error.
func LoadMatrix(path string, index map[int]string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matrix file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat matrix file: %w", err)
	}

	rows, err := readMatrix(bufio.NewReader(f), info.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ids, err := IDsFromIndexMap(index, len(rows))
	if err != nil {
		return nil, err
	}
	return NewMatrix(ids, rows)
}

// readMatrix decodes a matrix from r. size is the total byte length of the input; the
// header must describe exactly that many bytes before any row is allocated.
func readMatrix(r io.Reader, size int64) ([][]float32, error) {
	var n, dim uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read row count: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	if n > 0 && (dim == 0 || dim > maxFileDimensions) {
		return nil, fmt.Errorf("invalid dimensions in header: %d", dim)
	}
	if want := headerSize + int64(n)*int64(dim)*4; want != size {
		return nil, fmt.Errorf("malformed matrix: header describes %d rows of %d dimensions (%d bytes), file has %d bytes",
			n, dim, want, size)
	}
	rows := make([][]float32, 0, n)
	buf := make([]byte, int(dim)*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read row %d: %w", i, err)
		}
		rows = append(rows, bytesToFloat32Slice(buf))
	}
	var extra [1]byte
	if k, _ := r.Read(extra[:]); k > 0 {
		return nil, fmt.Errorf("unexpected trailing data after %d rows", n)
	}
	return rows, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
