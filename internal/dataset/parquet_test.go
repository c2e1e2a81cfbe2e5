package dataset

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"

	"github.com/banshee-data/racetime/internal/dva"
)

// readFile serves a finished Parquet document to the reader. Each Open gets
// its own cursor because column readers seek independently.
type readFile struct {
	*bytes.Reader
	data []byte
}

func newReadFile(data []byte) *readFile {
	return &readFile{Reader: bytes.NewReader(data), data: data}
}

func (f *readFile) Create(string) (source.ParquetFile, error) { return nil, io.ErrUnexpectedEOF }
func (f *readFile) Open(string) (source.ParquetFile, error)   { return newReadFile(f.data), nil }
func (f *readFile) Write([]byte) (int, error)                 { return 0, io.ErrShortWrite }
func (f *readFile) Close() error                              { return nil }

func TestWriteParquet(t *testing.T) {
	res, err := dva.Run(ExampleSamples(), dva.Params{VehicleMass: 50, FrictionCoefficient: 0.1})
	require.NoError(t, err)
	require.NotEmpty(t, res.Samples)

	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, res.Samples))

	data := buf.Bytes()
	require.Greater(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))

	pr, err := reader.NewParquetReader(newReadFile(data), new(parquetRow), 1)
	require.NoError(t, err)
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	require.Equal(t, len(res.Samples), n)
	rows := make([]parquetRow, n)
	require.NoError(t, pr.Read(&rows))

	for i, r := range rows {
		want := res.Samples[i]
		assert.Equal(t, want.ContinuousTime, r.ContinuousTime, "row %d", i)
		assert.Equal(t, want.Acceleration, r.Acceleration, "row %d", i)
		assert.Equal(t, want.Speed, r.Speed, "row %d", i)
		assert.Equal(t, want.Distance, r.Distance, "row %d", i)
	}
}

func TestWriteParquet_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, nil))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("PAR1")))
}
