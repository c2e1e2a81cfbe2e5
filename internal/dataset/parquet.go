package dataset

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/banshee-data/racetime/internal/dva"
)

// ParquetFileName is the download name of the Parquet export.
const ParquetFileName = "dva_data.parquet"

// parquetRow is the column layout of the Parquet export.
type parquetRow struct {
	ContinuousTime float64 `parquet:"name=continuous_time, type=DOUBLE"`
	Acceleration   float64 `parquet:"name=acceleration, type=DOUBLE"`
	Speed          float64 `parquet:"name=speed, type=DOUBLE"`
	Distance       float64 `parquet:"name=distance, type=DOUBLE"`
}

// memFile buffers the Parquet footer writes; the writer never reads back.
type memFile struct {
	buffer *bytes.Buffer
}

func (m *memFile) Create(string) (source.ParquetFile, error) { return m, nil }
func (m *memFile) Open(string) (source.ParquetFile, error)   { return m, nil }
func (m *memFile) Seek(int64, int) (int64, error)            { return int64(m.buffer.Len()), nil }
func (m *memFile) Read([]byte) (int, error)                  { return 0, fmt.Errorf("read not supported") }
func (m *memFile) Write(b []byte) (int, error)               { return m.buffer.Write(b) }
func (m *memFile) Close() error                              { return nil }

// WriteParquet writes the reporting columns of a run as a snappy-compressed
// Parquet file.
func WriteParquet(w io.Writer, rows []dva.DerivedSample) error {
	mem := &memFile{buffer: &bytes.Buffer{}}
	pw, err := writer.NewParquetWriter(mem, new(parquetRow), 1)
	if err != nil {
		return fmt.Errorf("new parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, r := range rows {
		rec := parquetRow{
			ContinuousTime: r.ContinuousTime,
			Acceleration:   r.Acceleration,
			Speed:          r.Speed,
			Distance:       r.Distance,
		}
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			return fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet: %w", err)
	}

	_, err = w.Write(mem.buffer.Bytes())
	return err
}
